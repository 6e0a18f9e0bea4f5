package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xilidan/meetings/pkg/apperr"
	httpjson "github.com/xilidan/meetings/pkg/json"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.ListMeetings(r.Context())
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "meetings",
		"meetings": res.Meetings,
	})
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.GetMeeting(r.Context(), &entity.GetMeetingRequest{MeetingID: chi.URLParam(r, "id")})
	if err != nil {
		writeLookupError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "meeting found",
		"meeting": res.Meeting,
	})
}

func (h *Handler) GetMeetingUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.GetParticipants(r.Context(), &entity.GetMeetingRequest{MeetingID: chi.URLParam(r, "id")})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message":              "participants found",
		"meeting_participants": res.Participants,
	})
}

func (h *Handler) GetUsersMeeting(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.GetParticipantProfiles(r.Context(), &entity.GetMeetingRequest{MeetingID: chi.URLParam(r, "id")})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "participant profiles found",
		"users":   res.Users,
	})
}

func (h *Handler) ListMeetingsByUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.ListMeetingsByUser(r.Context(), &entity.ListByUserRequest{UserID: chi.URLParam(r, "userId")})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "meetings",
		"meetings": res.Meetings,
	})
}

func (h *Handler) StartMeeting(w http.ResponseWriter, r *http.Request) {
	var body startMeetingBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.usecase.StartMeeting(r.Context(), &entity.StartMeetingRequest{
		UserID:      body.UserID,
		Description: body.Description,
	})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "meeting started",
		"id":      res.MeetingID,
	})
}

// UpdateMeeting only accepts the description; any other field is rejected.
func (h *Handler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := httpjson.ParseJSON(r, &fields); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	req := &entity.UpdateMeetingRequest{MeetingID: chi.URLParam(r, "id")}
	for name, raw := range fields {
		if name != "description" {
			httpjson.WriteAppError(w, apperr.Validation("field %q cannot be updated", name))
			return
		}
		if err := json.Unmarshal(raw, &req.Description); err != nil {
			httpjson.WriteAppError(w, apperr.Validation("description must be a string"))
			return
		}
	}

	res, err := h.usecase.UpdateMeeting(r.Context(), req)
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "meeting updated",
		"meeting": res.Meeting,
	})
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var body participantBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.usecase.AddParticipant(r.Context(), &entity.ParticipantRequest{
		MeetingID: chi.URLParam(r, "id"),
		UserID:    body.UserID,
	})
	h.writeParticipants(w, res, err, "participant added")
}

func (h *Handler) ReconcileUser(w http.ResponseWriter, r *http.Request) {
	var body participantBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.usecase.Reconcile(r.Context(), &entity.ReconcileRequest{
		MeetingID: chi.URLParam(r, "id"),
		UserID:    body.UserID,
		SessionID: body.SessionID,
	})
	h.writeParticipants(w, res, err, "participant session reconciled")
}

func (h *Handler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	var body participantBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.usecase.RemoveParticipant(r.Context(), &entity.ParticipantRequest{
		MeetingID: chi.URLParam(r, "id"),
		UserID:    body.UserID,
	})
	h.writeParticipants(w, res, err, "participant removed")
}

func (h *Handler) writeParticipants(w http.ResponseWriter, res *entity.ParticipantsResponse, err error, message string) {
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message":     message,
		"activeUsers": res.Participants,
	})
}

func (h *Handler) FinishMeeting(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.FinishMeeting(r.Context(), &entity.FinishMeetingRequest{MeetingID: chi.URLParam(r, "id")})
	h.writeFinish(w, res, err, "meeting finished")
}

func (h *Handler) SummarizeMeeting(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.SummarizeMeeting(r.Context(), &entity.FinishMeetingRequest{MeetingID: chi.URLParam(r, "id")})
	h.writeFinish(w, res, err, "meeting summarized")
}

// writeFinish reports the saga outcome. On failure the body still carries
// the outcome so clients can tell a finished-but-unsummarized meeting apart.
func (h *Handler) writeFinish(w http.ResponseWriter, res *entity.FinishMeetingResponse, err error, message string) {
	if err != nil {
		body := map[string]any{"error": apperr.Public(err)}
		if res != nil {
			body["outcome"] = res.Outcome
			body["meeting"] = res.Meeting
		}
		httpjson.WriteJSON(w, apperr.HTTPStatus(err), body)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"outcome": res.Outcome,
		"meeting": res.Meeting,
		"summary": res.Summary,
	})
}
