package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xilidan/meetings/pkg/apperr"
	httpjson "github.com/xilidan/meetings/pkg/json"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.ListTranscripts(r.Context())
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "chats",
		"chats":   res.Transcripts,
	})
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.GetTranscript(r.Context(), &entity.GetMeetingRequest{MeetingID: chi.URLParam(r, "meetingId")})
	if err != nil {
		writeLookupError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "chat found",
		"chat":    res.Transcript,
	})
}

func (h *Handler) ListChatsByUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.ListTranscriptsByUser(r.Context(), &entity.ListByUserRequest{UserID: chi.URLParam(r, "userId")})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "chats",
		"chats":   res.Transcripts,
	})
}

func (h *Handler) SaveMessage(w http.ResponseWriter, r *http.Request) {
	var body saveMessageBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	var entry chatEntryBody
	if len(body.Message) == 0 || string(body.Message) == "null" {
		httpjson.WriteAppError(w, apperr.Validation("message is required"))
		return
	}
	if err := json.Unmarshal(body.Message, &entry); err != nil {
		httpjson.WriteAppError(w, apperr.Validation("message must be an object with name and message"))
		return
	}

	res, err := h.usecase.AppendMessage(r.Context(), &entity.AppendMessageRequest{
		MeetingID: body.MeetingID,
		Entry: entity.ChatEntry{
			Name:      entry.Name,
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		},
	})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "message saved",
		"chat":    res.Transcript,
	})
}
