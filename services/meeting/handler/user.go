package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xilidan/meetings/pkg/apperr"
	httpjson "github.com/xilidan/meetings/pkg/json"
	"github.com/xilidan/meetings/services/meeting/entity"
)

// RegisterUser creates the caller's profile. The email comes from the
// verified token, never from the body.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		httpjson.WriteAppError(w, apperr.Unauthorized("missing identity"))
		return
	}

	var body registerUserBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}
	if body.Age == nil {
		httpjson.WriteAppError(w, apperr.Validation("Age is required"))
		return
	}

	res, err := h.usecase.RegisterUser(r.Context(), &entity.RegisterUserRequest{
		Name:     body.Name,
		Email:    identity.Email,
		Age:      int(*body.Age),
		PhotoURL: body.PhotoURL,
	})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	if !res.Created {
		httpjson.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "user already exists",
			"id":      res.ID,
		})
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "user registered",
		"id":      res.ID,
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.ListUsers(r.Context())
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "users",
		"users":   res.Users,
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.GetUser(r.Context(), &entity.GetUserRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "user found",
		"user":    res.User,
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var body updateUserBody
	if err := httpjson.ParseJSON(r, &body); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.usecase.UpdateUser(r.Context(), &entity.UpdateUserRequest{
		ID:       chi.URLParam(r, "id"),
		Name:     body.Name,
		Age:      body.Age.intPtr(),
		PhotoURL: body.PhotoURL,
	})
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "user updated",
		"user":    res.User,
	})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.DeleteUser(r.Context(), &entity.DeleteUserRequest{ID: chi.URLParam(r, "id")}); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "user deleted",
	})
}
