package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/xilidan/meetings/pkg/apperr"
	httpjson "github.com/xilidan/meetings/pkg/json"
	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/pkg/logger"
	ssoentity "github.com/xilidan/meetings/services/sso/entity"
)

type identityKey struct{}

// Authenticate rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.ParseTokenFromHeader(r)
		if err != nil {
			httpjson.WriteAppError(w, apperr.Unauthorized("%v", err))
			return
		}

		identity, err := h.sso.Verify(r.Context(), token)
		if err != nil {
			logger.FromContext(r.Context()).Debug("token rejected", slog.String("error", err.Error()))
			httpjson.WriteAppError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		ctx = logger.WithContext(ctx, logger.With(ctx, slog.String("account_id", identity.AccountID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) (*ssoentity.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*ssoentity.Identity)
	return identity, ok
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	req := &ssoentity.RegisterRequest{}
	if err := httpjson.ParseJSON(r, req); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.sso.Register(r.Context(), req)
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, map[string]any{
		"accountId": res.AccountID,
		"token":     res.Token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req := &ssoentity.LoginRequest{}
	if err := httpjson.ParseJSON(r, req); err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	res, err := h.sso.Login(r.Context(), req)
	if err != nil {
		httpjson.WriteAppError(w, err)
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, map[string]any{
		"accountId": res.AccountID,
		"token":     res.Token,
	})
}
