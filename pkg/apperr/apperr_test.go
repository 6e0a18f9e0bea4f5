package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("bad %s", "age"), http.StatusBadRequest},
		{"no transcript", fmt.Errorf("finish: %w", ErrNoTranscript), http.StatusBadRequest},
		{"summarization", Summarization("timeout"), http.StatusBadRequest},
		{"not found", NotFound("meeting %s", "m1"), http.StatusNotFound},
		{"unauthorized", Unauthorized("expired"), http.StatusUnauthorized},
		{"conflict", Conflict("duplicate"), http.StatusConflict},
		{"store", Store("get meeting", errors.New("disk full")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStore_KeepsCause(t *testing.T) {
	req := require.New(t)
	cause := errors.New("disk full")

	err := Store("append message", cause)

	req.ErrorIs(err, ErrStore)
	req.ErrorIs(err, cause)
	req.Contains(err.Error(), "append message")
}

func TestPublic(t *testing.T) {
	req := require.New(t)

	req.Equal("internal error", Public(Store("get", errors.New("connection refused"))))
	req.Equal("validation error: age must be between 1 and 100", Public(Validation("age must be between 1 and 100")))
}
