package jwt

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	req := require.New(t)

	token, err := Generate("acc-1", "ana@example.com", secret, time.Hour)
	req.NoError(err)

	claims, err := Parse(token, secret)
	req.NoError(err)
	req.Equal("acc-1", claims.Subject)
	req.Equal("ana@example.com", claims.Email)
}

func TestParseRejects(t *testing.T) {
	valid, err := Generate("acc-1", "ana@example.com", secret, time.Hour)
	require.NoError(t, err)
	expired, err := Generate("acc-1", "ana@example.com", secret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other-secret"},
		{"expired", expired, secret},
		{"garbage", "not-a-token", secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.secret)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseTokenFromHeader(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/", nil)
	_, err := ParseTokenFromHeader(r)
	req.ErrorIs(err, ErrMissingToken)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ParseTokenFromHeader(r)
	req.ErrorIs(err, ErrMissingToken)

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, err := ParseTokenFromHeader(r)
	req.NoError(err)
	req.Equal("abc.def.ghi", token)
}

func TestGenerateRequiresSecret(t *testing.T) {
	_, err := Generate("acc-1", "ana@example.com", "", time.Hour)
	require.Error(t, err)
}
