package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

var conversation = []entity.ChatEntry{
	{Name: "ana", Message: "let's ship friday"},
	{Name: "bo", Message: "ok, I'll write the notes"},
}

func newClient(url string) *Client {
	return New(config.SummarizerConfig{APIKey: "key", URL: url, Model: "test-model", Timeout: time.Second})
}

func TestSummarize(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/models/test-model:generateContent", r.URL.Path)
		req.Equal("key", r.Header.Get("x-goog-api-key"))

		var body generateContentRequest
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Contains(body.Contents[0].Parts[0].Text, "ana: let's ship friday\nbo: ok, I'll write the notes")

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Ship on Friday. "},{"text":"Bo writes notes."}]}}]}`))
	}))
	defer srv.Close()

	summary, err := newClient(srv.URL).Summarize(context.Background(), conversation)
	req.NoError(err)
	req.Equal("Ship on Friday. Bo writes notes.", summary)
}

func TestSummarize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"blank text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`},
		{"garbage", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).Summarize(context.Background(), conversation)
			require.ErrorIs(t, err, apperr.ErrSummarization)
		})
	}
}

func TestSummarize_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(srv.URL).Summarize(ctx, conversation)
	require.ErrorIs(t, err, apperr.ErrSummarization)
}

func TestSummarize_NoAPIKey(t *testing.T) {
	c := New(config.SummarizerConfig{URL: "http://unused", Model: "m"})
	_, err := c.Summarize(context.Background(), conversation)
	require.ErrorIs(t, err, apperr.ErrSummarization)
}
