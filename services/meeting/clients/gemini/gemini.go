// Package gemini is the summarization gateway backed by the Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meeting/entity"
)

const maxErrorBody = 4 << 10

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

func New(cfg config.SummarizerConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{},
	}
}

// Summarize asks the model for a summary of the conversation. Every failure,
// including an empty answer, is an apperr.ErrSummarization.
func (c *Client) Summarize(ctx context.Context, messages []entity.ChatEntry) (string, error) {
	log := logger.FromContext(ctx)
	log.Info("Summarize called", slog.Int("messages", len(messages)), slog.String("model", c.model))

	if c.apiKey == "" {
		return "", apperr.Summarization("summarizer API key is not configured")
	}

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: buildPrompt(messages)}}}},
	})
	if err != nil {
		return "", apperr.Summarization("failed to marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Summarization("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	log.Debug("sending generateContent request", slog.String("url", url), slog.Int("body_size", len(body)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("summarizer request failed", slog.String("error", err.Error()))
		return "", apperr.Summarization("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error("summarizer returned error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return "", apperr.Summarization("unexpected status code %d", resp.StatusCode)
	}

	var result generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperr.Summarization("failed to decode response: %v", err)
	}

	summary := strings.TrimSpace(result.text())
	if summary == "" {
		return "", apperr.Summarization("model returned an empty summary")
	}

	log.Info("summary generated", slog.Int("summary_length", len(summary)))
	return summary, nil
}

func (r generateContentResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func buildPrompt(messages []entity.ChatEntry) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Name+": "+m.Message)
	}

	return "Summarize the following meeting conversation.\n" +
		"Include:\n" +
		"- Main topics\n" +
		"- Decisions made\n" +
		"- Pending action items\n\n" +
		"Conversation:\n" +
		strings.Join(lines, "\n")
}
