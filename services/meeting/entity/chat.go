package entity

import "time"

type (
	// ChatEntry is immutable once appended. Order is append order; Timestamp
	// is whatever the client sent and is never used for ordering.
	ChatEntry struct {
		Name      string  `json:"name" validate:"required"`
		Message   string  `json:"message" validate:"required"`
		Timestamp *string `json:"timestamp,omitempty"`
	}

	Transcript struct {
		MeetingID string      `json:"meetId"`
		Messages  []ChatEntry `json:"messages"`
		Summary   *string     `json:"ai_summary"`
		CreatedAt time.Time   `json:"createdAt"`
	}
)

type (
	AppendMessageRequest struct {
		MeetingID string `validate:"required"`
		Entry     ChatEntry
	}

	TranscriptResponse struct {
		Transcript *Transcript
	}

	ListTranscriptsResponse struct {
		Transcripts []*Transcript
	}
)
