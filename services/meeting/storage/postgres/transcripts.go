package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

const transcriptColumns = `meeting_id, messages, summary, created_at`

func (s *Store) AppendMessage(ctx context.Context, meetingID string, entry entity.ChatEntry, now time.Time) (*entity.Transcript, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat entry: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
INSERT INTO transcripts (meeting_id, messages, created_at)
VALUES ($1, jsonb_build_array($2::jsonb), $3)
ON CONFLICT (meeting_id) DO UPDATE SET messages = transcripts.messages || EXCLUDED.messages
RETURNING `+transcriptColumns, meetingID, string(data), now)

	t, err := scanTranscript(row)
	if err != nil {
		return nil, mapErr("append message", err)
	}
	return t, nil
}

func (s *Store) GetTranscript(ctx context.Context, meetingID string) (*entity.Transcript, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts WHERE meeting_id = $1`, meetingID)
	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transcript of meeting %s not found", meetingID)
	}
	if err != nil {
		return nil, mapErr("get transcript", err)
	}
	return t, nil
}

func (s *Store) ListTranscripts(ctx context.Context) ([]*entity.Transcript, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts ORDER BY created_at, meeting_id`)
	if err != nil {
		return nil, mapErr("list transcripts", err)
	}
	defer rows.Close()

	transcripts := []*entity.Transcript{}
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, mapErr("list transcripts", err)
		}
		transcripts = append(transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list transcripts", err)
	}
	return transcripts, nil
}

func (s *Store) SetSummary(ctx context.Context, meetingID, summary string) (*entity.Transcript, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE transcripts SET summary = $2 WHERE meeting_id = $1 RETURNING `+transcriptColumns,
		meetingID, summary,
	)
	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transcript of meeting %s not found", meetingID)
	}
	if err != nil {
		return nil, mapErr("set summary", err)
	}
	return t, nil
}

func scanTranscript(row scanner) (*entity.Transcript, error) {
	var (
		t        entity.Transcript
		messages []byte
		summary  sql.NullString
	)

	if err := row.Scan(&t.MeetingID, &messages, &summary, &t.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(messages, &t.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if summary.Valid {
		t.Summary = &summary.String
	}
	return &t, nil
}
