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

const meetingColumns = `id, user_id, description, status, participants, created_at, start_at, finish_at`

const (
	addParticipantQuery = `
UPDATE meetings
SET participants = CASE
	WHEN participants @> jsonb_build_array(jsonb_build_object('userId', $2::text)) THEN participants
	ELSE participants || jsonb_build_array($3::jsonb)
END
WHERE id = $1 AND status = 'active'
RETURNING participants`

	removeParticipantQuery = `
UPDATE meetings
SET participants = COALESCE((
	SELECT jsonb_agg(p ORDER BY ord)
	FROM jsonb_array_elements(participants) WITH ORDINALITY AS t(p, ord)
	WHERE p->>'userId' <> $2
), '[]'::jsonb)
WHERE id = $1
RETURNING participants`

	updateSessionQuery = `
UPDATE meetings
SET participants = (
	SELECT jsonb_agg(
		CASE WHEN p->>'userId' = $2 THEN jsonb_set(p, '{socketId}', to_jsonb($3::text)) ELSE p END
		ORDER BY ord)
	FROM jsonb_array_elements(participants) WITH ORDINALITY AS t(p, ord)
)
WHERE id = $1 AND status = 'active'
	AND participants @> jsonb_build_array(jsonb_build_object('userId', $2::text))
RETURNING participants`
)

func (s *Store) CreateMeeting(ctx context.Context, m *entity.Meeting) (*entity.Meeting, error) {
	stored := *m
	if stored.ID == "" {
		stored.ID = s.ids.Next()
	}
	if stored.Participants == nil {
		stored.Participants = []entity.Participant{}
	}

	participants, err := json.Marshal(stored.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participants: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meetings (`+meetingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stored.ID,
		stored.UserID,
		stored.Description,
		string(stored.Status),
		string(participants),
		stored.CreatedAt,
		stored.StartAt,
		stored.FinishAt,
	)
	if err != nil {
		return nil, mapErr("create meeting", err)
	}

	return &stored, nil
}

func (s *Store) GetMeeting(ctx context.Context, id string) (*entity.Meeting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("meeting %s not found", id)
	}
	if err != nil {
		return nil, mapErr("get meeting", err)
	}
	return m, nil
}

func (s *Store) ListMeetings(ctx context.Context) ([]*entity.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+meetingColumns+` FROM meetings ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr("list meetings", err)
	}
	defer rows.Close()

	meetings := []*entity.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, mapErr("list meetings", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list meetings", err)
	}
	return meetings, nil
}

func (s *Store) UpdateMeetingDescription(ctx context.Context, id string, description *string) (*entity.Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE meetings SET description = COALESCE($2, description) WHERE id = $1 RETURNING `+meetingColumns,
		id, description,
	)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("meeting %s not found", id)
	}
	if err != nil {
		return nil, mapErr("update meeting", err)
	}
	return m, nil
}

func (s *Store) FinishMeeting(ctx context.Context, id string, at time.Time) (*entity.Meeting, error) {
	row := s.db.QueryRowContext(ctx, `
UPDATE meetings
SET status = 'finished', participants = '[]'::jsonb, finish_at = COALESCE(finish_at, $2)
WHERE id = $1
RETURNING `+meetingColumns, id, at)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("meeting %s not found", id)
	}
	if err != nil {
		return nil, mapErr("finish meeting", err)
	}
	return m, nil
}

func (s *Store) AddParticipant(ctx context.Context, meetingID string, p entity.Participant) ([]entity.Participant, error) {
	entry, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participant: %w", err)
	}

	var raw []byte
	err = s.db.QueryRowContext(ctx, addParticipantQuery, meetingID, p.UserID, string(entry)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.inactiveMeetingErr(ctx, meetingID); err != nil {
			return nil, err
		}
		return nil, apperr.Store("add participant", err)
	}
	if err != nil {
		return nil, mapErr("add participant", err)
	}
	return decodeParticipants(raw)
}

func (s *Store) RemoveParticipant(ctx context.Context, meetingID, userID string) ([]entity.Participant, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, removeParticipantQuery, meetingID, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("meeting %s not found", meetingID)
	}
	if err != nil {
		return nil, mapErr("remove participant", err)
	}
	return decodeParticipants(raw)
}

func (s *Store) UpdateParticipantSession(ctx context.Context, meetingID, userID, sessionID string) ([]entity.Participant, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, updateSessionQuery, meetingID, userID, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.inactiveMeetingErr(ctx, meetingID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapErr("update participant session", err)
	}

	participants, err := decodeParticipants(raw)
	if err != nil {
		return nil, false, err
	}
	return participants, true, nil
}

// inactiveMeetingErr explains why a presence update matched no row. It
// returns nil when the meeting exists and is active.
func (s *Store) inactiveMeetingErr(ctx context.Context, meetingID string) error {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM meetings WHERE id = $1`, meetingID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("meeting %s not found", meetingID)
	case err != nil:
		return mapErr("get meeting status", err)
	case entity.Status(status) == entity.StatusFinished:
		return apperr.Validation("meeting %s is finished", meetingID)
	default:
		return nil
	}
}

func scanMeeting(row scanner) (*entity.Meeting, error) {
	var (
		m            entity.Meeting
		description  sql.NullString
		status       string
		participants []byte
		finishAt     sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.UserID,
		&description,
		&status,
		&participants,
		&m.CreatedAt,
		&m.StartAt,
		&finishAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = entity.Status(status)
	if description.Valid {
		m.Description = &description.String
	}
	if finishAt.Valid {
		m.FinishAt = &finishAt.Time
	}
	m.Participants, err = decodeParticipants(participants)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeParticipants(raw []byte) ([]entity.Participant, error) {
	participants := []entity.Participant{}
	if len(raw) == 0 {
		return participants, nil
	}
	if err := json.Unmarshal(raw, &participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	return participants, nil
}
