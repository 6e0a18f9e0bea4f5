// Package storage defines the durable store used by the meeting service.
//
// Every presence mutation (add, remove, session overwrite) and every chat
// append is a single atomic operation against the stored document. Errors
// carry the apperr kinds: ErrNotFound for unknown ids, ErrValidation when a
// finished meeting is asked to take participants, ErrConflict for duplicate
// emails and ErrStore for driver failures.
package storage

import (
	"context"
	"time"

	"github.com/xilidan/meetings/services/meeting/entity"
	ssostorage "github.com/xilidan/meetings/services/sso/storage"
)

type Storage interface {
	MeetingStorage
	TranscriptStorage
	UserStorage
	ssostorage.AccountStorage

	Close() error
}

type MeetingStorage interface {
	// CreateMeeting persists m, assigning an id when m.ID is empty.
	CreateMeeting(ctx context.Context, m *entity.Meeting) (*entity.Meeting, error)
	GetMeeting(ctx context.Context, id string) (*entity.Meeting, error)
	ListMeetings(ctx context.Context) ([]*entity.Meeting, error)
	UpdateMeetingDescription(ctx context.Context, id string, description *string) (*entity.Meeting, error)

	// FinishMeeting flips the status, clears the active set and stamps the
	// finish time. An already finished meeting keeps its first finish time.
	FinishMeeting(ctx context.Context, id string, at time.Time) (*entity.Meeting, error)

	// AddParticipant adds p unless an entry with the same user id exists.
	AddParticipant(ctx context.Context, meetingID string, p entity.Participant) ([]entity.Participant, error)
	// RemoveParticipant drops the entry of userID; removing an absent user is a no-op.
	RemoveParticipant(ctx context.Context, meetingID, userID string) ([]entity.Participant, error)
	// UpdateParticipantSession overwrites the session id of userID's entry in
	// place. found is false, with a nil set, when userID has no entry.
	UpdateParticipantSession(ctx context.Context, meetingID, userID, sessionID string) (participants []entity.Participant, found bool, err error)
}

type TranscriptStorage interface {
	// AppendMessage creates the transcript on first use and appends entry.
	AppendMessage(ctx context.Context, meetingID string, entry entity.ChatEntry, now time.Time) (*entity.Transcript, error)
	GetTranscript(ctx context.Context, meetingID string) (*entity.Transcript, error)
	ListTranscripts(ctx context.Context) ([]*entity.Transcript, error)
	SetSummary(ctx context.Context, meetingID, summary string) (*entity.Transcript, error)
}

type UserStorage interface {
	CreateUser(ctx context.Context, u *entity.User) (*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
	UpdateUser(ctx context.Context, id string, upd entity.UserUpdate, now time.Time) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) error
}
