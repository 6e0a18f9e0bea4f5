package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func meetingKey(id string) string {
	return meetingPrefix + id
}

func (s *Store) CreateMeeting(ctx context.Context, m *entity.Meeting) (*entity.Meeting, error) {
	stored := *m
	if stored.ID == "" {
		stored.ID = s.ids.Next()
	}
	if stored.Participants == nil {
		stored.Participants = []entity.Participant{}
	}

	err := s.update(ctx, "create meeting", func(txn *badger.Txn) error {
		taken, err := exists(txn, meetingKey(stored.ID))
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("meeting %s already exists", stored.ID)
		}
		return setJSON(txn, meetingKey(stored.ID), &stored)
	})
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (s *Store) GetMeeting(ctx context.Context, id string) (*entity.Meeting, error) {
	var m *entity.Meeting
	err := s.view(ctx, "get meeting", func(txn *badger.Txn) error {
		var err error
		m, err = loadMeeting(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Store) ListMeetings(ctx context.Context) ([]*entity.Meeting, error) {
	meetings := []*entity.Meeting{}
	err := s.view(ctx, "list meetings", func(txn *badger.Txn) error {
		return scan(txn, meetingPrefix, func(val []byte) error {
			var m entity.Meeting
			if err := json.Unmarshal(val, &m); err != nil {
				return err
			}
			meetings = append(meetings, &m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		if !meetings[i].CreatedAt.Equal(meetings[j].CreatedAt) {
			return meetings[i].CreatedAt.Before(meetings[j].CreatedAt)
		}
		return meetings[i].ID < meetings[j].ID
	})
	return meetings, nil
}

func (s *Store) UpdateMeetingDescription(ctx context.Context, id string, description *string) (*entity.Meeting, error) {
	return s.modifyMeeting(ctx, "update meeting", id, func(m *entity.Meeting) (bool, error) {
		if description == nil {
			return false, nil
		}
		m.Description = description
		return true, nil
	})
}

func (s *Store) FinishMeeting(ctx context.Context, id string, at time.Time) (*entity.Meeting, error) {
	return s.modifyMeeting(ctx, "finish meeting", id, func(m *entity.Meeting) (bool, error) {
		m.Status = entity.StatusFinished
		m.Participants = []entity.Participant{}
		if m.FinishAt == nil {
			m.FinishAt = &at
		}
		return true, nil
	})
}

func (s *Store) AddParticipant(ctx context.Context, meetingID string, p entity.Participant) ([]entity.Participant, error) {
	m, err := s.modifyMeeting(ctx, "add participant", meetingID, func(m *entity.Meeting) (bool, error) {
		if m.IsFinished() {
			return false, apperr.Validation("meeting %s is finished", m.ID)
		}
		if _, ok := m.Participant(p.UserID); ok {
			return false, nil
		}
		m.Participants = append(m.Participants, p)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return m.Participants, nil
}

func (s *Store) RemoveParticipant(ctx context.Context, meetingID, userID string) ([]entity.Participant, error) {
	m, err := s.modifyMeeting(ctx, "remove participant", meetingID, func(m *entity.Meeting) (bool, error) {
		if _, ok := m.Participant(userID); !ok {
			return false, nil
		}
		m.Participants = lo.Filter(m.Participants, func(p entity.Participant, _ int) bool {
			return p.UserID != userID
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return m.Participants, nil
}

func (s *Store) UpdateParticipantSession(ctx context.Context, meetingID, userID, sessionID string) ([]entity.Participant, bool, error) {
	var found bool
	m, err := s.modifyMeeting(ctx, "update participant session", meetingID, func(m *entity.Meeting) (bool, error) {
		found = false
		if m.IsFinished() {
			return false, apperr.Validation("meeting %s is finished", m.ID)
		}

		_, idx, ok := lo.FindIndexOf(m.Participants, func(p entity.Participant) bool {
			return p.UserID == userID
		})
		if !ok {
			return false, nil
		}
		found = true
		m.Participants[idx].SessionID = sessionID
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	return m.Participants, true, nil
}

// modifyMeeting loads the meeting, applies fn and writes it back when fn
// reports a change, all inside one transaction.
func (s *Store) modifyMeeting(ctx context.Context, op, id string, fn func(m *entity.Meeting) (bool, error)) (*entity.Meeting, error) {
	var result *entity.Meeting
	err := s.update(ctx, op, func(txn *badger.Txn) error {
		m, err := loadMeeting(txn, id)
		if err != nil {
			return err
		}

		changed, err := fn(m)
		if err != nil {
			return err
		}
		if changed {
			if err := setJSON(txn, meetingKey(id), m); err != nil {
				return err
			}
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func loadMeeting(txn *badger.Txn, id string) (*entity.Meeting, error) {
	var m entity.Meeting
	if err := getJSON(txn, meetingKey(id), &m); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, apperr.NotFound("meeting %s not found", id)
		}
		return nil, err
	}
	if m.Participants == nil {
		m.Participants = []entity.Participant{}
	}
	return &m, nil
}
