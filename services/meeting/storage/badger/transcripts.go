package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func transcriptKey(meetingID string) string {
	return transcriptPrefix + meetingID
}

func (s *Store) AppendMessage(ctx context.Context, meetingID string, entry entity.ChatEntry, now time.Time) (*entity.Transcript, error) {
	var result *entity.Transcript
	err := s.update(ctx, "append message", func(txn *badger.Txn) error {
		var t entity.Transcript
		err := getJSON(txn, transcriptKey(meetingID), &t)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			t = entity.Transcript{MeetingID: meetingID, CreatedAt: now}
		case err != nil:
			return err
		}

		t.Messages = append(t.Messages, entry)
		if err := setJSON(txn, transcriptKey(meetingID), &t); err != nil {
			return err
		}
		result = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) GetTranscript(ctx context.Context, meetingID string) (*entity.Transcript, error) {
	var t entity.Transcript
	err := s.view(ctx, "get transcript", func(txn *badger.Txn) error {
		err := getJSON(txn, transcriptKey(meetingID), &t)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFound("transcript of meeting %s not found", meetingID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Store) ListTranscripts(ctx context.Context) ([]*entity.Transcript, error) {
	transcripts := []*entity.Transcript{}
	err := s.view(ctx, "list transcripts", func(txn *badger.Txn) error {
		return scan(txn, transcriptPrefix, func(val []byte) error {
			var t entity.Transcript
			if err := json.Unmarshal(val, &t); err != nil {
				return err
			}
			transcripts = append(transcripts, &t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(transcripts, func(i, j int) bool {
		if !transcripts[i].CreatedAt.Equal(transcripts[j].CreatedAt) {
			return transcripts[i].CreatedAt.Before(transcripts[j].CreatedAt)
		}
		return transcripts[i].MeetingID < transcripts[j].MeetingID
	})
	return transcripts, nil
}

func (s *Store) SetSummary(ctx context.Context, meetingID, summary string) (*entity.Transcript, error) {
	var t entity.Transcript
	err := s.update(ctx, "set summary", func(txn *badger.Txn) error {
		err := getJSON(txn, transcriptKey(meetingID), &t)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFound("transcript of meeting %s not found", meetingID)
		}
		if err != nil {
			return err
		}

		t.Summary = &summary
		return setJSON(txn, transcriptKey(meetingID), &t)
	})
	if err != nil {
		return nil, err
	}

	return &t, nil
}
