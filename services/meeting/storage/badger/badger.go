// Package badger implements storage.Storage on an embedded Badger database.
// Documents are stored as JSON under "<kind>/<id>" keys. With an empty path
// the database lives in memory, which is what the tests use.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/services/meeting/storage"
)

const maxConflictRetries = 100

const (
	meetingPrefix      = "meeting/"
	transcriptPrefix   = "transcript/"
	userPrefix         = "user/"
	userEmailPrefix    = "user-email/"
	accountPrefix      = "account/"
	accountEmailPrefix = "account-email/"
)

var _ storage.Storage = (*Store)(nil)

type Store struct {
	db  *badger.DB
	ids gen.IDGenerator
	log *slog.Logger
}

func Open(path string, ids gen.IDGenerator, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}

	if ids == nil {
		ids = gen.UUID()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Store{db: db, ids: ids, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying when a concurrent
// transaction touched the same keys. fn may run more than once.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperr.Store(op, err)
		}

		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			s.log.Debug("badger transaction conflict, retrying", slog.String("op", op), slog.Int("attempt", attempt+1))
			continue
		}
		return wrap(op, err)
	}

	return apperr.Store(op, badger.ErrConflict)
}

func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Store(op, err)
	}
	return wrap(op, s.db.View(fn))
}

// wrap passes domain errors through and turns driver failures into store errors.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrConflict):
		return err
	default:
		return apperr.Store(op, err)
	}
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// scan decodes every document under prefix with decode.
func scan(txn *badger.Txn, prefix string, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(decode); err != nil {
			return err
		}
	}
	return nil
}
