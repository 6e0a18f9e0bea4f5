// Package postgres implements storage.Storage on PostgreSQL through lib/pq.
// Participant sets and chat messages live in JSONB columns so each presence
// change and each append is a single UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/services/meeting/storage"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var _ storage.Storage = (*Store)(nil)

type Store struct {
	db  *sql.DB
	ids gen.IDGenerator
	log *slog.Logger
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, dsn string, ids gen.IDGenerator, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := New(db, ids, log)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB, ids gen.IDGenerator, log *slog.Logger) *Store {
	if ids == nil {
		ids = gen.UUID()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, ids: ids, log: log}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.log.Debug("postgres schema applied")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// mapErr translates driver errors into apperr kinds. sql.ErrNoRows must be
// handled by the caller, which knows what was missing.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict("%s: %s", op, pqErr.Detail)
		case codeForeignKeyViolation:
			return apperr.NotFound("%s: %s", op, pqErr.Detail)
		}
	}
	return apperr.Store(op, err)
}

type scanner interface {
	Scan(dest ...any) error
}
