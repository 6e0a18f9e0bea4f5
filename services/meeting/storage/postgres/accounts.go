package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xilidan/meetings/pkg/apperr"
	ssoentity "github.com/xilidan/meetings/services/sso/entity"
)

func (s *Store) CreateAccount(ctx context.Context, account *ssoentity.Account) (*ssoentity.Account, error) {
	stored := *account
	if stored.ID == "" {
		stored.ID = s.ids.Next()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		stored.ID, stored.Email, stored.PasswordHash, stored.CreatedAt,
	)
	if err != nil {
		return nil, mapErr("create account", err)
	}

	return &stored, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*ssoentity.Account, error) {
	var account ssoentity.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE lower(email) = lower($1)`,
		email,
	).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("account %s not found", email)
	}
	if err != nil {
		return nil, mapErr("get account", err)
	}
	return &account, nil
}
