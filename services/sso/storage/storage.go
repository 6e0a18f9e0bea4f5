package storage

import (
	"context"

	"github.com/xilidan/meetings/services/sso/entity"
)

// AccountStorage persists sign-in accounts. CreateAccount fails with
// apperr.ErrConflict when the email is taken; lookups fail with
// apperr.ErrNotFound.
type AccountStorage interface {
	CreateAccount(ctx context.Context, account *entity.Account) (*entity.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
}
