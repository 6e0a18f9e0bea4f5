// Package directory resolves user ids and emails to stored user profiles.
package directory

import (
	"context"
	"strings"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
	"github.com/xilidan/meetings/services/meeting/storage"
)

type Directory struct {
	users storage.UserStorage
}

func New(users storage.UserStorage) *Directory {
	return &Directory{users: users}
}

func (d *Directory) ResolveUser(ctx context.Context, id string) (*entity.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("user id is required")
	}
	return d.users.GetUserByID(ctx, id)
}

func (d *Directory) ResolveUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	return d.users.GetUserByEmail(ctx, email)
}
