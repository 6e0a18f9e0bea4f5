package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/validate"
	"github.com/xilidan/meetings/services/meeting/entity"
)

// RegisterUser creates the profile for an email, or returns the existing
// one untouched.
func (u *usecase) RegisterUser(ctx context.Context, req *entity.RegisterUserRequest) (*entity.RegisterUserResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	log := logger.With(ctx, slog.String("email", req.Email))

	existing, err := u.directory.ResolveUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		log.Info("user already registered", slog.String("user_id", existing.ID))
		return &entity.RegisterUserResponse{ID: existing.ID, Created: false}, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	now := u.now().UTC()
	user, err := u.Storage.CreateUser(ctx, &entity.User{
		Name:      req.Name,
		Email:     req.Email,
		Age:       req.Age,
		PhotoURL:  req.PhotoURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, apperr.ErrConflict) {
		// Lost a race with a concurrent registration of the same email.
		existing, err := u.directory.ResolveUserByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		return &entity.RegisterUserResponse{ID: existing.ID, Created: false}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	return &entity.RegisterUserResponse{
		ID:      user.ID,
		Created: true,
	}, nil
}

func (u *usecase) GetUser(ctx context.Context, req *entity.GetUserRequest) (*entity.GetUserResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := u.directory.ResolveUser(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &entity.GetUserResponse{
		User: user,
	}, nil
}

func (u *usecase) ListUsers(ctx context.Context) (*entity.ListUsersResponse, error) {
	users, err := u.Storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &entity.ListUsersResponse{
		Users: users,
	}, nil
}

func (u *usecase) UpdateUser(ctx context.Context, req *entity.UpdateUserRequest) (*entity.UpdateUserResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := u.Storage.UpdateUser(ctx, req.ID, entity.UserUpdate{
		Name:     req.Name,
		Age:      req.Age,
		PhotoURL: req.PhotoURL,
	}, u.now().UTC())
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user updated", slog.String("user_id", user.ID))
	return &entity.UpdateUserResponse{
		User: user,
	}, nil
}

func (u *usecase) DeleteUser(ctx context.Context, req *entity.DeleteUserRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	if err := u.Storage.DeleteUser(ctx, req.ID); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("user deleted", slog.String("user_id", req.ID))
	return nil
}
