package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func TestRegisterUser_Age(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		wantErr bool
	}{
		{"zero", 0, true},
		{"too old", 101, true},
		{"lower bound", 1, false},
		{"upper bound", 100, false},
		{"typical", 45, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, err := f.uc.RegisterUser(context.Background(), &entity.RegisterUserRequest{
				Name:  "Ana",
				Email: "ana@example.com",
				Age:   tt.age,
			})
			if tt.wantErr {
				require.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			require.True(t, resp.Created)
		})
	}
}

func TestRegisterUser_IdempotentByEmail(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.uc.RegisterUser(ctx, &entity.RegisterUserRequest{Name: "Ana", Email: "ana@example.com", Age: 30})
	req.NoError(err)
	req.True(first.Created)

	second, err := f.uc.RegisterUser(ctx, &entity.RegisterUserRequest{Name: "Other", Email: "ANA@example.com", Age: 40})
	req.NoError(err)
	req.False(second.Created)
	req.Equal(first.ID, second.ID)

	got, err := f.uc.GetUser(ctx, &entity.GetUserRequest{ID: first.ID})
	req.NoError(err)
	req.Equal("Ana", got.User.Name)
}

func TestUserCRUD(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.uc.RegisterUser(ctx, &entity.RegisterUserRequest{Name: "Ana", Email: "ana@example.com", Age: 30})
	req.NoError(err)

	age := 31
	updated, err := f.uc.UpdateUser(ctx, &entity.UpdateUserRequest{ID: created.ID, Age: &age})
	req.NoError(err)
	req.Equal(31, updated.User.Age)
	req.Equal("Ana", updated.User.Name)

	bad := 0
	_, err = f.uc.UpdateUser(ctx, &entity.UpdateUserRequest{ID: created.ID, Age: &bad})
	req.ErrorIs(err, apperr.ErrValidation)

	list, err := f.uc.ListUsers(ctx)
	req.NoError(err)
	req.Len(list.Users, 1)

	req.NoError(f.uc.DeleteUser(ctx, &entity.DeleteUserRequest{ID: created.ID}))
	_, err = f.uc.GetUser(ctx, &entity.GetUserRequest{ID: created.ID})
	req.ErrorIs(err, apperr.ErrNotFound)
	req.ErrorIs(f.uc.DeleteUser(ctx, &entity.DeleteUserRequest{ID: created.ID}), apperr.ErrNotFound)
}
