package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meeting/entity"
	"github.com/xilidan/meetings/services/meeting/storage/badger"
)

func TestDirectory(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	store, err := badger.Open("", gen.Sequence("u"), logger.Discard())
	req.NoError(err)
	defer store.Close()

	now := time.Now().UTC()
	u, err := store.CreateUser(ctx, &entity.User{Name: "Ana", Email: "ana@example.com", Age: 30, CreatedAt: now, UpdatedAt: now})
	req.NoError(err)

	d := New(store)

	got, err := d.ResolveUser(ctx, u.ID)
	req.NoError(err)
	req.Equal("Ana", got.Name)

	got, err = d.ResolveUserByEmail(ctx, "  ANA@example.com ")
	req.NoError(err)
	req.Equal(u.ID, got.ID)

	_, err = d.ResolveUser(ctx, "missing")
	req.ErrorIs(err, apperr.ErrNotFound)

	_, err = d.ResolveUser(ctx, "")
	req.ErrorIs(err, apperr.ErrValidation)
}
