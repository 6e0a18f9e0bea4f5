package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func userKey(id string) string {
	return userPrefix + id
}

func userEmailKey(email string) string {
	return userEmailPrefix + strings.ToLower(email)
}

func (s *Store) CreateUser(ctx context.Context, u *entity.User) (*entity.User, error) {
	stored := *u
	if stored.ID == "" {
		stored.ID = s.ids.Next()
	}

	err := s.update(ctx, "create user", func(txn *badger.Txn) error {
		taken, err := exists(txn, userEmailKey(stored.Email))
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("user with email %s already exists", stored.Email)
		}

		if err := setJSON(txn, userKey(stored.ID), &stored); err != nil {
			return err
		}
		return txn.Set([]byte(userEmailKey(stored.Email)), []byte(stored.ID))
	})
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	var u *entity.User
	err := s.view(ctx, "get user", func(txn *badger.Txn) error {
		var err error
		u, err = loadUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u *entity.User
	err := s.view(ctx, "get user by email", func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailKey(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFound("user with email %s not found", email)
		}
		if err != nil {
			return err
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		u, err = loadUser(txn, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*entity.User, error) {
	users := []*entity.User{}
	err := s.view(ctx, "list users", func(txn *badger.Txn) error {
		return scan(txn, userPrefix, func(val []byte) error {
			var u entity.User
			if err := json.Unmarshal(val, &u); err != nil {
				return err
			}
			users = append(users, &u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd entity.UserUpdate, now time.Time) (*entity.User, error) {
	var u *entity.User
	err := s.update(ctx, "update user", func(txn *badger.Txn) error {
		var err error
		u, err = loadUser(txn, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Age != nil {
			u.Age = *upd.Age
		}
		if upd.PhotoURL != nil {
			u.PhotoURL = upd.PhotoURL
		}
		u.UpdatedAt = now

		return setJSON(txn, userKey(id), u)
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, "delete user", func(txn *badger.Txn) error {
		u, err := loadUser(txn, id)
		if err != nil {
			return err
		}

		if err := txn.Delete([]byte(userKey(id))); err != nil {
			return err
		}
		return txn.Delete([]byte(userEmailKey(u.Email)))
	})
}

func loadUser(txn *badger.Txn, id string) (*entity.User, error) {
	var u entity.User
	if err := getJSON(txn, userKey(id), &u); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, err
	}
	return &u, nil
}
