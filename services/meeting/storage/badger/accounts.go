package badger

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/xilidan/meetings/pkg/apperr"
	ssoentity "github.com/xilidan/meetings/services/sso/entity"
)

func accountKey(id string) string {
	return accountPrefix + id
}

func accountEmailKey(email string) string {
	return accountEmailPrefix + strings.ToLower(email)
}

func (s *Store) CreateAccount(ctx context.Context, account *ssoentity.Account) (*ssoentity.Account, error) {
	stored := *account
	if stored.ID == "" {
		stored.ID = s.ids.Next()
	}

	err := s.update(ctx, "create account", func(txn *badger.Txn) error {
		taken, err := exists(txn, accountEmailKey(stored.Email))
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("account %s already exists", stored.Email)
		}

		if err := setJSON(txn, accountKey(stored.ID), &stored); err != nil {
			return err
		}
		return txn.Set([]byte(accountEmailKey(stored.Email)), []byte(stored.ID))
	})
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*ssoentity.Account, error) {
	var account ssoentity.Account
	err := s.view(ctx, "get account", func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(accountEmailKey(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFound("account %s not found", email)
		}
		if err != nil {
			return err
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, accountKey(string(id)), &account)
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}
