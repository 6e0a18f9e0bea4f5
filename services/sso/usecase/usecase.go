package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/validate"
	"github.com/xilidan/meetings/services/sso/entity"
	"github.com/xilidan/meetings/services/sso/storage"
	"golang.org/x/crypto/bcrypt"
)

type usecase struct {
	cfg     *config.Config
	Storage storage.AccountStorage
	now     func() time.Time
}

// Usecase issues bearer tokens for accounts and verifies them.
type Usecase interface {
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error)
	Verify(ctx context.Context, token string) (*entity.Identity, error)
}

func New(cfg *config.Config, storage storage.AccountStorage) Usecase {
	return &usecase{
		cfg:     cfg,
		Storage: storage,
		now:     time.Now,
	}
}

func (u *usecase) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	account, err := u.Storage.GetAccountByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		logger.FromContext(ctx).Debug("password mismatch", slog.String("account_id", account.ID))
		return nil, apperr.Unauthorized("invalid email or password")
	}

	token, err := jwt.Generate(account.ID, account.Email, u.cfg.JWTSecret, u.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &entity.LoginResponse{
		AccountID: account.ID,
		Token:     token,
	}, nil
}

func (u *usecase) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account, err := u.Storage.CreateAccount(ctx, &entity.Account{
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(passwordHash),
		CreatedAt:    u.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("account registered", slog.String("account_id", account.ID))

	token, err := jwt.Generate(account.ID, account.Email, u.cfg.JWTSecret, u.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &entity.RegisterResponse{
		AccountID: account.ID,
		Token:     token,
	}, nil
}

// Verify resolves a bearer token to the caller identity. It does not touch
// the store: a token stays valid until it expires.
func (u *usecase) Verify(ctx context.Context, token string) (*entity.Identity, error) {
	claims, err := jwt.Parse(token, u.cfg.JWTSecret)
	if err != nil {
		return nil, apperr.Unauthorized("%v", err)
	}

	return &entity.Identity{
		AccountID: claims.Subject,
		Email:     claims.Email,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
