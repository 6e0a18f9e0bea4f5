package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/services/meeting/entity"
)

const userColumns = `id, name, email, age, photo_url, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *entity.User) (*entity.User, error) {
	stored := *u
	if stored.ID == "" {
		stored.ID = s.ids.Next()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stored.ID,
		stored.Name,
		stored.Email,
		stored.Age,
		stored.PhotoURL,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr("create user", err)
	}

	return &stored, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return nil, mapErr("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user with email %s not found", email)
	}
	if err != nil {
		return nil, mapErr("get user by email", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*entity.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list users", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd entity.UserUpdate, now time.Time) (*entity.User, error) {
	row := s.db.QueryRowContext(ctx, `
UPDATE users
SET name = COALESCE($2, name),
	age = COALESCE($3, age),
	photo_url = COALESCE($4, photo_url),
	updated_at = $5
WHERE id = $1
RETURNING `+userColumns, id, upd.Name, upd.Age, upd.PhotoURL, now)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return nil, mapErr("update user", err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete user", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("delete user", err)
	}
	if n == 0 {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

func scanUser(row scanner) (*entity.User, error) {
	var (
		u        entity.User
		photoURL sql.NullString
	)

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &photoURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if photoURL.Valid {
		u.PhotoURL = &photoURL.String
	}
	return &u, nil
}
