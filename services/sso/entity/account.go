package entity

import "time"

type (
	// Account is a sign-in credential. The meeting service's user profiles
	// are linked to it by email.
	Account struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Identity is what a verified bearer token resolves to.
	Identity struct {
		AccountID string
		Email     string
	}
)
