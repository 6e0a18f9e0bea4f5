package entity

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	PhotoURL  *string   `json:"photoURL,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Profile() *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		Name:     u.Name,
		Age:      u.Age,
		PhotoURL: u.PhotoURL,
	}
}

// UserUpdate holds the user fields to overwrite. Nil fields are kept.
type UserUpdate struct {
	Name     *string
	Age      *int
	PhotoURL *string
}

type (
	RegisterUserRequest struct {
		Name     string  `validate:"required,max=200"`
		Email    string  `validate:"required,email"`
		Age      int     `validate:"min=1,max=100"`
		PhotoURL *string `validate:"omitempty,url"`
	}

	RegisterUserResponse struct {
		ID      string
		Created bool
	}

	GetUserRequest struct {
		ID string `validate:"required"`
	}

	GetUserResponse struct {
		User *User
	}

	ListUsersResponse struct {
		Users []*User
	}

	UpdateUserRequest struct {
		ID       string  `validate:"required"`
		Name     *string `validate:"omitempty,min=1,max=200"`
		Age      *int    `validate:"omitempty,min=1,max=100"`
		PhotoURL *string `validate:"omitempty,url"`
	}

	UpdateUserResponse struct {
		User *User
	}

	DeleteUserRequest struct {
		ID string `validate:"required"`
	}
)
