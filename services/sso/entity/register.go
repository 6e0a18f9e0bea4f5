package entity

type (
	RegisterRequest struct {
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required,min=8,max=72"`
		PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	}

	RegisterResponse struct {
		AccountID string
		Token     string
	}
)
