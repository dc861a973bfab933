package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LoginRequest is the decoded body of POST /login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ValidateLogin checks shape only; credential verification happens against
// the user store afterwards.
func ValidateLogin(req LoginRequest) error {
	return validate.Struct(req)
}
