package services

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Login(username, password string) (Token, error)
	Authenticate(token string) (identity string, err error)
}

type Token string

// AuthService verifies roster credentials and issues session tokens.
// There is no registration: the set of identities is static configuration.
type AuthService struct {
	users  repositories.IUserRepository
	tokens auth.Tokens
}

func NewAuthService(users repositories.IUserRepository, tokens auth.Tokens) IAuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Login(username, password string) (Token, error) {
	req := auth.LoginRequest{Username: username, Password: password}
	if err := auth.ValidateLogin(req); err != nil {
		// Shape failures map to the same generic error as wrong credentials
		// to prevent user enumeration.
		return "", errors.ErrInvalidCredentials
	}

	user, err := s.users.GetUser(username)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(username)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}

// Authenticate resolves a presented token to its identity.
func (s *AuthService) Authenticate(token string) (string, error) {
	return s.tokens.Validate(token)
}
