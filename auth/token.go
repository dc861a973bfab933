package auth

import (
	"chat-relay/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried inside a session token. Identity is the
// roster username the token authenticates.
type Claims struct {
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

// Tokens issues and validates the opaque session tokens returned by login.
// The signing key comes from configuration, never from source.
type Tokens struct {
	key []byte
	ttl time.Duration
}

func NewTokens(secret string, ttl time.Duration) Tokens {
	return Tokens{key: []byte(secret), ttl: ttl}
}

// Generate signs a token for the identity, valid for the configured TTL.
func (t Tokens) Generate(identity string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chat-relay",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the authenticated
// identity.
func (t Tokens) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Identity == "" {
		return "", errors.ErrInvalidToken
	}
	return claims.Identity, nil
}
