package auth

import (
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokens_Generate_Then_Validate(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("unit-test-secret", time.Hour)

	// When
	signed, err := tokens.Generate("alice")
	req.NoError(err)
	req.NotEmpty(signed)

	// Then the token resolves back to the identity
	identity, err := tokens.Validate(signed)
	req.NoError(err)
	req.Equal("alice", identity)
}

func TestTokens_Validate_Rejects_Foreign_Signature(t *testing.T) {
	req := require.New(t)
	issuer := NewTokens("secret-a", time.Hour)
	verifier := NewTokens("secret-b", time.Hour)

	signed, err := issuer.Generate("alice")
	req.NoError(err)

	_, err = verifier.Validate(signed)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestTokens_Validate_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("unit-test-secret", -time.Minute)

	signed, err := tokens.Generate("alice")
	req.NoError(err)

	_, err = tokens.Validate(signed)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestTokens_Validate_Rejects_Unexpected_Signing_Method(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("unit-test-secret", time.Hour)

	// Given a well-formed token signed with the right key but another method
	claims := &Claims{
		Identity: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "chat-relay",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("unit-test-secret"))
	req.NoError(err)

	// Then validation refuses it: only HS256 is accepted
	_, err = tokens.Validate(signed)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestTokens_Validate_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("unit-test-secret", time.Hour)

	_, err := tokens.Validate("not.a.token")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestPassword_Hash_Then_Compare(t *testing.T) {
	req := require.New(t)

	encoded, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.Contains(encoded, "$argon2id$")

	match, err := ComparePassword("correct horse battery staple", encoded)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong password", encoded)
	req.NoError(err)
	req.False(match)
}

func TestPassword_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("same input")
	req.NoError(err)
	second, err := HashPassword("same input")
	req.NoError(err)

	// Different salts, both still verify
	req.NotEqual(first, second)
	match, err := ComparePassword("same input", second)
	req.NoError(err)
	req.True(match)
}

func TestPassword_Compare_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("anything", "plainly-not-a-hash")
	req.Error(err)
}

func TestValidateLogin_Enforces_Field_Bounds(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateLogin(LoginRequest{Username: "alice", Password: "password1"}))
	req.Error(ValidateLogin(LoginRequest{Username: "a", Password: "password1"}))
	req.Error(ValidateLogin(LoginRequest{Username: "alice", Password: "short"}))
	req.Error(ValidateLogin(LoginRequest{Username: "", Password: ""}))
}
