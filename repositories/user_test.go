package repositories

import (
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Seed_And_Get(t *testing.T) {
	req := require.New(t)
	users := NewUserRepository(openTestDB(t))

	// When
	req.NoError(users.SeedUser("alice", "hash-1"))

	// Then
	user, err := users.GetUser("alice")
	req.NoError(err)
	req.Equal("alice", user.Username)
	req.Equal("hash-1", user.PasswordHash)
	req.False(user.CreatedAt.IsZero())
}

func TestUserRepository_Seed_Never_Overwrites(t *testing.T) {
	req := require.New(t)
	users := NewUserRepository(openTestDB(t))
	req.NoError(users.SeedUser("alice", "hash-1"))

	// When reseeding with a different hash, as a restart would
	req.NoError(users.SeedUser("alice", "hash-2"))

	// Then the original credential stands
	user, err := users.GetUser("alice")
	req.NoError(err)
	req.Equal("hash-1", user.PasswordHash)
}

func TestUserRepository_Missing_User_Maps_To_Invalid_Credentials(t *testing.T) {
	req := require.New(t)
	users := NewUserRepository(openTestDB(t))

	_, err := users.GetUser("nobody")

	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
