//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/errors"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	SeedUser(username, passwordHash string) error
	GetUser(username string) (User, error)
}

// UserRepository is the credential store backing the login endpoint. The
// roster is seeded into it at boot with already-hashed passwords.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// SeedUser stores the user unless it already exists; reseeding on restart
// must not overwrite anything.
func (u *UserRepository) SeedUser(username, passwordHash string) error {
	value, err := json.Marshal(User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return nil
		}
		return txn.Set(userKey(username), value)
	})
}

// GetUser fetches one user by name. A missing user surfaces as
// ErrInvalidCredentials so the login path cannot enumerate accounts.
func (u *UserRepository) GetUser(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
