// Package auth implements account registration and login against the users
// worksheet. Hashing is SHA-256 over password+salt with a random hex salt,
// the scheme existing user rows were written with.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/llnuddill/account-book/internal/sheets"
)

var (
	ErrUnknownUser   = errors.New("unknown username")
	ErrWrongPassword = errors.New("wrong password")
	ErrDuplicateUser = errors.New("username already registered")
	ErrEmptyField    = errors.New("username and password are required")
)

// Service handles registration and login through a UserStore port.
type Service struct {
	store sheets.UserStore
}

func NewService(store sheets.UserStore) *Service {
	return &Service{store: store}
}

// Register creates a new account, rejecting duplicate usernames.
func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyField
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.Username == username {
			return fmt.Errorf("%w: %q", ErrDuplicateUser, username)
		}
	}

	hash, salt, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := sheets.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    time.Now().Format("2006-01-02 15:04:05"),
	}
	if err := s.store.AppendUser(ctx, user); err != nil {
		return fmt.Errorf("append user: %w", err)
	}
	return nil
}

// Login verifies credentials. Unknown usernames and wrong passwords are
// distinct errors; the shell decides how much of that to show.
func (s *Service) Login(ctx context.Context, username, password string) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.Username != username {
			continue
		}
		if !Verify(u.PasswordHash, u.Salt, password) {
			return ErrWrongPassword
		}
		return nil
	}
	return ErrUnknownUser
}

// HashPassword hashes a password with a fresh random salt.
func HashPassword(password string) (hash, salt string, err error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(raw)
	return hashWith(password, salt), salt, nil
}

// Verify checks a password against a stored hash and salt.
func Verify(storedHash, salt, password string) bool {
	return storedHash == hashWith(password, salt)
}

func hashWith(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}
