package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var (
	errBadEmail    = fmt.Errorf("invalid email address: %w", core.ErrValidation)
	errBadUsername = fmt.Errorf("username must not be empty: %w", core.ErrValidation)
)

// Service handles registration and login against the user store.
type Service struct {
	store  *storage.Repository
	tokens *TokenManager
}

func NewService(store *storage.Repository, tokens *TokenManager) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register creates a user with a hashed password. Duplicate emails surface
// as storage.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, email, username, password string) (core.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, errBadEmail
	}
	if username == "" {
		return core.User{}, errBadUsername
	}
	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.store.CreateUser(ctx, core.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return core.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and returns a session token. Unknown email
// and wrong password are indistinguishable to the caller; store outages
// propagate as-is so an unavailable ledger is never mistaken for bad
// credentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.User{}, fmt.Errorf("invalid credentials: %w", core.ErrUnauthorized)
		}
		return "", core.User{}, fmt.Errorf("login lookup: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", core.User{}, fmt.Errorf("invalid credentials: %w", core.ErrUnauthorized)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", core.User{}, fmt.Errorf("generate token: %w", err)
	}
	user.PasswordHash = ""
	return token, user, nil
}
