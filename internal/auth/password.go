package auth

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var errWeakPassword = fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, core.ErrValidation)

// HashPassword derives a bcrypt hash for storage. The plaintext is never
// persisted or logged.
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength || !utf8.ValidString(password) {
		return "", errWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
