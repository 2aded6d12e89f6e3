// Package auth holds username canonicalization and password hashing
// shared by the signup, login, and admin surfaces.
package auth

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 32
)

// Usernames are lowercase alphanumerics with inner dots, underscores,
// or hyphens; first and last character must be alphanumeric.
var usernamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?$`)

// NormalizeUsername trims and lowercases raw and verifies the result is
// a storable username. Lookups and the unique index use the normalized
// form, so callers must never persist the raw input.
func NormalizeUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case username == "":
		return "", fmt.Errorf("username is required")
	case len(username) > maxUsernameLength:
		return "", fmt.Errorf("username too long")
	case !usernamePattern.MatchString(username):
		return "", fmt.Errorf("invalid username")
	}
	return username, nil
}

// ValidatePassword enforces the minimum length. No other composition
// rules apply.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// HashPassword validates and bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether candidate matches the stored bcrypt
// hash. An empty or blank hash never matches.
func VerifyPassword(passwordHash, candidate string) bool {
	if strings.TrimSpace(passwordHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}
