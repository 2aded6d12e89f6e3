package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	internalauth "kyklos/internal/auth"
	"kyklos/internal/store"
)

const (
	sessionCookieName = "kyklos_session"
	defaultSessionTTL = 24 * time.Hour
)

var errInvalidCredentials = errors.New("invalid credentials")

// AuthService encapsulates signup, login and session resolution.
type AuthService struct {
	store      *store.Store
	sessionTTL time.Duration
}

type authLoginResult struct {
	User      *store.AuthUser
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs an AuthService with the given session TTL.
func NewAuthService(st *store.Store, sessionTTL time.Duration) *AuthService {
	if st == nil {
		return nil
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{store: st, sessionTTL: sessionTTL}
}

// SessionTTL returns the configured session lifetime.
func (a *AuthService) SessionTTL() time.Duration {
	if a == nil || a.sessionTTL <= 0 {
		return defaultSessionTTL
	}
	return a.sessionTTL
}

// Signup registers a new user and opens a session for it.
func (a *AuthService) Signup(ctx context.Context, username, password string, now time.Time) (*authLoginResult, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("auth store is required")
	}

	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequest(err)
	}
	hash, err := internalauth.HashPassword(password)
	if err != nil {
		return nil, badRequest(err)
	}

	user, err := a.store.CreateUser(ctx, normalized, hash, "member", now)
	if err != nil {
		if isUniqueConstraint(err) {
			return nil, conflictCode(fmt.Errorf("username already taken"), ErrCodeUsernameExists)
		}
		return nil, err
	}

	return a.openSession(ctx, user, now)
}

// Login verifies credentials and opens a session.
func (a *AuthService) Login(ctx context.Context, username, password string, now time.Time) (*authLoginResult, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("auth store is required")
	}

	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequest(err)
	}
	if strings.TrimSpace(password) == "" {
		return nil, badRequest(fmt.Errorf("password is required"))
	}

	user, err := a.store.GetUserByUsername(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Disabled || !internalauth.VerifyPassword(user.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	return a.openSession(ctx, user, now)
}

// AuthenticateSessionToken resolves a session token into its user, or
// nil when the session is missing, expired or revoked.
func (a *AuthService) AuthenticateSessionToken(ctx context.Context, token string, now time.Time) (*store.AuthUser, error) {
	if a == nil || a.store == nil {
		return nil, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return a.store.GetUserBySessionTokenHash(ctx, hashSessionToken(token), now)
}

// RevokeSessionToken invalidates one session token.
func (a *AuthService) RevokeSessionToken(ctx context.Context, token string, now time.Time) error {
	if a == nil || a.store == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return a.store.RevokeSessionByTokenHash(ctx, hashSessionToken(token), now)
}

func (a *AuthService) openSession(ctx context.Context, user *store.AuthUser, now time.Time) (*authLoginResult, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(a.SessionTTL())
	if err := a.store.CreateSession(ctx, user.ID, hashSessionToken(token), expiresAt, now); err != nil {
		return nil, err
	}
	return &authLoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
