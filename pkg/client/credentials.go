package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialProvider supplies the bearer token attached to every request.
// GetToken returns an empty string when no credential is stored.
type CredentialProvider interface {
	GetToken() (string, error)
	SetToken(token string) error
}

// StaticCredentials keeps the token in memory for the lifetime of the process.
type StaticCredentials struct {
	mu    sync.RWMutex
	token string
}

// NewStaticCredentials returns an in-memory provider seeded with token.
func NewStaticCredentials(token string) *StaticCredentials {
	return &StaticCredentials{token: token}
}

// GetToken returns the stored token
func (s *StaticCredentials) GetToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// SetToken replaces the stored token
func (s *StaticCredentials) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// bearerToken reads a usable token from the provider or fails with ErrAuth.
func bearerToken(p CredentialProvider, now time.Time) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: no credential provider configured", ErrAuth)
	}
	token, err := p.GetToken()
	if err != nil {
		return "", fmt.Errorf("%w: reading credentials: %w", ErrAuth, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: no token stored", ErrAuth)
	}
	if tokenExpired(token, now) {
		return "", fmt.Errorf("%w: token expired", ErrAuth)
	}
	return token, nil
}

// tokenExpired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens are never considered expired; the backend decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
