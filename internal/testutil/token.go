package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSecret signs tokens minted by MintToken
const TokenSecret = "darkwatch-test-secret"

// TokenClaims mirror the platform's access token payload
type TokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// MintToken signs an HS256 access token for subject that expires after ttl.
// A negative ttl yields an already expired token.
func MintToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	s, err := tok.SignedString([]byte(TokenSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}
