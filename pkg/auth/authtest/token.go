// Package authtest mints access tokens shaped like the auth provider's so
// tests can drive the authenticated API.
package authtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/auth"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
)

// Payload is the data carried by a minted token.
type Payload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}

// MintAccessToken signs an HS256 token issued at now and valid for ttl.
func MintAccessToken(cfg config.AuthConfig, now time.Time, ttl time.Duration, payload Payload) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := auth.AccessTokenClaims{
		Email: payload.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// Token mints a one-hour token for userID and fails the test on error.
func Token(t testing.TB, cfg config.AuthConfig, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := MintAccessToken(cfg, time.Now(), time.Hour, Payload{UserID: userID, Email: email})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
