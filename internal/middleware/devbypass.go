package middleware

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"thumbnail-editor-backend/internal/config"
)

// DevUserID is the synthetic user behind the development sign-in bypass.
var DevUserID = uuid.MustParse("00000000-0000-4000-8000-000000000123")

const DevUserEmail = "test@designreview.dev"

// DevBypassEnabled reports whether the sign-in bypass may be served: the
// binary was built with the devbypass tag and runs in development.
func DevBypassEnabled(cfg *config.Config) bool {
	return devBypassCompiled && cfg.IsDevelopment()
}

// IssueDevToken signs an access token for the synthetic user with the same
// secret AuthMiddleware verifies against.
func IssueDevToken(secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Email: DevUserEmail,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   DevUserID.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "dev-bypass",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign dev token: %w", err)
	}
	return signed, expiresAt, nil
}
