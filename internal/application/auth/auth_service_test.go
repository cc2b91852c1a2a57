package authservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

func testService() *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "greencommunity"
	cfg.Security.APIKey = "svc-key-123"
	return NewAuthService(cfg, zerolog.Nop())
}

func issueToken(t *testing.T, secret, issuer, userID string, expiresIn time.Duration) string {
	t.Helper()
	claims := &domain.Claim{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyTokenValid(t *testing.T) {
	svc := testService()
	token := issueToken(t, "test-secret", "greencommunity", "user-1", time.Hour)

	claims, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestVerifyTokenRejections(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
	}{
		{"wrong secret", issueToken(t, "other-secret", "greencommunity", "user-1", time.Hour)},
		{"wrong issuer", issueToken(t, "test-secret", "someone-else", "user-1", time.Hour)},
		{"expired", issueToken(t, "test-secret", "greencommunity", "user-1", -time.Minute)},
		{"empty user id", issueToken(t, "test-secret", "greencommunity", "", time.Hour)},
		{"garbage", "not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.VerifyToken(ctx, tc.token)
			require.Error(t, err)
		})
	}
}

func TestVerifyAPIKey(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	require.NoError(t, svc.VerifyAPIKey(ctx, "svc-key-123"))
	require.Error(t, svc.VerifyAPIKey(ctx, "wrong"))
	require.Error(t, svc.VerifyAPIKey(ctx, ""))
}

func TestVerifyAPIKeyUnconfigured(t *testing.T) {
	cfg := &config.Config{}
	svc := NewAuthService(cfg, zerolog.Nop())
	require.Error(t, svc.VerifyAPIKey(context.Background(), ""), "an unset key must not accept the empty string")
}
