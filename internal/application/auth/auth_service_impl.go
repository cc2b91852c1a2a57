package authservice

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

type AuthService struct {
	config *config.Config
	logger zerolog.Logger
}

func NewAuthService(config *config.Config, logger zerolog.Logger) *AuthService {
	return &AuthService{
		config: config,
		logger: logger,
	}
}

// VerifyToken validates a bearer token issued by the main application and
// returns its claims. Tokens are only verified here, never issued.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error) {
	jwtSecret := s.config.JWT.Secret
	if jwtSecret == "" {
		s.logger.Error().Msg("JWT secret not configured")
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &domain.Claim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}, jwt.WithIssuer(s.config.JWT.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse token")
		return nil, fmt.Errorf("failed to parse token: %v", err)
	}

	claims, ok := token.Claims.(*domain.Claim)
	if !ok || !token.Valid {
		s.logger.Error().Msg("Invalid token")
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token carries no user id")
	}

	return claims, nil
}

func (s *AuthService) VerifyAPIKey(ctx context.Context, apiKey string) error {
	expected := s.config.Security.APIKey
	if expected == "" {
		s.logger.Error().Msg("API key not configured")
		return errors.New("API key auth not configured")
	}
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
		return errors.New("invalid API key")
	}
	return nil
}
