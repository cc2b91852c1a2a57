package authservice

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type IAuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error)
	VerifyAPIKey(ctx context.Context, apiKey string) error
}
