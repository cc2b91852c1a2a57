package userrepo

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type IUserRepository interface {
	// GetByID returns the user or (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByWalletAddress resolves a user by linked wallet, matching the
	// stored lowercase address. (nil, nil) when no user has linked it.
	GetByWalletAddress(ctx context.Context, address string) (*domain.User, error)
	// SetChallenge stores the single outstanding challenge, replacing any
	// prior one.
	SetChallenge(ctx context.Context, userID string, challenge *domain.WalletChallenge) error
	// SetWallet writes the proven wallet binding and clears the challenge in
	// one update, so a consumed challenge cannot be replayed.
	SetWallet(ctx context.Context, userID string, wallet *domain.WalletLink) error
}
