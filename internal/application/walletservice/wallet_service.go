package walletservice

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type IWalletService interface {
	// IssueChallenge creates a fresh challenge for the user, replacing any
	// outstanding one.
	IssueChallenge(ctx context.Context, userID string) (*domain.WalletChallenge, error)
	// LinkWallet verifies the signed challenge and binds the wallet to the
	// user. The challenge is consumed on success.
	LinkWallet(ctx context.Context, userID, address, signature, nonce string) (*domain.WalletLink, error)
}
