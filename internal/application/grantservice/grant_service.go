package grantservice

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type IGrantService interface {
	// Grant runs the idempotent fiat grant workflow: a receipt id that has
	// been seen before is returned unchanged without another ledger call.
	Grant(ctx context.Context, req *domain.GrantRequest) (*domain.FiatReceipt, error)
	// GetReceipt returns the receipt or (nil, nil) when absent.
	GetReceipt(ctx context.Context, receiptID string) (*domain.FiatReceipt, error)
}

// CreditGranter is the slice of the ledger gateway the workflow submits
// through.
type CreditGranter interface {
	GrantFiatCredits(ctx context.Context, chainProjectID uint64, to string, amount int64, retire bool, certURI string) (string, error)
}

// ReceiptFeed receives receipt status changes; the websocket hub implements
// it. A nil feed disables publication.
type ReceiptFeed interface {
	BroadcastReceipt(receipt domain.FiatReceipt)
}
