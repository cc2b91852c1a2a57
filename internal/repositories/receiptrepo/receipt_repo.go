package receiptrepo

import (
	"context"
	"errors"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

// ErrDuplicateReceipt is returned by Create when the receipt id has already
// been seen; the caller loads and returns the winner.
var ErrDuplicateReceipt = errors.New("receipt id already exists")

type IReceiptRepository interface {
	// GetByReceiptID returns the receipt or (nil, nil) when absent.
	GetByReceiptID(ctx context.Context, receiptID string) (*domain.FiatReceipt, error)
	// Create inserts a new receipt; a duplicate receipt id yields
	// ErrDuplicateReceipt.
	Create(ctx context.Context, receipt *domain.FiatReceipt) error
	MarkOnChain(ctx context.Context, receiptID, txHash string) error
	MarkError(ctx context.Context, receiptID, reason string) error
}
