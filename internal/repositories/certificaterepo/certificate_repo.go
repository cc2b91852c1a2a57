package certificaterepo

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type ICertificateRepository interface {
	// Upsert writes the certificate keyed by token id; applying the same
	// mint twice leaves exactly one document.
	Upsert(ctx context.Context, cert *domain.Certificate) error
	// GetByTokenID returns the certificate or (nil, nil) when absent.
	GetByTokenID(ctx context.Context, tokenID uint64) (*domain.Certificate, error)
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Certificate, error)
}
