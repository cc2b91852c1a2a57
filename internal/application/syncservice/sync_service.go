package syncservice

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type ISyncService interface {
	// Apply reconciles one decoded ledger event into the off-chain store.
	// It is idempotent and safe to call out of order; both the live listener
	// and the backfill engine go through it.
	Apply(ctx context.Context, ev domain.LedgerEvent) error
	// SyncProjectNow forces an authoritative re-read of the on-chain record
	// and writes it back, bypassing event-driven updates.
	SyncProjectNow(ctx context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error)
	// GetProjectOnChain reads the on-chain record without touching the store.
	GetProjectOnChain(ctx context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error)
	// RegisterProject registers the off-chain project on the marketplace and
	// binds it to the ledger-assigned id.
	RegisterProject(ctx context.Context, projectID string, totalCredits int64, pricePerUnit, baseURI string) (*domain.BlockchainBinding, error)
	// SetAutoRetireBps updates the marketplace retirement basis points;
	// chainProjectID 0 targets the global default.
	SetAutoRetireBps(ctx context.Context, chainProjectID uint64, bps int64) (string, error)
	ListCertificatesByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Certificate, error)
}

// LedgerClient is the slice of the ledger gateway the sync service uses.
type LedgerClient interface {
	GetProject(ctx context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error)
	RegisterProject(ctx context.Context, totalCredits int64, pricePerUnit, baseURI string) (uint64, string, error)
	SetAutoRetireBps(ctx context.Context, chainProjectID uint64, bps int64) (string, error)
}

// EventFeed receives successfully applied events; the websocket hub
// implements it. A nil feed disables publication.
type EventFeed interface {
	BroadcastEvent(ev domain.LedgerEvent)
}
