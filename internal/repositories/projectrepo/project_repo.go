package projectrepo

import (
	"context"
	"time"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type IProjectRepository interface {
	// GetByID returns the project or (nil, nil) when it does not exist.
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// GetByChainID looks a project up by its on-chain id; (nil, nil) when no
	// local project is bound to it.
	GetByChainID(ctx context.Context, chainProjectID uint64) (*domain.Project, error)
	// SetBinding attaches or replaces the project's on-chain binding.
	SetBinding(ctx context.Context, id string, binding *domain.BlockchainBinding) error
	// UpdateOnChainState overwrites the mirrored fields with a freshly read
	// authoritative snapshot and stamps last_sync_at.
	UpdateOnChainState(ctx context.Context, chainProjectID uint64, snapshot *domain.ProjectOnChain, at time.Time) error
	// AppendTransaction appends a transaction record unless one with the
	// same hash is already present. The guard is atomic on the server side.
	AppendTransaction(ctx context.Context, chainProjectID uint64, tx domain.ChainTransaction) error
}
