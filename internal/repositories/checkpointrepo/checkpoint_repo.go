package checkpointrepo

import (
	"context"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type ICheckpointRepository interface {
	// Get returns the stream's checkpoint or (nil, nil) when no backfill has
	// ever completed for it.
	Get(ctx context.Context, streamKey string) (*domain.SyncCheckpoint, error)
	// Advance moves the checkpoint forward to block. Advancement is
	// monotonic: a smaller value than the stored one is a no-op.
	Advance(ctx context.Context, streamKey string, block uint64) error
}
