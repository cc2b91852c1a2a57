package domain

import "time"

// StreamMarketplaceSync is the logical stream covering both the marketplace
// and certificate contracts; they share one checkpoint so a backfill pass
// scans both in the same block window.
const StreamMarketplaceSync = "marketplace_sync"

// SyncCheckpoint is the last block through which a stream's historical
// backfill has been fully and durably applied. LastBlock is monotonically
// non-decreasing.
type SyncCheckpoint struct {
	StreamKey string    `bson:"_id" json:"stream_key"`
	LastBlock uint64    `bson:"last_block" json:"last_block"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
