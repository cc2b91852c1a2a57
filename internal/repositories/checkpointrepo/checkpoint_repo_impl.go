package checkpointrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/database"
)

const collectionName = "sync_checkpoints"

type checkpointRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ICheckpointRepository {
	return &checkpointRepository{
		coll:   db.DB.Collection(collectionName),
		logger: logger,
	}
}

func (r *checkpointRepository) Get(ctx context.Context, streamKey string) (*domain.SyncCheckpoint, error) {
	var cp domain.SyncCheckpoint
	err := r.coll.FindOne(ctx, bson.M{"_id": streamKey}).Decode(&cp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("stream_key", streamKey).Msg("Failed to get checkpoint")
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return &cp, nil
}

func (r *checkpointRepository) Advance(ctx context.Context, streamKey string, block uint64) error {
	// $max keeps last_block monotonically non-decreasing even under a
	// concurrent writer.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": streamKey},
		bson.M{
			"$max": bson.M{"last_block": block},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("stream_key", streamKey).
			Uint64("block", block).
			Msg("Failed to advance checkpoint")
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}
	return nil
}
