package projectrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/database"
)

const collectionName = "projects"

type projectRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IProjectRepository {
	return &projectRepository{
		coll:   db.DB.Collection(collectionName),
		logger: logger,
	}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("project_id", id).Msg("Failed to get project")
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *projectRepository) GetByChainID(ctx context.Context, chainProjectID uint64) (*domain.Project, error) {
	var project domain.Project
	err := r.coll.FindOne(ctx, bson.M{"blockchain.chain_project_id": chainProjectID}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Uint64("chain_project_id", chainProjectID).Msg("Failed to get project by chain id")
		return nil, fmt.Errorf("failed to get project by chain id: %w", err)
	}
	return &project, nil
}

func (r *projectRepository) SetBinding(ctx context.Context, id string, binding *domain.BlockchainBinding) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"blockchain": binding, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		r.logger.Error().Err(err).Str("project_id", id).Msg("Failed to set project binding")
		return fmt.Errorf("failed to set project binding: %w", err)
	}
	return nil
}

func (r *projectRepository) UpdateOnChainState(ctx context.Context, chainProjectID uint64, snapshot *domain.ProjectOnChain, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"blockchain.chain_project_id": chainProjectID},
		bson.M{"$set": bson.M{
			"blockchain.total_credits":  snapshot.TotalCredits,
			"blockchain.sold_credits":   snapshot.SoldCredits,
			"blockchain.price_per_unit": snapshot.PricePerUnit,
			"blockchain.last_sync_at":   at,
			"updated_at":                at,
		}},
	)
	if err != nil {
		r.logger.Error().Err(err).Uint64("chain_project_id", chainProjectID).Msg("Failed to update on-chain state")
		return fmt.Errorf("failed to update on-chain state: %w", err)
	}
	return nil
}

func (r *projectRepository) AppendTransaction(ctx context.Context, chainProjectID uint64, tx domain.ChainTransaction) error {
	// The tx_hash guard in the filter makes the append a server-side
	// add-if-absent; two concurrent appends of the same hash cannot both
	// match.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{
			"blockchain.chain_project_id":     chainProjectID,
			"blockchain.transactions.tx_hash": bson.M{"$ne": tx.TxHash},
		},
		bson.M{"$push": bson.M{"blockchain.transactions": tx}},
	)
	if err != nil {
		r.logger.Error().Err(err).
			Uint64("chain_project_id", chainProjectID).
			Str("tx_hash", tx.TxHash).
			Msg("Failed to append transaction")
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}
