package receiptrepo

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

const collectionName = "fiat_receipts"

type receiptRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IReceiptRepository {
	coll := db.DB.Collection(collectionName)

	// The unique index is what makes the receipt id an idempotency key; the
	// insert race between two identical requests is decided by the server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "receipt_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure receipt_id index")
	}

	return &receiptRepository{
		coll:   coll,
		logger: logger,
	}
}

func (r *receiptRepository) GetByReceiptID(ctx context.Context, receiptID string) (*domain.FiatReceipt, error) {
	var receipt domain.FiatReceipt
	err := r.coll.FindOne(ctx, bson.M{"receipt_id": receiptID}).Decode(&receipt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("receipt_id", receiptID).Msg("Failed to get receipt")
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (r *receiptRepository) Create(ctx context.Context, receipt *domain.FiatReceipt) error {
	_, err := r.coll.InsertOne(ctx, receipt)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReceipt
		}
		r.logger.Error().Err(err).Str("receipt_id", receipt.ReceiptID).Msg("Failed to create receipt")
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

func (r *receiptRepository) MarkOnChain(ctx context.Context, receiptID, txHash string) error {
	return r.setStatus(ctx, receiptID, bson.M{
		"status":     domain.ReceiptStatusOnChain,
		"tx_hash":    txHash,
		"updated_at": time.Now().UTC(),
	})
}

func (r *receiptRepository) MarkError(ctx context.Context, receiptID, reason string) error {
	return r.setStatus(ctx, receiptID, bson.M{
		"status":     domain.ReceiptStatusError,
		"error":      reason,
		"updated_at": time.Now().UTC(),
	})
}

func (r *receiptRepository) setStatus(ctx context.Context, receiptID string, fields bson.M) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"receipt_id": receiptID}, bson.M{"$set": fields})
	if err != nil {
		r.logger.Error().Err(err).Str("receipt_id", receiptID).Msg("Failed to update receipt status")
		return fmt.Errorf("failed to update receipt status: %w", err)
	}
	return nil
}
