package certificaterepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/database"
)

const collectionName = "certificates"

type certificateRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ICertificateRepository {
	coll := db.DB.Collection(collectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure certificate token_id index")
	}

	return &certificateRepository{
		coll:   coll,
		logger: logger,
	}
}

func (r *certificateRepository) Upsert(ctx context.Context, cert *domain.Certificate) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"token_id": cert.TokenID},
		bson.M{"$set": bson.M{
			"chain_project_id": cert.ChainProjectID,
			"owner":            strings.ToLower(cert.Owner),
			"amount":           cert.Amount,
			"uri":              cert.URI,
			"tx_hash":          cert.TxHash,
			"minted_at":        cert.MintedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error().Err(err).Uint64("token_id", cert.TokenID).Msg("Failed to upsert certificate")
		return fmt.Errorf("failed to upsert certificate: %w", err)
	}
	return nil
}

func (r *certificateRepository) GetByTokenID(ctx context.Context, tokenID uint64) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.coll.FindOne(ctx, bson.M{"token_id": tokenID}).Decode(&cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Failed to get certificate")
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &cert, nil
}

func (r *certificateRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Certificate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "token_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, bson.M{"owner": strings.ToLower(owner)}, opts)
	if err != nil {
		r.logger.Error().Err(err).Str("owner", owner).Msg("Failed to list certificates")
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer cursor.Close(ctx)

	var certificates []*domain.Certificate
	if err := cursor.All(ctx, &certificates); err != nil {
		return nil, fmt.Errorf("failed to decode certificates: %w", err)
	}
	return certificates, nil
}
