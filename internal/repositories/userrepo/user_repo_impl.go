package userrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/database"
)

const collectionName = "users"

type userRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IUserRepository {
	coll := db.DB.Collection(collectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "wallet.address", Value: 1}},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure wallet address index")
	}

	return &userRepository{
		coll:   coll,
		logger: logger,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id).Msg("Failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"wallet.address": strings.ToLower(address)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address", address).Msg("Failed to get user by wallet")
		return nil, fmt.Errorf("failed to get user by wallet: %w", err)
	}
	return &user, nil
}

func (r *userRepository) SetChallenge(ctx context.Context, userID string, challenge *domain.WalletChallenge) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"wallet_challenge": challenge}},
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to set wallet challenge")
		return fmt.Errorf("failed to set wallet challenge: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NewValidationError("user %s not found", userID)
	}
	return nil
}

func (r *userRepository) SetWallet(ctx context.Context, userID string, wallet *domain.WalletLink) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":   bson.M{"wallet": wallet},
			"$unset": bson.M{"wallet_challenge": ""},
		},
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to set wallet")
		return fmt.Errorf("failed to set wallet: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NewValidationError("user %s not found", userID)
	}
	return nil
}
