package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

type DBManager struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func New(cfg *config.DatabaseConfig) (*DBManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &DBManager{
		Client: client,
		DB:     client.Database(cfg.Name),
	}, nil
}

func (dm *DBManager) ShutDown() {
	if dm.Client != nil {
		_ = dm.Client.Disconnect(context.Background())
	}
}
