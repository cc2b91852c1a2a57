package main

import (
	"context"

	authservice "github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/auth"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/backfill"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/grantservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/listener"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/syncservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/walletservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/database"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/ledger"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/pinning"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/certificaterepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/checkpointrepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/projectrepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/receiptrepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/userrepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/server"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/server/websocket"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/logger"
)

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	gateway, err := ledger.NewGateway(&cfg.Ledger, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create ledger gateway")
	}

	projectRepo := projectrepo.New(db, logger)
	certRepo := certificaterepo.New(db, logger)
	checkpointRepo := checkpointrepo.New(db, logger)
	receiptRepo := receiptrepo.New(db, logger)
	userRepo := userrepo.New(db, logger)

	wsHub := websocket.NewWsHub(logger)
	go wsHub.Run()

	pinner := pinning.NewLocalPinner(logger)

	syncSvc := syncservice.New(projectRepo, certRepo, userRepo, gateway, wsHub, logger)
	walletSvc := walletservice.New(userRepo, cfg.Ledger.ChainName, cfg.Wallet.ChallengeTTL, logger)
	grantSvc := grantservice.New(receiptRepo, projectRepo, gateway, pinner, wsHub, logger)
	authSvc := authservice.NewAuthService(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := listener.New(gateway, syncSvc, cfg.Sync.EventBuffer, logger)
	live.Start(ctx)

	engine := backfill.New(gateway, syncSvc, checkpointRepo,
		cfg.Sync.BatchSize, cfg.Sync.DefaultWindow, cfg.Sync.Interval, logger)
	go engine.Run(ctx)

	srv := server.New(cfg, syncSvc, walletSvc, grantSvc, authSvc, logger, wsHub)
	srv.Start()
}
