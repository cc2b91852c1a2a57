package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authservice "github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/auth"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/grantservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/syncservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/walletservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/server/middleware"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/server/websocket"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

type Handlers struct {
	SyncSvc   syncservice.ISyncService
	WalletSvc walletservice.IWalletService
	GrantSvc  grantservice.IGrantService
	AuthSvc   authservice.IAuthService
	Logger    zerolog.Logger
	Config    *config.Config
	WsHub     *websocket.WsHub
}

func New(
	syncSvc syncservice.ISyncService,
	walletSvc walletservice.IWalletService,
	grantSvc grantservice.IGrantService,
	authSvc authservice.IAuthService,
	logger zerolog.Logger,
	config *config.Config,
	wsHub *websocket.WsHub,
) *Handlers {
	return &Handlers{
		SyncSvc:   syncSvc,
		WalletSvc: walletSvc,
		GrantSvc:  grantSvc,
		AuthSvc:   authSvc,
		Logger:    logger,
		Config:    config,
		WsHub:     wsHub,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	mw := middleware.NewMiddleware(h.AuthSvc, h.Logger)
	mw.SetupMiddleware(router)

	walletHandler := NewWalletHandler(h.WalletSvc, h.Logger)
	projectHandler := NewProjectHandler(h.SyncSvc, h.Logger)
	grantHandler := NewGrantHandler(h.GrantSvc, h.Logger)
	wsHandler := NewWebSocketHandler(h.WsHub, h.Config.WebSocket, h.Logger)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Operator event feed
	router.GET("/events", mw.AuthMiddleware(), wsHandler.HandleConnection)

	v1 := router.Group("/v1")
	{
		wallet := v1.Group("/wallet", mw.AuthMiddleware())
		{
			wallet.POST("/challenge", walletHandler.IssueChallenge)
			wallet.POST("/link", walletHandler.LinkWallet)
		}

		projects := v1.Group("/projects")
		{
			projects.GET("/:chain_id/onchain", projectHandler.GetOnChain)
			projects.POST("/:chain_id/sync", mw.APIKeyMiddleware(), projectHandler.SyncNow)
			projects.POST("/register", mw.APIKeyMiddleware(), projectHandler.Register)
		}

		v1.POST("/marketplace/retire-bps", mw.APIKeyMiddleware(), projectHandler.SetRetireBps)

		grants := v1.Group("/grants", mw.APIKeyMiddleware())
		{
			grants.POST("/fiat", grantHandler.GrantFiat)
			grants.GET("/fiat/:receipt_id", grantHandler.GetReceipt)
		}

		v1.GET("/certificates", projectHandler.ListCertificates)
	}
}

// respondError maps the error taxonomy onto status codes: validation
// failures are the caller's fault, configuration gaps mean the capability is
// unavailable, everything else is internal.
func respondError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
		return
	}
	var configErr *domain.ConfigError
	if errors.As(err, &configErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": configErr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
