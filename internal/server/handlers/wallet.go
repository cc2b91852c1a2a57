package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/walletservice"
)

type WalletHandler struct {
	walletSvc walletservice.IWalletService
	logger    zerolog.Logger
}

func NewWalletHandler(walletSvc walletservice.IWalletService, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		walletSvc: walletSvc,
		logger:    logger,
	}
}

func (h *WalletHandler) IssueChallenge(c *gin.Context) {
	userID := c.GetString("user_id")

	challenge, err := h.walletSvc.IssueChallenge(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to issue wallet challenge")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":   challenge.Nonce,
		"message": challenge.Message,
	})
}

type linkWalletRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Nonce     string `json:"nonce" binding:"required"`
}

func (h *WalletHandler) LinkWallet(c *gin.Context) {
	userID := c.GetString("user_id")

	var req linkWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.walletSvc.LinkWallet(c.Request.Context(), userID, req.Address, req.Signature, req.Nonce)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Str("address", req.Address).Msg("Wallet link rejected")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}
