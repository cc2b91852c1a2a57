package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/grantservice"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type GrantHandler struct {
	grantSvc grantservice.IGrantService
	logger   zerolog.Logger
}

func NewGrantHandler(grantSvc grantservice.IGrantService, logger zerolog.Logger) *GrantHandler {
	return &GrantHandler{
		grantSvc: grantSvc,
		logger:   logger,
	}
}

func (h *GrantHandler) GrantFiat(c *gin.Context) {
	var req domain.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.grantSvc.Grant(c.Request.Context(), &req)
	if err != nil {
		if receipt != nil {
			// The ledger call failed after the receipt was persisted; the
			// terminal error status is part of the response.
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "receipt": receipt})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (h *GrantHandler) GetReceipt(c *gin.Context) {
	receiptID := c.Param("receipt_id")

	receipt, err := h.grantSvc.GetReceipt(c.Request.Context(), receiptID)
	if err != nil {
		respondError(c, err)
		return
	}
	if receipt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
		return
	}
	c.JSON(http.StatusOK, receipt)
}
