package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/application/syncservice"
)

type ProjectHandler struct {
	syncSvc syncservice.ISyncService
	logger  zerolog.Logger
}

func NewProjectHandler(syncSvc syncservice.ISyncService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		syncSvc: syncSvc,
		logger:  logger,
	}
}

func (h *ProjectHandler) chainProjectID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("chain_id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chain project id"})
		return 0, false
	}
	return id, true
}

func (h *ProjectHandler) GetOnChain(c *gin.Context) {
	id, ok := h.chainProjectID(c)
	if !ok {
		return
	}

	snapshot, err := h.syncSvc.GetProjectOnChain(c.Request.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Uint64("chain_project_id", id).Msg("Failed to read on-chain project")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *ProjectHandler) SyncNow(c *gin.Context) {
	id, ok := h.chainProjectID(c)
	if !ok {
		return
	}

	snapshot, err := h.syncSvc.SyncProjectNow(c.Request.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Uint64("chain_project_id", id).Msg("Forced project sync failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

type registerProjectRequest struct {
	ProjectID    string `json:"project_id" binding:"required"`
	TotalCredits int64  `json:"total_credits" binding:"required,gt=0"`
	PricePerUnit string `json:"price_per_unit" binding:"required"`
	BaseURI      string `json:"base_uri"`
}

func (h *ProjectHandler) Register(c *gin.Context) {
	var req registerProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	binding, err := h.syncSvc.RegisterProject(c.Request.Context(), req.ProjectID, req.TotalCredits, req.PricePerUnit, req.BaseURI)
	if err != nil {
		h.logger.Error().Err(err).Str("project_id", req.ProjectID).Msg("Project registration failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, binding)
}

type retireBpsRequest struct {
	ChainProjectID uint64 `json:"chain_project_id"`
	Bps            int64  `json:"bps" binding:"gte=0,lte=10000"`
}

func (h *ProjectHandler) SetRetireBps(c *gin.Context) {
	var req retireBpsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txHash, err := h.syncSvc.SetAutoRetireBps(c.Request.Context(), req.ChainProjectID, req.Bps)
	if err != nil {
		h.logger.Error().Err(err).Uint64("chain_project_id", req.ChainProjectID).Msg("Failed to set retire bps")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tx_hash": txHash})
}

func (h *ProjectHandler) ListCertificates(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	certificates, err := h.syncSvc.ListCertificatesByOwner(c.Request.Context(), owner, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Str("owner", owner).Msg("Failed to list certificates")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}
