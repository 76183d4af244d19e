package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/services"
)

type DiscoveryHandler struct {
	log              *logger.Logger
	discoveryService services.DiscoveryService
}

func NewDiscoveryHandler(log *logger.Logger, discoveryService services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		log:              log.With("handler", "DiscoveryHandler"),
		discoveryService: discoveryService,
	}
}

func (h *DiscoveryHandler) ListPendingDiscoveries(c *gin.Context) {
	discoveries, err := h.discoveryService.ListPending(c.Request.Context())
	if err != nil {
		h.log.Error("ListPendingDiscoveries failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_discoveries_failed", err)
		return
	}
	RespondOK(c, gin.H{"discoveries": discoveries})
}

type reviewDiscoveryRequest struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Action string    `json:"action" binding:"required"`
}

func (h *DiscoveryHandler) ReviewDiscovery(c *gin.Context) {
	var req reviewDiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_review_request", err)
		return
	}
	if req.Action != services.DiscoveryActionApprove && req.Action != services.DiscoveryActionReject {
		RespondError(c, http.StatusBadRequest, "invalid_review_action", errors.New("action must be approve or reject"))
		return
	}

	discovery, err := h.discoveryService.Review(c.Request.Context(), req.ID, req.Action)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			RespondError(c, http.StatusNotFound, "discovery_not_found", err)
			return
		}
		h.log.Error("ReviewDiscovery failed", "error", err, "id", req.ID)
		RespondError(c, http.StatusInternalServerError, "review_discovery_failed", err)
		return
	}
	RespondOK(c, gin.H{"discovery": discovery})
}
