package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/services"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type DedupeHandler struct {
	log           *logger.Logger
	reviewService services.ReviewService
}

func NewDedupeHandler(log *logger.Logger, reviewService services.ReviewService) *DedupeHandler {
	return &DedupeHandler{
		log:           log.With("handler", "DedupeHandler"),
		reviewService: reviewService,
	}
}

func (h *DedupeHandler) ListDuplicateGroups(c *gin.Context) {
	entityType := c.DefaultQuery("type", types.EntityTypeRestaurant)
	if entityType != types.EntityTypeChef && entityType != types.EntityTypeRestaurant {
		RespondError(c, http.StatusBadRequest, "invalid_entity_type", errors.New("type must be chef or restaurant"))
		return
	}
	groups, err := h.reviewService.ListPendingGroups(c.Request.Context(), entityType)
	if err != nil {
		h.log.Error("ListDuplicateGroups failed", "error", err, "entity_type", entityType)
		RespondError(c, http.StatusInternalServerError, "load_duplicate_groups_failed", err)
		return
	}
	RespondOK(c, gin.H{"groups": groups})
}

type mergeRequest struct {
	GroupID   *uuid.UUID  `json:"groupId"`
	KeeperIDs []uuid.UUID `json:"keeperIds"`
	LoserIDs  []uuid.UUID `json:"loserIds"`

	// Legacy two-record form.
	WinnerID *uuid.UUID `json:"winnerId"`
	LoserID  *uuid.UUID `json:"loserId"`

	DryRun bool `json:"dryRun"`
}

func (h *DedupeHandler) MergeDuplicates(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_merge_request", err)
		return
	}

	// Legacy variant: a bare winner/loser pair with no group.
	if req.GroupID == nil {
		if req.WinnerID == nil || req.LoserID == nil {
			RespondError(c, http.StatusBadRequest, "invalid_merge_request", errors.New("groupId or winnerId/loserId required"))
			return
		}
		report, err := h.reviewService.ResolveDirect(c.Request.Context(), *req.WinnerID, *req.LoserID, req.DryRun)
		if err != nil {
			h.respondMergeError(c, err)
			return
		}
		RespondOK(c, report)
		return
	}

	resolution, err := h.reviewService.ResolveGroup(c.Request.Context(), *req.GroupID, req.KeeperIDs, req.LoserIDs, req.DryRun)
	if err != nil {
		h.respondMergeError(c, err)
		return
	}
	RespondOK(c, resolution)
}

func (h *DedupeHandler) respondMergeError(c *gin.Context, err error) {
	h.log.Error("Merge failed", "error", err)
	msg := err.Error()
	switch {
	case strings.Contains(msg, "protected"):
		RespondError(c, http.StatusConflict, "record_protected", err)
	case strings.Contains(msg, "not found"):
		RespondError(c, http.StatusNotFound, "record_not_found", err)
	case strings.Contains(msg, "not a member") || strings.Contains(msg, "keeper"):
		RespondError(c, http.StatusBadRequest, "invalid_merge_selection", err)
	default:
		RespondError(c, http.StatusInternalServerError, "merge_failed", err)
	}
}
