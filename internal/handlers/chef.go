package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
)

type ChefHandler struct {
	log      *logger.Logger
	chefRepo repos.ChefRepo
}

func NewChefHandler(log *logger.Logger, chefRepo repos.ChefRepo) *ChefHandler {
	return &ChefHandler{
		log:      log.With("handler", "ChefHandler"),
		chefRepo: chefRepo,
	}
}

func (h *ChefHandler) ListChefs(c *gin.Context) {
	chefs, err := h.chefRepo.ListPublic(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("ListChefs failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_chefs_failed", err)
		return
	}
	RespondOK(c, gin.H{"chefs": chefs})
}

func (h *ChefHandler) GetChefBySlug(c *gin.Context) {
	slug := c.Param("slug")
	chef, err := h.chefRepo.GetBySlug(c.Request.Context(), nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "chef_not_found", err)
			return
		}
		h.log.Error("GetChefBySlug failed", "error", err, "slug", slug)
		RespondError(c, http.StatusInternalServerError, "load_chef_failed", err)
		return
	}
	if !chef.IsPublic {
		RespondError(c, http.StatusNotFound, "chef_not_found", errors.New("chef not found"))
		return
	}
	RespondOK(c, gin.H{"chef": chef})
}
