package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
)

type RestaurantHandler struct {
	log            *logger.Logger
	restaurantRepo repos.RestaurantRepo
}

func NewRestaurantHandler(log *logger.Logger, restaurantRepo repos.RestaurantRepo) *RestaurantHandler {
	return &RestaurantHandler{
		log:            log.With("handler", "RestaurantHandler"),
		restaurantRepo: restaurantRepo,
	}
}

func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.restaurantRepo.ListPublic(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("ListRestaurants failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_restaurants_failed", err)
		return
	}
	RespondOK(c, gin.H{"restaurants": restaurants})
}

func (h *RestaurantHandler) GetRestaurantBySlug(c *gin.Context) {
	slug := c.Param("slug")
	restaurant, err := h.restaurantRepo.GetBySlug(c.Request.Context(), nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "restaurant_not_found", err)
			return
		}
		h.log.Error("GetRestaurantBySlug failed", "error", err, "slug", slug)
		RespondError(c, http.StatusInternalServerError, "load_restaurant_failed", err)
		return
	}
	if !restaurant.IsPublic {
		RespondError(c, http.StatusNotFound, "restaurant_not_found", errors.New("restaurant not found"))
		return
	}
	RespondOK(c, gin.H{"restaurant": restaurant})
}
