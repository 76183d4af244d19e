package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/platewire/tvchefs-backend/internal/handlers"
	"github.com/platewire/tvchefs-backend/internal/middleware"
)

type RouterConfig struct {
	AdminAuthMiddleware *middleware.AdminAuthMiddleware
	ChefHandler         *handlers.ChefHandler
	RestaurantHandler   *handlers.RestaurantHandler
	DedupeHandler       *handlers.DedupeHandler
	DiscoveryHandler    *handlers.DiscoveryHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.GET("/chefs", cfg.ChefHandler.ListChefs)
		api.GET("/chefs/:slug", cfg.ChefHandler.GetChefBySlug)
		api.GET("/restaurants", cfg.RestaurantHandler.ListRestaurants)
		api.GET("/restaurants/:slug", cfg.RestaurantHandler.GetRestaurantBySlug)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/admin")
	admin.Use(cfg.AdminAuthMiddleware.RequireAdmin())
	admin.GET("/duplicates", cfg.DedupeHandler.ListDuplicateGroups)
	admin.POST("/duplicates/merge", cfg.DedupeHandler.MergeDuplicates)
	admin.GET("/discoveries", cfg.DiscoveryHandler.ListPendingDiscoveries)
	admin.POST("/discoveries/review", cfg.DiscoveryHandler.ReviewDiscovery)

	return router
}
