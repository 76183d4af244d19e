package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	redisclient "github.com/platewire/tvchefs-backend/internal/clients/redis"
	"github.com/platewire/tvchefs-backend/internal/db"
	"github.com/platewire/tvchefs-backend/internal/handlers"
	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/middleware"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/server"
	"github.com/platewire/tvchefs-backend/internal/services"
	"github.com/platewire/tvchefs-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	adminJWTSecret := utils.GetEnv("ADMIN_JWT_SECRET", "", log)
	if adminJWTSecret == "" {
		log.Fatal("ADMIN_JWT_SECRET is required")
	}
	port := utils.GetEnv("PORT", "8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	if err = postgresService.EnsureMergeProcedures(); err != nil {
		log.Fatal("Merge procedure install failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis (optional: without it scans run unlocked and the review surface
	// skips caching)
	var redisClient redisclient.Client
	redisClient, err = redisclient.NewClient(log)
	if err != nil {
		log.Warn("Redis unavailable, continuing without locks or cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Repos
	log.Info("Setting up Repos from main...")
	chefRepo := repos.NewChefRepo(thePG, log)
	restaurantRepo := repos.NewRestaurantRepo(thePG, log)
	showRepo := repos.NewShowRepo(thePG, log)
	chefShowRepo := repos.NewChefShowRepo(thePG, log)
	candidateRepo := repos.NewDuplicateCandidateRepo(thePG, log)
	discoveryRepo := repos.NewStagedDiscoveryRepo(thePG, log)
	auditLogRepo := repos.NewAuditLogRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	completionClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	strategist := services.NewMergeStrategist(log, completionClient, aiCallLogRepo)
	executor := services.NewMergeExecutor(thePG, log, chefRepo, restaurantRepo, auditLogRepo)
	reviewService := services.NewReviewService(
		log,
		chefRepo,
		restaurantRepo,
		candidateRepo,
		strategist,
		executor,
		redisCache(redisClient),
	)
	discoveryService := services.NewDiscoveryService(
		thePG,
		log,
		discoveryRepo,
		chefRepo,
		restaurantRepo,
		showRepo,
		chefShowRepo,
		auditLogRepo,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	chefHandler := handlers.NewChefHandler(log, chefRepo)
	restaurantHandler := handlers.NewRestaurantHandler(log, restaurantRepo)
	dedupeHandler := handlers.NewDedupeHandler(log, reviewService)
	discoveryHandler := handlers.NewDiscoveryHandler(log, discoveryService)

	// Middleware
	adminAuth := middleware.NewAdminAuthMiddleware(log, adminJWTSecret)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AdminAuthMiddleware: adminAuth,
		ChefHandler:         chefHandler,
		RestaurantHandler:   restaurantHandler,
		DedupeHandler:       dedupeHandler,
		DiscoveryHandler:    discoveryHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}

// A nil Client stored in a non-nil interface would dodge the nil checks
// downstream, so unwrap explicitly.
func redisCache(c redisclient.Client) redisclient.Cache {
	if c == nil {
		return nil
	}
	return c
}
