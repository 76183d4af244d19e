package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	redisclient "github.com/platewire/tvchefs-backend/internal/clients/redis"
	"github.com/platewire/tvchefs-backend/internal/db"
	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/services"
	"github.com/platewire/tvchefs-backend/internal/types"
	"github.com/platewire/tvchefs-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

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

	var entityType string
	var dryRun bool
	var interactive bool
	var minSimilarity float64
	var minConfidence float64
	flag.StringVar(&entityType, "type", types.EntityTypeRestaurant, "entity type to scan (chef or restaurant)")
	flag.BoolVar(&dryRun, "dry-run", false, "report confirmed pairs without saving candidates")
	flag.BoolVar(&interactive, "interactive", false, "print each confirmed pair as it is found")
	flag.Float64Var(&minSimilarity, "min-similarity", utils.GetEnvAsFloat("DEDUPE_MIN_SIMILARITY", 0.7, log), "minimum name similarity before a pair is sent to the verifier")
	flag.Float64Var(&minConfidence, "min-confidence", utils.GetEnvAsFloat("DEDUPE_MIN_CONFIDENCE", 0.9, log), "minimum verifier confidence before a pair is recorded")
	flag.Parse()

	verifierIntervalSec := utils.GetEnvAsInt("VERIFIER_INTERVAL_SECONDS", 2, log)

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	thePG := postgresService.DB()

	var locker redisclient.Locker
	redisClient, err := redisclient.NewClient(log)
	if err != nil {
		log.Warn("Redis unavailable, scanning without a lock", "error", err)
	} else {
		defer redisClient.Close()
		locker = redisClient
	}

	chefRepo := repos.NewChefRepo(thePG, log)
	restaurantRepo := repos.NewRestaurantRepo(thePG, log)
	candidateRepo := repos.NewDuplicateCandidateRepo(thePG, log)
	auditLogRepo := repos.NewAuditLogRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	completionClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	verifier := services.NewDedupeVerifier(log, completionClient, aiCallLogRepo)
	scanner := services.NewDedupeScanner(
		log,
		verifier,
		chefRepo,
		restaurantRepo,
		candidateRepo,
		auditLogRepo,
		locker,
		time.Duration(verifierIntervalSec)*time.Second,
	)

	report, err := scanner.Scan(context.Background(), entityType, services.ScanOptions{
		MinSimilarity: minSimilarity,
		MinConfidence: minConfidence,
		DryRun:        dryRun,
		Interactive:   interactive,
	})
	if err != nil {
		log.Error("Scan failed", "type", entityType, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Scanned %d %s records: %d pairs, %d verified, %d confirmed, %d saved, %d failures\n",
		report.RecordCount, report.EntityType, report.PairsTotal, report.PairsVerified,
		len(report.Confirmed), report.CandidatesSaved, len(report.Failures))
	for _, pair := range report.Confirmed {
		fmt.Printf("  %.2f  %q <-> %q  (%s)\n", pair.Confidence, pair.A.Name, pair.B.Name, pair.Reasoning)
	}
	for _, failure := range report.Failures {
		fmt.Printf("  FAILED %s <-> %s: %s\n", failure.AID, failure.BID, failure.Error)
	}
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
