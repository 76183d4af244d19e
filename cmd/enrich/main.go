package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/platewire/tvchefs-backend/internal/db"
	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/services"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var chefs idList
	var dryRun bool
	var limit int
	flag.Var(&chefs, "chef", "chef id to enrich (repeatable, defaults to chefs missing blurbs)")
	flag.BoolVar(&dryRun, "dry-run", false, "generate without saving")
	flag.IntVar(&limit, "limit", 10, "max chefs to enrich when no ids are given")
	flag.Parse()

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

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	thePG := postgresService.DB()

	chefRepo := repos.NewChefRepo(thePG, log)
	discoveryRepo := repos.NewStagedDiscoveryRepo(thePG, log)
	auditLogRepo := repos.NewAuditLogRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	completionClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	searchClient, err := services.NewSearchClient(log)
	if err != nil {
		log.Fatal("Search client init failed", "error", err)
	}
	enrichment := services.NewEnrichmentService(
		log,
		completionClient,
		searchClient,
		chefRepo,
		discoveryRepo,
		auditLogRepo,
		aiCallLogRepo,
	)

	ctx := context.Background()

	var rows []*types.Chef
	if len(chefs) > 0 {
		ids := make([]uuid.UUID, 0, len(chefs))
		for _, s := range chefs {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid chef id values provided")
			return
		}
		rows, err = chefRepo.GetByIDs(ctx, nil, ids)
	} else {
		rows, err = chefRepo.ListMissingEnrichment(ctx, nil, limit)
	}
	if err != nil {
		log.Fatal("Loading chefs failed", "error", err)
	}
	if len(rows) == 0 {
		fmt.Println("no chefs to enrich")
		return
	}

	failed := 0
	for _, chef := range rows {
		report, err := enrichment.EnrichChef(ctx, chef, dryRun)
		if err != nil {
			log.Error("Enrichment failed", "chef", chef.ID, "name", chef.Name, "error", err)
			failed++
			continue
		}
		fmt.Printf("%s: %d shows staged, blurb=%t, narrative=%t, dry_run=%t\n",
			chef.Name, report.ShowsStaged, report.BlurbGenerated, report.NarrativeGenerated, report.DryRun)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
