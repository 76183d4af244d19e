package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type MergeReport struct {
	RestaurantsTransferred int  `json:"restaurants_transferred"`
	ShowsInserted          int  `json:"shows_inserted"`
	DryRun                 bool `json:"dry_run"`
}

// MergeExecutor applies a merge decision. The write path goes through a
// single server-side procedure so the whole merge is atomic: a failure at any
// step leaves both records exactly as they were.
type MergeExecutor interface {
	Execute(ctx context.Context, decision *MergeDecision, dryRun bool, source string) (*MergeReport, error)
}

type mergeExecutor struct {
	db             *gorm.DB
	log            *logger.Logger
	chefRepo       repos.ChefRepo
	restaurantRepo repos.RestaurantRepo
	auditLogRepo   repos.AuditLogRepo
}

func NewMergeExecutor(
	db *gorm.DB,
	baseLog *logger.Logger,
	chefRepo repos.ChefRepo,
	restaurantRepo repos.RestaurantRepo,
	auditLogRepo repos.AuditLogRepo,
) MergeExecutor {
	serviceLog := baseLog.With("service", "MergeExecutor")
	return &mergeExecutor{
		db:             db,
		log:            serviceLog,
		chefRepo:       chefRepo,
		restaurantRepo: restaurantRepo,
		auditLogRepo:   auditLogRepo,
	}
}

func (e *mergeExecutor) Execute(ctx context.Context, decision *MergeDecision, dryRun bool, source string) (*MergeReport, error) {
	if decision == nil {
		return nil, fmt.Errorf("nil merge decision")
	}
	if decision.KeeperID == decision.LoserID {
		return nil, fmt.Errorf("keeper and loser are the same record %s", decision.KeeperID)
	}

	if err := e.checkLoserProtected(ctx, decision); err != nil {
		return nil, err
	}

	if dryRun {
		return e.dryRunReport(ctx, decision)
	}

	merged := make(map[string]any, len(decision.Fields)+1)
	for k, v := range decision.Fields {
		merged[k] = v
	}
	if decision.EntityType == types.EntityTypeChef {
		merged["shows"] = decision.Shows
	}
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode merged fields: %w", err)
	}

	procedure := "merge_restaurant_records"
	if decision.EntityType == types.EntityTypeChef {
		procedure = "merge_chef_records"
	}

	var rawReport string
	query := fmt.Sprintf("SELECT %s(?::uuid, ?::uuid, ?::jsonb)", procedure)
	if err := e.db.WithContext(ctx).
		Raw(query, decision.KeeperID, decision.LoserID, string(mergedJSON)).
		Scan(&rawReport).Error; err != nil {
		e.log.Error("Merge procedure failed, nothing was applied",
			"procedure", procedure,
			"keeper", decision.KeeperID,
			"loser", decision.LoserID,
			"error", err,
		)
		return nil, fmt.Errorf("merge procedure %s: %w", procedure, err)
	}

	report := &MergeReport{}
	if err := json.Unmarshal([]byte(rawReport), report); err != nil {
		return nil, fmt.Errorf("decode merge report %q: %w", rawReport, err)
	}

	e.writeAudit(ctx, decision, report, source)
	e.log.Info("Merge executed",
		"entity_type", decision.EntityType,
		"keeper", decision.KeeperID,
		"loser", decision.LoserID,
		"restaurants_transferred", report.RestaurantsTransferred,
		"shows_inserted", report.ShowsInserted,
	)
	return report, nil
}

// checkLoserProtected rejects protected losers before anything touches the
// database. The procedure guards again server-side; this check just gives a
// cleaner error.
func (e *mergeExecutor) checkLoserProtected(ctx context.Context, decision *MergeDecision) error {
	switch decision.EntityType {
	case types.EntityTypeChef:
		chefs, err := e.chefRepo.GetByIDs(ctx, nil, []uuid.UUID{decision.LoserID})
		if err != nil {
			return fmt.Errorf("load loser chef: %w", err)
		}
		if len(chefs) == 0 {
			return fmt.Errorf("loser chef %s not found", decision.LoserID)
		}
		if chefs[0].Protected {
			return fmt.Errorf("chef %s is protected and cannot be merged away", decision.LoserID)
		}
	case types.EntityTypeRestaurant:
		restaurants, err := e.restaurantRepo.GetByIDs(ctx, nil, []uuid.UUID{decision.LoserID})
		if err != nil {
			return fmt.Errorf("load loser restaurant: %w", err)
		}
		if len(restaurants) == 0 {
			return fmt.Errorf("loser restaurant %s not found", decision.LoserID)
		}
		if restaurants[0].Protected {
			return fmt.Errorf("restaurant %s is protected and cannot be merged away", decision.LoserID)
		}
	default:
		return fmt.Errorf("unknown entity type %q", decision.EntityType)
	}
	return nil
}

// dryRunReport reports what the merge would do without issuing any writes.
func (e *mergeExecutor) dryRunReport(ctx context.Context, decision *MergeDecision) (*MergeReport, error) {
	report := &MergeReport{DryRun: true}
	if decision.EntityType == types.EntityTypeChef {
		counts, err := e.restaurantRepo.CountByChefIDs(ctx, nil, []uuid.UUID{decision.LoserID})
		if err != nil {
			return nil, fmt.Errorf("count loser restaurants: %w", err)
		}
		report.RestaurantsTransferred = counts[decision.LoserID]
		report.ShowsInserted = len(decision.Shows)
	}
	return report, nil
}

func (e *mergeExecutor) writeAudit(ctx context.Context, decision *MergeDecision, report *MergeReport, source string) {
	if e.auditLogRepo == nil {
		return
	}
	if source == "" {
		source = types.AuditSourcePipeline
	}
	detail, _ := json.Marshal(map[string]any{
		"loser_id":                decision.LoserID,
		"restaurants_transferred": report.RestaurantsTransferred,
		"shows_inserted":          report.ShowsInserted,
	})
	table := "restaurant"
	if decision.EntityType == types.EntityTypeChef {
		table = "chef"
	}
	if _, err := e.auditLogRepo.Create(ctx, nil, []*types.AuditLog{{
		TableName_: table,
		RecordID:   decision.KeeperID,
		Action:     "merge",
		Source:     source,
		Detail:     datatypes.JSON(detail),
	}}); err != nil {
		e.log.Warn("Failed to write merge audit entry", "error", err)
	}
}
