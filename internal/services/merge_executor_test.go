package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type fakeChefRepo struct {
	repos.ChefRepo
	chefs map[uuid.UUID]*types.Chef
}

func (f *fakeChefRepo) GetByIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) ([]*types.Chef, error) {
	out := make([]*types.Chef, 0, len(chefIDs))
	for _, id := range chefIDs {
		if chef, ok := f.chefs[id]; ok {
			out = append(out, chef)
		}
	}
	return out, nil
}

type fakeRestaurantRepo struct {
	repos.RestaurantRepo
	restaurants map[uuid.UUID]*types.Restaurant
	chefCounts  map[uuid.UUID]int
}

func (f *fakeRestaurantRepo) GetByIDs(ctx context.Context, tx *gorm.DB, restaurantIDs []uuid.UUID) ([]*types.Restaurant, error) {
	out := make([]*types.Restaurant, 0, len(restaurantIDs))
	for _, id := range restaurantIDs {
		if r, ok := f.restaurants[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRestaurantRepo) CountByChefIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(chefIDs))
	for _, id := range chefIDs {
		out[id] = f.chefCounts[id]
	}
	return out, nil
}

func TestExecute_RejectsProtectedLoser(t *testing.T) {
	keeper := &types.Chef{ID: uuid.New(), Name: "Gordon Ramsay"}
	loser := &types.Chef{ID: uuid.New(), Name: "Gordon Ramsey", Protected: true}
	chefRepo := &fakeChefRepo{chefs: map[uuid.UUID]*types.Chef{keeper.ID: keeper, loser.ID: loser}}

	executor := NewMergeExecutor(nil, testLogger(t), chefRepo, &fakeRestaurantRepo{}, nil)
	decision := &MergeDecision{
		EntityType: types.EntityTypeChef,
		KeeperID:   keeper.ID,
		LoserID:    loser.ID,
		Fields:     map[string]any{"name": "Gordon Ramsay"},
	}

	_, err := executor.Execute(context.Background(), decision, true, types.AuditSourceReview)
	if err == nil {
		t.Fatalf("expected protected loser to be rejected")
	}
	if !strings.Contains(err.Error(), "protected") {
		t.Fatalf("expected protected error, got %v", err)
	}
}

func TestExecute_RejectsSelfMerge(t *testing.T) {
	executor := NewMergeExecutor(nil, testLogger(t), &fakeChefRepo{}, &fakeRestaurantRepo{}, nil)
	id := uuid.New()
	_, err := executor.Execute(context.Background(), &MergeDecision{
		EntityType: types.EntityTypeChef,
		KeeperID:   id,
		LoserID:    id,
	}, true, "")
	if err == nil {
		t.Fatalf("expected error when keeper and loser are the same record")
	}
}

func TestExecute_RejectsMissingLoser(t *testing.T) {
	executor := NewMergeExecutor(nil, testLogger(t), &fakeChefRepo{chefs: map[uuid.UUID]*types.Chef{}}, &fakeRestaurantRepo{}, nil)
	_, err := executor.Execute(context.Background(), &MergeDecision{
		EntityType: types.EntityTypeChef,
		KeeperID:   uuid.New(),
		LoserID:    uuid.New(),
	}, true, "")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestExecute_DryRunReportsWithoutWriting(t *testing.T) {
	keeper := &types.Chef{ID: uuid.New(), Name: "Stephanie Izard"}
	loser := &types.Chef{ID: uuid.New(), Name: "Stephanie Izzard"}
	chefRepo := &fakeChefRepo{chefs: map[uuid.UUID]*types.Chef{keeper.ID: keeper, loser.ID: loser}}
	restaurantRepo := &fakeRestaurantRepo{chefCounts: map[uuid.UUID]int{loser.ID: 2}}

	executor := NewMergeExecutor(nil, testLogger(t), chefRepo, restaurantRepo, nil)
	decision := &MergeDecision{
		EntityType: types.EntityTypeChef,
		KeeperID:   keeper.ID,
		LoserID:    loser.ID,
		Fields:     map[string]any{"name": "Stephanie Izard"},
		Shows: []MergedShow{
			{ShowID: uuid.New(), Season: "4", Result: types.ShowResultWinner, IsPrimary: true},
			{ShowID: uuid.New(), Season: "35", Result: types.ShowResultContestant},
		},
	}

	report, err := executor.Execute(context.Background(), decision, true, types.AuditSourceReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.DryRun {
		t.Fatalf("expected dry-run report")
	}
	if report.RestaurantsTransferred != 2 {
		t.Fatalf("expected 2 restaurants transferred, got %d", report.RestaurantsTransferred)
	}
	if report.ShowsInserted != 2 {
		t.Fatalf("expected 2 shows inserted, got %d", report.ShowsInserted)
	}
}
