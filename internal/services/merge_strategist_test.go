package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/platewire/tvchefs-backend/internal/types"
)

func TestParseMergeDecision(t *testing.T) {
	a := DuplicateRecord{EntityType: types.EntityTypeRestaurant, ID: uuid.New(), Name: "Aba"}
	b := DuplicateRecord{EntityType: types.EntityTypeRestaurant, ID: uuid.New(), Name: "Aba Chicago"}

	valid := func() map[string]any {
		return map[string]any{
			"keeperId": a.ID.String(),
			"loserId":  b.ID.String(),
			"fields":   map[string]any{"name": "Aba", "city": "Chicago"},
		}
	}

	t.Run("valid decision", func(t *testing.T) {
		decision, err := parseMergeDecision(a, b, valid())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.KeeperID != a.ID || decision.LoserID != b.ID {
			t.Fatalf("wrong keeper/loser: %+v", decision)
		}
		if decision.Fields["name"] != "Aba" {
			t.Fatalf("fields not carried through: %+v", decision.Fields)
		}
	})

	t.Run("swapped pair is still valid", func(t *testing.T) {
		obj := valid()
		obj["keeperId"] = b.ID.String()
		obj["loserId"] = a.ID.String()
		decision, err := parseMergeDecision(a, b, obj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.KeeperID != b.ID {
			t.Fatalf("expected keeper %s, got %s", b.ID, decision.KeeperID)
		}
	})

	t.Run("keeper outside the pair is rejected", func(t *testing.T) {
		obj := valid()
		obj["keeperId"] = uuid.New().String()
		if _, err := parseMergeDecision(a, b, obj); err == nil {
			t.Fatalf("expected error for keeper outside the input pair")
		}
	})

	t.Run("keeper equal to loser is rejected", func(t *testing.T) {
		obj := valid()
		obj["loserId"] = a.ID.String()
		if _, err := parseMergeDecision(a, b, obj); err == nil {
			t.Fatalf("expected error when keeper and loser are the same id")
		}
	})

	t.Run("non-uuid keeper is rejected", func(t *testing.T) {
		obj := valid()
		obj["keeperId"] = "not-a-uuid"
		if _, err := parseMergeDecision(a, b, obj); err == nil {
			t.Fatalf("expected error for malformed keeperId")
		}
	})

	t.Run("missing merged name is rejected", func(t *testing.T) {
		obj := valid()
		obj["fields"] = map[string]any{"city": "Chicago"}
		if _, err := parseMergeDecision(a, b, obj); err == nil {
			t.Fatalf("expected error for missing merged name")
		}
	})
}

func TestMergeShowAppearances(t *testing.T) {
	topChef := uuid.New()
	chopped := uuid.New()

	aShows := []*types.ChefShow{
		{ShowID: topChef, Season: "15", Result: types.ShowResultContestant},
		{ShowID: chopped, Season: "3", Result: types.ShowResultJudge},
	}
	bShows := []*types.ChefShow{
		{ShowID: topChef, Season: "15", Result: types.ShowResultWinner},
	}

	merged := MergeShowAppearances(aShows, bShows)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged appearances, got %d", len(merged))
	}

	primaries := 0
	for _, show := range merged {
		if show.IsPrimary {
			primaries++
		}
		if show.ShowID == topChef && show.Result != types.ShowResultWinner {
			t.Fatalf("duplicate appearance should keep the better result, got %q", show.Result)
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary appearance, got %d", primaries)
	}
	if !merged[0].IsPrimary || merged[0].ShowID != topChef {
		t.Fatalf("winner appearance should be primary, got %+v", merged[0])
	}
}

func TestMergeShowAppearances_Empty(t *testing.T) {
	if merged := MergeShowAppearances(nil, nil); len(merged) != 0 {
		t.Fatalf("expected no appearances, got %d", len(merged))
	}
}
