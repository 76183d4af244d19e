package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/platewire/tvchefs-backend/internal/types"
)

type fakeSearchClient struct {
	results []SearchResult
}

func (f *fakeSearchClient) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return f.results, nil
}

func TestParseDiscoveredShows(t *testing.T) {
	obj := map[string]any{
		"shows": []any{
			map[string]any{"show_name": "Top Chef", "network": "Bravo", "season": "15", "result": "winner"},
			map[string]any{"show_name": "", "season": "3", "result": "judge"},
			map[string]any{"show_name": "Chopped", "season": "", "result": "grand-champion"},
		},
	}

	shows, err := parseDiscoveredShows(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shows) != 2 {
		t.Fatalf("expected nameless show dropped, got %d shows", len(shows))
	}
	if shows[0].ShowName != "Top Chef" || shows[0].Result != types.ShowResultWinner {
		t.Fatalf("unexpected first show: %+v", shows[0])
	}
	// Unknown result strings degrade to contestant instead of failing.
	if shows[1].Result != types.ShowResultContestant {
		t.Fatalf("expected unknown result coerced to contestant, got %q", shows[1].Result)
	}
}

func TestParseDiscoveredShows_EmptyObject(t *testing.T) {
	shows, err := parseDiscoveredShows(map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shows) != 0 {
		t.Fatalf("expected no shows, got %d", len(shows))
	}
}

func TestEnrichChef_ShallowShowLinksDoNotRestageKnownShows(t *testing.T) {
	// A chef loaded without the Show rows on its chef_show links must not
	// make every discovered appearance look new; the service reloads the
	// links before filtering.
	topChef := &types.Show{ID: uuid.New(), Name: "Top Chef"}
	chefID := uuid.New()

	hydrated := &types.Chef{
		ID:        chefID,
		Name:      "Stephanie Izard",
		Blurb:     "already set",
		Narrative: "already set",
		Shows: []*types.ChefShow{
			{ChefID: chefID, ShowID: topChef.ID, Show: topChef, Season: "4", Result: types.ShowResultWinner},
		},
	}
	chefRepo := &fakeChefRepo{chefs: map[uuid.UUID]*types.Chef{chefID: hydrated}}

	shallow := &types.Chef{
		ID:        chefID,
		Name:      "Stephanie Izard",
		Blurb:     "already set",
		Narrative: "already set",
		Shows: []*types.ChefShow{
			{ChefID: chefID, ShowID: topChef.ID, Season: "4", Result: types.ShowResultWinner},
		},
	}

	client := &fakeCompletionClient{obj: map[string]any{
		"shows": []any{
			map[string]any{"show_name": "Top Chef", "network": "Bravo", "season": "4", "result": "winner"},
			map[string]any{"show_name": "Iron Chef", "network": "Food Network", "season": "1", "result": "contestant"},
		},
	}}
	search := &fakeSearchClient{results: []SearchResult{{Title: "Stephanie Izard", Snippet: "Top Chef winner"}}}
	discoveryRepo := newFakeDiscoveryRepo()

	svc := NewEnrichmentService(testLogger(t), client, search, chefRepo, discoveryRepo, nil, nil)
	report, err := svc.EnrichChef(context.Background(), shallow, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ShowsStaged != 1 {
		t.Fatalf("expected only the unknown show staged, got %d", report.ShowsStaged)
	}
	if len(discoveryRepo.created) != 1 {
		t.Fatalf("expected 1 staged discovery, got %d", len(discoveryRepo.created))
	}
	var payload map[string]any
	if err := json.Unmarshal(discoveryRepo.created[0].Payload, &payload); err != nil {
		t.Fatalf("decode staged payload: %v", err)
	}
	if payload["show_name"] != "Iron Chef" {
		t.Fatalf("known show was restaged, payload: %v", payload)
	}
}

func TestFilterKnownShows(t *testing.T) {
	topChef := &types.Show{ID: uuid.New(), Name: "Top Chef"}
	existing := []*types.ChefShow{
		{ShowID: topChef.ID, Show: topChef, Season: "15", Result: types.ShowResultWinner},
	}

	discovered := []DiscoveredShow{
		{ShowName: "Top Chef", Season: "15", Result: types.ShowResultWinner},
		{ShowName: "top chef", Season: "15", Result: types.ShowResultContestant},
		{ShowName: "Top Chef", Season: "16", Result: types.ShowResultJudge},
		{ShowName: "Chopped", Season: "3", Result: types.ShowResultJudge},
	}

	kept := FilterKnownShows(discovered, existing)
	if len(kept) != 2 {
		t.Fatalf("expected 2 new shows after filtering, got %d", len(kept))
	}
	if kept[0].Season != "16" || kept[1].ShowName != "Chopped" {
		t.Fatalf("unexpected surviving shows: %+v", kept)
	}
}
