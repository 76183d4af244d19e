package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

// MergedShow is one deduplicated show appearance on the keeper after a chef
// merge. Exactly one of the set is primary.
type MergedShow struct {
	ShowID    uuid.UUID `json:"show_id"`
	Season    string    `json:"season"`
	Result    string    `json:"result"`
	IsPrimary bool      `json:"is_primary"`
}

// MergeDecision is a fully-resolved plan for collapsing a confirmed pair into
// one record.
type MergeDecision struct {
	EntityType string         `json:"entity_type"`
	KeeperID   uuid.UUID      `json:"keeper_id"`
	LoserID    uuid.UUID      `json:"loser_id"`
	Fields     map[string]any `json:"fields"`
	Shows      []MergedShow   `json:"shows,omitempty"`
}

// MergeStrategist asks the completion service to pick a keeper and resolve
// merged field values. Unlike the verifier this does NOT fail closed: a
// malformed decision is a hard error for the pair, surfaced to the caller.
type MergeStrategist interface {
	PlanMerge(ctx context.Context, a, b DuplicateRecord, aShows, bShows []*types.ChefShow) (*MergeDecision, error)
}

type mergeStrategist struct {
	log           *logger.Logger
	client        CompletionClient
	aiCallLogRepo repos.AICallLogRepo
}

func NewMergeStrategist(baseLog *logger.Logger, client CompletionClient, aiCallLogRepo repos.AICallLogRepo) MergeStrategist {
	serviceLog := baseLog.With("service", "MergeStrategist")
	return &mergeStrategist{
		log:           serviceLog,
		client:        client,
		aiCallLogRepo: aiCallLogRepo,
	}
}

const strategistSystemPrompt = `You merge two duplicate directory records into one.
Tie-break rules:
- Prefer non-empty values over empty ones.
- Prefer the longer bio.
- The record with more dependent restaurants is the keeper.
- Keep the more complete name spelling.
Return the keeper id, the loser id, and the resolved field values.`

func strategistSchema(entityType string) map[string]any {
	fieldProps := map[string]any{
		"name": map[string]any{"type": "string"},
	}
	if entityType == types.EntityTypeChef {
		fieldProps["bio"] = map[string]any{"type": "string"}
		fieldProps["photo_url"] = map[string]any{"type": "string"}
	} else {
		fieldProps["address"] = map[string]any{"type": "string"}
		fieldProps["city"] = map[string]any{"type": "string"}
		fieldProps["state"] = map[string]any{"type": "string"}
		fieldProps["website"] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keeperId": map[string]any{"type": "string"},
			"loserId":  map[string]any{"type": "string"},
			"fields": map[string]any{
				"type":                 "object",
				"properties":           fieldProps,
				"required":             []string{"name"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"keeperId", "loserId", "fields"},
		"additionalProperties": false,
	}
}

func (s *mergeStrategist) PlanMerge(ctx context.Context, a, b DuplicateRecord, aShows, bShows []*types.ChefShow) (*MergeDecision, error) {
	if a.EntityType != b.EntityType {
		return nil, fmt.Errorf("cannot merge %s with %s", a.EntityType, b.EntityType)
	}

	user := fmt.Sprintf(
		"Record A (id %s): %s\nRecord B (id %s): %s\nResolve the merge.",
		a.ID, a.describe(), b.ID, b.describe(),
	)

	obj, usage, err := s.client.GenerateJSON(ctx, strategistSystemPrompt, user, "merge_decision", strategistSchema(a.EntityType))
	if err != nil {
		s.logCall(ctx, user, "", false, err.Error(), usage)
		return nil, fmt.Errorf("merge strategist call failed: %w", err)
	}

	decision, err := parseMergeDecision(a, b, obj)
	if err != nil {
		s.logCall(ctx, user, jsonString(obj), false, err.Error(), usage)
		return nil, fmt.Errorf("merge strategist returned an invalid decision: %w", err)
	}

	if a.EntityType == types.EntityTypeChef {
		decision.Shows = MergeShowAppearances(aShows, bShows)
	}

	s.logCall(ctx, user, jsonString(obj), true, "", usage)
	return decision, nil
}

// parseMergeDecision enforces the contract: keeper and loser must be exactly
// the two input ids, in either order.
func parseMergeDecision(a, b DuplicateRecord, obj map[string]any) (*MergeDecision, error) {
	keeperStr, ok := obj["keeperId"].(string)
	if !ok {
		return nil, fmt.Errorf("keeperId missing or not a string")
	}
	loserStr, ok := obj["loserId"].(string)
	if !ok {
		return nil, fmt.Errorf("loserId missing or not a string")
	}
	keeperID, err := uuid.Parse(keeperStr)
	if err != nil {
		return nil, fmt.Errorf("keeperId is not a uuid: %w", err)
	}
	loserID, err := uuid.Parse(loserStr)
	if err != nil {
		return nil, fmt.Errorf("loserId is not a uuid: %w", err)
	}

	validPair := (keeperID == a.ID && loserID == b.ID) || (keeperID == b.ID && loserID == a.ID)
	if !validPair {
		return nil, fmt.Errorf("keeper/loser ids %s/%s are not the input pair %s/%s", keeperID, loserID, a.ID, b.ID)
	}

	fields, ok := obj["fields"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fields missing or not an object")
	}
	name, ok := fields["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("merged name missing or empty")
	}

	return &MergeDecision{
		EntityType: a.EntityType,
		KeeperID:   keeperID,
		LoserID:    loserID,
		Fields:     fields,
	}, nil
}

// MergeShowAppearances unions two chefs' show links, deduplicating on
// (show id, season) and keeping the more prestigious result when both sides
// have the same appearance. Exactly one surviving row is marked primary: the
// one with the best result, first by prestige then by show name order.
func MergeShowAppearances(aShows, bShows []*types.ChefShow) []MergedShow {
	type key struct {
		showID uuid.UUID
		season string
	}
	merged := make(map[key]MergedShow)
	order := make([]key, 0, len(aShows)+len(bShows))

	for _, link := range append(append([]*types.ChefShow{}, aShows...), bShows...) {
		if link == nil {
			continue
		}
		k := key{showID: link.ShowID, season: link.Season}
		existing, seen := merged[k]
		if !seen {
			merged[k] = MergedShow{ShowID: link.ShowID, Season: link.Season, Result: link.Result}
			order = append(order, k)
			continue
		}
		if types.ShowResultRank(link.Result) > types.ShowResultRank(existing.Result) {
			existing.Result = link.Result
			merged[k] = existing
		}
	}

	out := make([]MergedShow, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}

	// Stable result: best rank first, then insertion order preserved by the
	// stable sort.
	sort.SliceStable(out, func(i, j int) bool {
		return types.ShowResultRank(out[i].Result) > types.ShowResultRank(out[j].Result)
	})
	if len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out
}

func (s *mergeStrategist) logCall(ctx context.Context, prompt, response string, success bool, errMsg string, usage TokenUsage) {
	if s.aiCallLogRepo == nil {
		return
	}
	usageJSON, _ := json.Marshal(usage)
	_, err := s.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{{
		CallType: "merge_plan",
		Model:    s.client.Model(),
		Prompt:   prompt,
		Response: response,
		Success:  success,
		Error:    errMsg,
		Usage:    datatypes.JSON(usageJSON),
	}})
	if err != nil {
		s.log.Warn("Failed to record ai call log", "error", err)
	}
}
