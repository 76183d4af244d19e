package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
	"github.com/platewire/tvchefs-backend/internal/utils"
)

// DiscoveredShow is one TV appearance extracted from search snippets.
type DiscoveredShow struct {
	ShowName string `json:"show_name"`
	Network  string `json:"network"`
	Season   string `json:"season"`
	Result   string `json:"result"`
}

type EnrichReport struct {
	ShowsStaged        int  `json:"shows_staged"`
	BlurbGenerated     bool `json:"blurb_generated"`
	NarrativeGenerated bool `json:"narrative_generated"`
	DryRun             bool `json:"dry_run"`
}

// EnrichmentService runs the offline pipeline: show discovery from web
// search, then blurb and narrative generation. Discovered shows are staged
// for human approval, never written straight to the public tables.
type EnrichmentService interface {
	EnrichChef(ctx context.Context, chef *types.Chef, dryRun bool) (*EnrichReport, error)
}

type enrichmentService struct {
	log           *logger.Logger
	client        CompletionClient
	search        SearchClient
	chefRepo      repos.ChefRepo
	discoveryRepo repos.StagedDiscoveryRepo
	auditLogRepo  repos.AuditLogRepo
	aiCallLogRepo repos.AICallLogRepo
}

func NewEnrichmentService(
	baseLog *logger.Logger,
	client CompletionClient,
	search SearchClient,
	chefRepo repos.ChefRepo,
	discoveryRepo repos.StagedDiscoveryRepo,
	auditLogRepo repos.AuditLogRepo,
	aiCallLogRepo repos.AICallLogRepo,
) EnrichmentService {
	serviceLog := baseLog.With("service", "EnrichmentService")
	return &enrichmentService{
		log:           serviceLog,
		client:        client,
		search:        search,
		chefRepo:      chefRepo,
		discoveryRepo: discoveryRepo,
		auditLogRepo:  auditLogRepo,
		aiCallLogRepo: aiCallLogRepo,
	}
}

func (s *enrichmentService) EnrichChef(ctx context.Context, chef *types.Chef, dryRun bool) (*EnrichReport, error) {
	if chef == nil {
		return nil, fmt.Errorf("nil chef")
	}
	// The known-show filter and the text prompts both read show names off
	// chef.Shows; a shallow load (links without their Show rows) would make
	// every appearance look new. Reload through the repo, which hydrates.
	if shallowShowLinks(chef.Shows) {
		reloaded, err := s.chefRepo.GetByIDs(ctx, nil, []uuid.UUID{chef.ID})
		if err != nil {
			return nil, fmt.Errorf("reload chef shows: %w", err)
		}
		if len(reloaded) == 1 {
			chef.Shows = reloaded[0].Shows
		}
	}
	report := &EnrichReport{DryRun: dryRun}

	staged, err := s.discoverShows(ctx, chef, dryRun)
	if err != nil {
		// Discovery failure should not block text generation for the chef.
		s.log.Warn("Show discovery failed", "chef", chef.ID, "error", err)
	} else {
		report.ShowsStaged = staged
	}

	if chef.Blurb == "" {
		if err := s.generateText(ctx, chef, "blurb", dryRun); err != nil {
			return report, fmt.Errorf("generate blurb: %w", err)
		}
		report.BlurbGenerated = true
	}
	if chef.Narrative == "" {
		if err := s.generateText(ctx, chef, "narrative", dryRun); err != nil {
			return report, fmt.Errorf("generate narrative: %w", err)
		}
		report.NarrativeGenerated = true
	}
	return report, nil
}

const showDiscoverySystemPrompt = `You extract TV show appearances for a chef from web search snippets.
Only report shows the snippets actually support. Use the season label as written (e.g. "15" or "All-Stars").
result must be one of: winner, finalist, contestant, judge.`

func showDiscoverySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"show_name": map[string]any{"type": "string"},
						"network":   map[string]any{"type": "string"},
						"season":    map[string]any{"type": "string"},
						"result":    map[string]any{"type": "string", "enum": []string{"winner", "finalist", "contestant", "judge"}},
					},
					"required":             []string{"show_name", "network", "season", "result"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"shows"},
		"additionalProperties": false,
	}
}

func (s *enrichmentService) discoverShows(ctx context.Context, chef *types.Chef, dryRun bool) (int, error) {
	results, err := s.search.Search(ctx, fmt.Sprintf("%s chef TV show appearances", chef.Name), 8)
	if err != nil {
		return 0, fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	var snippets strings.Builder
	for _, r := range results {
		fmt.Fprintf(&snippets, "- %s: %s\n", r.Title, r.Snippet)
	}
	user := fmt.Sprintf("Chef: %s\nSearch snippets:\n%s", chef.Name, snippets.String())

	obj, usage, err := s.client.GenerateJSON(ctx, showDiscoverySystemPrompt, user, "show_discovery", showDiscoverySchema())
	if err != nil {
		s.logCall(ctx, chef, "enrich_show_discovery", user, "", false, err.Error(), usage)
		return 0, fmt.Errorf("show discovery call: %w", err)
	}
	s.logCall(ctx, chef, "enrich_show_discovery", user, jsonString(obj), true, "", usage)

	discovered, err := parseDiscoveredShows(obj)
	if err != nil {
		return 0, err
	}
	discovered = FilterKnownShows(discovered, chef.Shows)

	staged := 0
	for _, show := range discovered {
		if dryRun {
			s.log.Info("[dry-run] would stage show discovery", "chef", chef.Name, "show", show.ShowName, "season", show.Season)
			staged++
			continue
		}
		payload, err := json.Marshal(map[string]any{
			"chef_id":   chef.ID,
			"show_name": show.ShowName,
			"network":   show.Network,
			"season":    show.Season,
			"result":    show.Result,
		})
		if err != nil {
			return staged, err
		}
		if _, err := s.discoveryRepo.Create(ctx, nil, []*types.StagedDiscovery{{
			DiscoveryType: types.DiscoveryTypeShow,
			Payload:       datatypes.JSON(payload),
			Status:        types.DiscoveryStatusPending,
			Source:        "enrichment",
		}}); err != nil {
			return staged, fmt.Errorf("stage show discovery: %w", err)
		}
		staged++
	}
	return staged, nil
}

func parseDiscoveredShows(obj map[string]any) ([]DiscoveredShow, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Shows []DiscoveredShow `json:"shows"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode discovered shows: %w", err)
	}
	out := make([]DiscoveredShow, 0, len(parsed.Shows))
	for _, show := range parsed.Shows {
		if strings.TrimSpace(show.ShowName) == "" {
			continue
		}
		if !types.IsValidShowResult(show.Result) {
			show.Result = types.ShowResultContestant
		}
		out = append(out, show)
	}
	return out, nil
}

func shallowShowLinks(links []*types.ChefShow) bool {
	for _, link := range links {
		if link != nil && link.Show == nil {
			return true
		}
	}
	return false
}

// FilterKnownShows drops discoveries the chef already has, matching on
// (slugified show name, season).
func FilterKnownShows(discovered []DiscoveredShow, existing []*types.ChefShow) []DiscoveredShow {
	known := make(map[string]bool, len(existing))
	for _, link := range existing {
		if link == nil || link.Show == nil {
			continue
		}
		known[utils.Slugify(link.Show.Name)+"|"+link.Season] = true
	}
	out := make([]DiscoveredShow, 0, len(discovered))
	for _, show := range discovered {
		if known[utils.Slugify(show.ShowName)+"|"+show.Season] {
			continue
		}
		out = append(out, show)
	}
	return out
}

const blurbSystemPrompt = `Write a one-to-two sentence blurb for a TV chef's directory card. Factual, warm, no superlatives you cannot support.`
const narrativeSystemPrompt = `Write a three-paragraph narrative bio for a TV chef's profile page. Cover their background, TV appearances, and restaurants. Factual tone.`

func textSchema(field string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			field: map[string]any{"type": "string"},
		},
		"required":             []string{field},
		"additionalProperties": false,
	}
}

func (s *enrichmentService) generateText(ctx context.Context, chef *types.Chef, field string, dryRun bool) error {
	system := blurbSystemPrompt
	if field == "narrative" {
		system = narrativeSystemPrompt
	}

	showNames := make([]string, 0, len(chef.Shows))
	for _, link := range chef.Shows {
		if link.Show != nil {
			showNames = append(showNames, link.Show.Name)
		}
	}
	user := fmt.Sprintf("Chef: %s\nBio: %s\nShows: %s", chef.Name, truncate(chef.Bio, 800), strings.Join(showNames, ", "))

	obj, usage, err := s.client.GenerateJSON(ctx, system, user, "chef_"+field, textSchema(field))
	if err != nil {
		s.logCall(ctx, chef, "enrich_"+field, user, "", false, err.Error(), usage)
		return err
	}
	s.logCall(ctx, chef, "enrich_"+field, user, jsonString(obj), true, "", usage)

	text, ok := obj[field].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s output missing or empty", field)
	}

	if dryRun {
		s.log.Info("[dry-run] would write generated text", "chef", chef.Name, "field", field, "length", len(text))
		return nil
	}
	if err := s.chefRepo.UpdateFields(ctx, nil, chef.ID, map[string]any{field: text}); err != nil {
		return fmt.Errorf("write %s: %w", field, err)
	}
	if s.auditLogRepo != nil {
		if _, err := s.auditLogRepo.Create(ctx, nil, []*types.AuditLog{{
			TableName_: "chef",
			RecordID:   chef.ID,
			Action:     "enrich_" + field,
			Source:     types.AuditSourcePipeline,
		}}); err != nil {
			s.log.Warn("Failed to write enrichment audit entry", "error", err)
		}
	}
	return nil
}

func (s *enrichmentService) logCall(ctx context.Context, chef *types.Chef, callType, prompt, response string, success bool, errMsg string, usage TokenUsage) {
	if s.aiCallLogRepo == nil {
		return
	}
	usageJSON, _ := json.Marshal(usage)
	contextID := chef.ID
	_, err := s.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{{
		ContextID: &contextID,
		CallType:  callType,
		Model:     s.client.Model(),
		Prompt:    prompt,
		Response:  response,
		Success:   success,
		Error:     errMsg,
		Usage:     datatypes.JSON(usageJSON),
	}})
	if err != nil {
		s.log.Warn("Failed to record ai call log", "error", err)
	}
}
