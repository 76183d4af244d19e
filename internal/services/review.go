package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	redisclient "github.com/platewire/tvchefs-backend/internal/clients/redis"
	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

// GroupMember is one record inside a pending duplicate group, scored for
// completeness so the UI can preselect a keeper.
type GroupMember struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Website   string    `json:"website,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
	Protected bool      `json:"protected"`
	Score     int       `json:"score"`
}

type DuplicateGroup struct {
	ID                uuid.UUID     `json:"id"`
	EntityType        string        `json:"entity_type"`
	Similarity        float64       `json:"similarity"`
	Confidence        float64       `json:"confidence"`
	Reasoning         string        `json:"reasoning"`
	Members           []GroupMember `json:"members"`
	RecommendedKeeper *uuid.UUID    `json:"recommended_keeper,omitempty"`
}

type GroupResolution struct {
	Merged   bool          `json:"merged"`
	Rejected bool          `json:"rejected"`
	Reports  []MergeReport `json:"reports,omitempty"`
}

// ReviewService answers "what are the candidates" and "execute this specific
// merge" for the admin surface. It does not drive UI flow.
type ReviewService interface {
	ListPendingGroups(ctx context.Context, entityType string) ([]*DuplicateGroup, error)
	ResolveGroup(ctx context.Context, groupID uuid.UUID, keeperIDs, loserIDs []uuid.UUID, dryRun bool) (*GroupResolution, error)
	ResolveDirect(ctx context.Context, winnerID, loserID uuid.UUID, dryRun bool) (*MergeReport, error)
}

type reviewService struct {
	log            *logger.Logger
	chefRepo       repos.ChefRepo
	restaurantRepo repos.RestaurantRepo
	candidateRepo  repos.DuplicateCandidateRepo
	strategist     MergeStrategist
	executor       MergeExecutor
	cache          redisclient.Cache
}

func NewReviewService(
	baseLog *logger.Logger,
	chefRepo repos.ChefRepo,
	restaurantRepo repos.RestaurantRepo,
	candidateRepo repos.DuplicateCandidateRepo,
	strategist MergeStrategist,
	executor MergeExecutor,
	cache redisclient.Cache,
) ReviewService {
	serviceLog := baseLog.With("service", "ReviewService")
	return &reviewService{
		log:            serviceLog,
		chefRepo:       chefRepo,
		restaurantRepo: restaurantRepo,
		candidateRepo:  candidateRepo,
		strategist:     strategist,
		executor:       executor,
		cache:          cache,
	}
}

// RestaurantCompleteness scores how "filled in" a restaurant record is. The
// highest-scored member of a group becomes the recommended keeper.
func RestaurantCompleteness(r *types.Restaurant) int {
	score := 0
	if r.GooglePlaceID != "" {
		score += 10
	}
	if r.PhotoCount > 0 {
		score += 5
	}
	if r.Rating > 0 {
		score += 3
	}
	if r.Website != "" {
		score += 2
	}
	if r.Status == types.RestaurantStatusOpen {
		score++
	}
	return score
}

// ChefCompleteness is the chef-side analog of RestaurantCompleteness.
func ChefCompleteness(c *types.Chef, restaurantCount int) int {
	score := 0
	if c.PhotoURL != "" {
		score += 5
	}
	if c.Bio != "" {
		score += 3
	}
	if c.Narrative != "" {
		score += 2
	}
	score += restaurantCount
	return score
}

func reviewCacheKey(entityType string) string {
	return "review:groups:" + entityType
}

func (s *reviewService) ListPendingGroups(ctx context.Context, entityType string) ([]*DuplicateGroup, error) {
	if s.cache != nil {
		var cached []*DuplicateGroup
		hit, err := s.cache.GetJSON(ctx, reviewCacheKey(entityType), &cached)
		if err != nil {
			s.log.Warn("Review cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	candidates, err := s.candidateRepo.ListByStatus(ctx, nil, entityType, types.CandidateStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending candidates: %w", err)
	}

	groups := make([]*DuplicateGroup, 0, len(candidates))
	for _, candidate := range candidates {
		group, err := s.buildGroup(ctx, candidate)
		if err != nil {
			s.log.Warn("Skipping unresolvable duplicate group", "candidate", candidate.ID, "error", err)
			continue
		}
		groups = append(groups, group)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, reviewCacheKey(entityType), groups, time.Minute); err != nil {
			s.log.Warn("Review cache write failed", "error", err)
		}
	}
	return groups, nil
}

func (s *reviewService) buildGroup(ctx context.Context, candidate *types.DuplicateCandidate) (*DuplicateGroup, error) {
	memberIDs, err := decodeMemberIDs(candidate.MemberIDs)
	if err != nil {
		return nil, err
	}

	group := &DuplicateGroup{
		ID:         candidate.ID,
		EntityType: candidate.EntityType,
		Similarity: candidate.Similarity,
		Confidence: candidate.Confidence,
		Reasoning:  candidate.Reasoning,
	}

	switch candidate.EntityType {
	case types.EntityTypeRestaurant:
		restaurants, err := s.restaurantRepo.GetByIDs(ctx, nil, memberIDs)
		if err != nil {
			return nil, err
		}
		if len(restaurants) < 2 {
			return nil, fmt.Errorf("group %s has %d resolvable members", candidate.ID, len(restaurants))
		}
		for _, r := range restaurants {
			group.Members = append(group.Members, GroupMember{
				ID:        r.ID,
				Name:      r.Name,
				City:      r.City,
				State:     r.State,
				Website:   r.Website,
				Rating:    r.Rating,
				Protected: r.Protected,
				Score:     RestaurantCompleteness(r),
			})
		}
	case types.EntityTypeChef:
		chefs, err := s.chefRepo.GetByIDs(ctx, nil, memberIDs)
		if err != nil {
			return nil, err
		}
		if len(chefs) < 2 {
			return nil, fmt.Errorf("group %s has %d resolvable members", candidate.ID, len(chefs))
		}
		counts, err := s.restaurantRepo.CountByChefIDs(ctx, nil, memberIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range chefs {
			group.Members = append(group.Members, GroupMember{
				ID:        c.ID,
				Name:      c.Name,
				Protected: c.Protected,
				Score:     ChefCompleteness(c, counts[c.ID]),
			})
		}
	default:
		return nil, fmt.Errorf("unknown entity type %q", candidate.EntityType)
	}

	group.RecommendedKeeper = RecommendKeeper(group.Members)
	return group, nil
}

// RecommendKeeper picks the highest-scored member. A protected member always
// wins over unprotected ones regardless of score: the automated pipeline must
// never recommend a protected record as a loser.
func RecommendKeeper(members []GroupMember) *uuid.UUID {
	if len(members) == 0 {
		return nil
	}
	best := members[0]
	for _, m := range members[1:] {
		if m.Protected != best.Protected {
			if m.Protected {
				best = m
			}
			continue
		}
		if m.Score > best.Score {
			best = m
		}
	}
	id := best.ID
	return &id
}

func (s *reviewService) ResolveGroup(ctx context.Context, groupID uuid.UUID, keeperIDs, loserIDs []uuid.UUID, dryRun bool) (*GroupResolution, error) {
	candidates, err := s.candidateRepo.GetByIDs(ctx, nil, []uuid.UUID{groupID})
	if err != nil {
		return nil, fmt.Errorf("load candidate group: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("duplicate group %s not found", groupID)
	}
	candidate := candidates[0]
	if candidate.Status != types.CandidateStatusPending && candidate.Status != types.CandidateStatusNeedsReview {
		return nil, fmt.Errorf("duplicate group %s already resolved (%s)", groupID, candidate.Status)
	}

	if err := s.validateSelection(candidate, keeperIDs, loserIDs); err != nil {
		// Validation failures park the group for a human; there is no
		// automatic retry back to pending.
		if !dryRun {
			if setErr := s.candidateRepo.SetStatus(ctx, nil, candidate.ID, types.CandidateStatusNeedsReview, resolutionJSON(map[string]any{"error": err.Error()})); setErr != nil {
				s.log.Error("Failed to park group as needs_review", "group", candidate.ID, "error", setErr)
			}
		}
		return nil, err
	}

	// Keeping every member means there is nothing to merge: the group is a
	// false positive.
	if len(loserIDs) == 0 {
		if !dryRun {
			if err := s.candidateRepo.SetStatus(ctx, nil, candidate.ID, types.CandidateStatusRejected, resolutionJSON(map[string]any{"kept": keeperIDs})); err != nil {
				return nil, fmt.Errorf("mark group rejected: %w", err)
			}
			s.invalidateCache(ctx, candidate.EntityType)
		}
		return &GroupResolution{Rejected: true}, nil
	}

	primaryKeeper := keeperIDs[0]
	resolution := &GroupResolution{}
	for _, loserID := range loserIDs {
		report, err := s.mergePair(ctx, candidate.EntityType, primaryKeeper, loserID, dryRun)
		if err != nil {
			return nil, fmt.Errorf("merge %s into %s: %w", loserID, primaryKeeper, err)
		}
		resolution.Reports = append(resolution.Reports, *report)
	}
	resolution.Merged = true

	if !dryRun {
		detail := map[string]any{"keeper": primaryKeeper, "losers": loserIDs}
		if err := s.candidateRepo.SetStatus(ctx, nil, candidate.ID, types.CandidateStatusMerged, resolutionJSON(detail)); err != nil {
			return nil, fmt.Errorf("mark group merged: %w", err)
		}
		s.invalidateCache(ctx, candidate.EntityType)
	}
	return resolution, nil
}

// ResolveDirect is the legacy two-record form: no candidate row, the operator
// names a winner and a loser outright.
func (s *reviewService) ResolveDirect(ctx context.Context, winnerID, loserID uuid.UUID, dryRun bool) (*MergeReport, error) {
	chefs, err := s.chefRepo.GetByIDs(ctx, nil, []uuid.UUID{winnerID, loserID})
	if err != nil {
		return nil, fmt.Errorf("resolve record type: %w", err)
	}
	entityType := types.EntityTypeRestaurant
	if len(chefs) == 2 {
		entityType = types.EntityTypeChef
	}
	report, err := s.mergePair(ctx, entityType, winnerID, loserID, dryRun)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		s.invalidateCache(ctx, entityType)
	}
	return report, nil
}

func (s *reviewService) mergePair(ctx context.Context, entityType string, keeperID, loserID uuid.UUID, dryRun bool) (*MergeReport, error) {
	a, aShows, err := s.loadRecord(ctx, entityType, keeperID)
	if err != nil {
		return nil, err
	}
	b, bShows, err := s.loadRecord(ctx, entityType, loserID)
	if err != nil {
		return nil, err
	}

	decision, err := s.strategist.PlanMerge(ctx, a, b, aShows, bShows)
	if err != nil {
		return nil, err
	}
	// The operator's choice overrides the strategist's keeper preference; the
	// strategist still resolves the merged field values.
	if decision.KeeperID != keeperID {
		decision.KeeperID, decision.LoserID = keeperID, loserID
	}
	return s.executor.Execute(ctx, decision, dryRun, types.AuditSourceReview)
}

func (s *reviewService) loadRecord(ctx context.Context, entityType string, id uuid.UUID) (DuplicateRecord, []*types.ChefShow, error) {
	switch entityType {
	case types.EntityTypeChef:
		chefs, err := s.chefRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
		if err != nil {
			return DuplicateRecord{}, nil, err
		}
		if len(chefs) == 0 {
			return DuplicateRecord{}, nil, fmt.Errorf("chef %s not found", id)
		}
		chef := chefs[0]
		counts, err := s.restaurantRepo.CountByChefIDs(ctx, nil, []uuid.UUID{id})
		if err != nil {
			return DuplicateRecord{}, nil, err
		}
		showNames := make([]string, 0, len(chef.Shows))
		for _, link := range chef.Shows {
			if link.Show != nil {
				showNames = append(showNames, link.Show.Name)
			}
		}
		return DuplicateRecord{
			EntityType:      types.EntityTypeChef,
			ID:              chef.ID,
			Name:            chef.Name,
			Protected:       chef.Protected,
			Bio:             chef.Bio,
			PhotoURL:        chef.PhotoURL,
			RestaurantCount: counts[chef.ID],
			ShowNames:       showNames,
		}, chef.Shows, nil

	case types.EntityTypeRestaurant:
		restaurants, err := s.restaurantRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
		if err != nil {
			return DuplicateRecord{}, nil, err
		}
		if len(restaurants) == 0 {
			return DuplicateRecord{}, nil, fmt.Errorf("restaurant %s not found", id)
		}
		rest := restaurants[0]
		return DuplicateRecord{
			EntityType:  types.EntityTypeRestaurant,
			ID:          rest.ID,
			Name:        rest.Name,
			Protected:   rest.Protected,
			City:        rest.City,
			State:       rest.State,
			Address:     rest.Address,
			Website:     rest.Website,
			Rating:      rest.Rating,
			ReviewCount: rest.ReviewCount,
			PhotoCount:  rest.PhotoCount,
			PlaceID:     rest.GooglePlaceID,
			Status:      rest.Status,
		}, nil, nil
	}
	return DuplicateRecord{}, nil, fmt.Errorf("unknown entity type %q", entityType)
}

// validateSelection checks the operator's keeper/loser choice against the
// group's membership: every id must be a member, no id may appear on both
// sides, and at least one keeper must remain.
func (s *reviewService) validateSelection(candidate *types.DuplicateCandidate, keeperIDs, loserIDs []uuid.UUID) error {
	memberIDs, err := decodeMemberIDs(candidate.MemberIDs)
	if err != nil {
		return err
	}
	members := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}

	if len(keeperIDs) == 0 {
		return fmt.Errorf("at least one keeper is required")
	}
	seen := make(map[uuid.UUID]string)
	for _, id := range keeperIDs {
		if !members[id] {
			return fmt.Errorf("keeper %s is not a member of group %s", id, candidate.ID)
		}
		seen[id] = "keeper"
	}
	for _, id := range loserIDs {
		if !members[id] {
			return fmt.Errorf("loser %s is not a member of group %s", id, candidate.ID)
		}
		if seen[id] == "keeper" {
			return fmt.Errorf("record %s cannot be both keeper and loser", id)
		}
	}
	return nil
}

func (s *reviewService) invalidateCache(ctx context.Context, entityType string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, reviewCacheKey(entityType)); err != nil {
		s.log.Warn("Review cache invalidation failed", "error", err)
	}
}

func decodeMemberIDs(raw datatypes.JSON) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode member ids: %w", err)
	}
	if len(ids) < 2 {
		return nil, fmt.Errorf("group has %d member ids, need at least 2", len(ids))
	}
	return ids, nil
}

func resolutionJSON(detail map[string]any) datatypes.JSON {
	raw, err := json.Marshal(detail)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
