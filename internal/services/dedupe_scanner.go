package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"

	redisclient "github.com/platewire/tvchefs-backend/internal/clients/redis"
	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

// ScanOptions configures one dedupe scan. Thresholds are per call site on
// purpose; the scan script and the review surface use different defaults.
type ScanOptions struct {
	MinSimilarity float64
	MinConfidence float64
	DryRun        bool
	Interactive   bool
}

func DefaultScanOptions() ScanOptions {
	return ScanOptions{MinSimilarity: 0.7, MinConfidence: 0.9}
}

// ConfirmedPair is one verifier-confirmed duplicate pair.
type ConfirmedPair struct {
	A          DuplicateRecord
	B          DuplicateRecord
	Similarity float64
	Confidence float64
	Reasoning  string
}

// PairFailure records a verifier failure that did not stop the scan.
type PairFailure struct {
	AID   uuid.UUID
	BID   uuid.UUID
	Error string
}

type ScanReport struct {
	EntityType      string
	RecordCount     int
	PairsTotal      int
	PairsVerified   int
	Confirmed       []ConfirmedPair
	Failures        []PairFailure
	CandidatesSaved int
}

type DedupeScanner interface {
	Scan(ctx context.Context, entityType string, opts ScanOptions) (*ScanReport, error)
}

type dedupeScanner struct {
	log            *logger.Logger
	verifier       DedupeVerifier
	chefRepo       repos.ChefRepo
	restaurantRepo repos.RestaurantRepo
	candidateRepo  repos.DuplicateCandidateRepo
	auditLogRepo   repos.AuditLogRepo
	locker         redisclient.Locker
	limiter        *rate.Limiter
}

func NewDedupeScanner(
	baseLog *logger.Logger,
	verifier DedupeVerifier,
	chefRepo repos.ChefRepo,
	restaurantRepo repos.RestaurantRepo,
	candidateRepo repos.DuplicateCandidateRepo,
	auditLogRepo repos.AuditLogRepo,
	locker redisclient.Locker,
	verifierInterval time.Duration,
) DedupeScanner {
	serviceLog := baseLog.With("service", "DedupeScanner")
	if verifierInterval <= 0 {
		verifierInterval = 2 * time.Second
	}
	return &dedupeScanner{
		log:            serviceLog,
		verifier:       verifier,
		chefRepo:       chefRepo,
		restaurantRepo: restaurantRepo,
		candidateRepo:  candidateRepo,
		auditLogRepo:   auditLogRepo,
		locker:         locker,
		limiter:        rate.NewLimiter(rate.Every(verifierInterval), 1),
	}
}

func (s *dedupeScanner) Scan(ctx context.Context, entityType string, opts ScanOptions) (*ScanReport, error) {
	if entityType != types.EntityTypeChef && entityType != types.EntityTypeRestaurant {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	if s.locker != nil {
		lockKey := "dedupe:scan:" + entityType
		acquired, err := s.locker.Acquire(ctx, lockKey, 30*time.Minute)
		if err != nil {
			s.log.Warn("Scan lock unavailable, continuing without it", "error", err)
		} else if !acquired {
			return nil, fmt.Errorf("a %s scan is already running", entityType)
		} else {
			defer s.locker.Release(ctx, lockKey)
		}
	}

	records, err := s.loadRecords(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", entityType, err)
	}
	s.log.Info("Starting dedupe scan",
		"entity_type", entityType,
		"records", len(records),
		"min_similarity", opts.MinSimilarity,
		"min_confidence", opts.MinConfidence,
		"dry_run", opts.DryRun,
	)

	report := s.scanPairs(ctx, entityType, records, opts)

	if !opts.DryRun {
		if err := s.persist(ctx, report); err != nil {
			return report, fmt.Errorf("persist candidates: %w", err)
		}
	}
	return report, nil
}

// scanPairs enumerates unordered pairs (i<j). The similarity gate is the cost
// control: the verifier is only called for pairs at or above the threshold.
// A verifier failure for one pair never aborts the rest of the scan.
func (s *dedupeScanner) scanPairs(ctx context.Context, entityType string, records []DuplicateRecord, opts ScanOptions) *ScanReport {
	report := &ScanReport{EntityType: entityType, RecordCount: len(records)}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			report.PairsTotal++
			a, b := records[i], records[j]

			similarity := NameSimilarity(a.Name, b.Name)
			if similarity < opts.MinSimilarity {
				continue
			}

			if err := s.limiter.Wait(ctx); err != nil {
				report.Failures = append(report.Failures, PairFailure{AID: a.ID, BID: b.ID, Error: err.Error()})
				return report
			}

			report.PairsVerified++
			result := s.verifier.VerifyPair(ctx, a, b)
			if result.Failed {
				report.Failures = append(report.Failures, PairFailure{AID: a.ID, BID: b.ID, Error: result.Reasoning})
				continue
			}
			if !result.IsDuplicate || result.Confidence < opts.MinConfidence {
				continue
			}

			s.log.Info("Confirmed duplicate pair",
				"entity_type", entityType,
				"a", a.Name,
				"b", b.Name,
				"similarity", similarity,
				"confidence", result.Confidence,
			)
			if opts.Interactive {
				fmt.Printf("confirmed %.2f: %q <-> %q\n  %s\n", result.Confidence, a.Name, b.Name, result.Reasoning)
			}
			report.Confirmed = append(report.Confirmed, ConfirmedPair{
				A:          a,
				B:          b,
				Similarity: similarity,
				Confidence: result.Confidence,
				Reasoning:  result.Reasoning,
			})
		}
	}
	return report
}

func (s *dedupeScanner) loadRecords(ctx context.Context, entityType string) ([]DuplicateRecord, error) {
	switch entityType {
	case types.EntityTypeChef:
		chefs, err := s.chefRepo.GetAll(ctx, nil)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(chefs))
		for _, chef := range chefs {
			ids = append(ids, chef.ID)
		}
		counts, err := s.restaurantRepo.CountByChefIDs(ctx, nil, ids)
		if err != nil {
			return nil, err
		}
		records := make([]DuplicateRecord, 0, len(chefs))
		for _, chef := range chefs {
			showNames := make([]string, 0, len(chef.Shows))
			for _, link := range chef.Shows {
				if link.Show != nil {
					showNames = append(showNames, link.Show.Name)
				}
			}
			records = append(records, DuplicateRecord{
				EntityType:      types.EntityTypeChef,
				ID:              chef.ID,
				Name:            chef.Name,
				Protected:       chef.Protected,
				Bio:             chef.Bio,
				PhotoURL:        chef.PhotoURL,
				RestaurantCount: counts[chef.ID],
				ShowNames:       showNames,
			})
		}
		return records, nil

	case types.EntityTypeRestaurant:
		restaurants, err := s.restaurantRepo.GetAll(ctx, nil)
		if err != nil {
			return nil, err
		}
		records := make([]DuplicateRecord, 0, len(restaurants))
		for _, rest := range restaurants {
			records = append(records, DuplicateRecord{
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
			})
		}
		return records, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}

func (s *dedupeScanner) persist(ctx context.Context, report *ScanReport) error {
	for _, pair := range report.Confirmed {
		exists, err := s.candidateRepo.HasPendingForMembers(ctx, nil, report.EntityType, []uuid.UUID{pair.A.ID, pair.B.ID})
		if err != nil {
			return err
		}
		if exists {
			s.log.Debug("Pair already has a pending candidate, skipping", "a", pair.A.ID, "b", pair.B.ID)
			continue
		}
		memberIDs, err := json.Marshal([]uuid.UUID{pair.A.ID, pair.B.ID})
		if err != nil {
			return err
		}
		candidates, err := s.candidateRepo.Create(ctx, nil, []*types.DuplicateCandidate{{
			EntityType: report.EntityType,
			MemberIDs:  datatypes.JSON(memberIDs),
			Similarity: pair.Similarity,
			Confidence: pair.Confidence,
			Reasoning:  pair.Reasoning,
			Status:     types.CandidateStatusPending,
		}})
		if err != nil {
			return err
		}
		report.CandidatesSaved++

		if s.auditLogRepo != nil && len(candidates) == 1 {
			confidence := pair.Confidence
			detail, _ := json.Marshal(map[string]any{"a": pair.A.ID, "b": pair.B.ID})
			if _, err := s.auditLogRepo.Create(ctx, nil, []*types.AuditLog{{
				TableName_: "duplicate_candidate",
				RecordID:   candidates[0].ID,
				Action:     "scan_confirmed",
				Source:     types.AuditSourcePipeline,
				Confidence: &confidence,
				Detail:     datatypes.JSON(detail),
			}}); err != nil {
				s.log.Warn("Failed to write audit entry for candidate", "error", err)
			}
		}
	}
	return nil
}
