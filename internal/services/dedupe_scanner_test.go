package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

// scriptedVerifier returns canned verdicts keyed by the pair's names and
// counts how many pairs it was asked about.
type scriptedVerifier struct {
	verdicts map[string]VerifyResult
	calls    int
}

func (v *scriptedVerifier) VerifyPair(ctx context.Context, a, b DuplicateRecord) VerifyResult {
	v.calls++
	if result, ok := v.verdicts[a.Name+"|"+b.Name]; ok {
		return result
	}
	return VerifyResult{IsDuplicate: false, Confidence: 0.5, Reasoning: "different entities"}
}

func testScanner(t *testing.T, verifier DedupeVerifier) *dedupeScanner {
	t.Helper()
	s := NewDedupeScanner(testLogger(t), verifier, nil, nil, nil, nil, nil, time.Microsecond)
	return s.(*dedupeScanner)
}

func TestScanPairs_SimilarityGateSkipsVerifier(t *testing.T) {
	verifier := &scriptedVerifier{}
	scanner := testScanner(t, verifier)

	records := []DuplicateRecord{
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Girl & The Goat"},
	}

	report := scanner.scanPairs(context.Background(), "restaurant", records, DefaultScanOptions())
	if report.PairsTotal != 3 {
		t.Fatalf("expected 3 pairs for 3 records, got %d", report.PairsTotal)
	}
	// Only Aba <-> Aba Chicago clears the 0.7 similarity gate.
	if report.PairsVerified != 1 {
		t.Fatalf("expected 1 verified pair, got %d", report.PairsVerified)
	}
	if verifier.calls != 1 {
		t.Fatalf("expected 1 verifier call, got %d", verifier.calls)
	}
}

func TestScanPairs_ConfidenceGate(t *testing.T) {
	verifier := &scriptedVerifier{verdicts: map[string]VerifyResult{
		"Aba|Aba Chicago": {IsDuplicate: true, Confidence: 0.85, Reasoning: "probably the same"},
	}}
	scanner := testScanner(t, verifier)

	records := []DuplicateRecord{
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago"},
	}

	report := scanner.scanPairs(context.Background(), "restaurant", records, DefaultScanOptions())
	if len(report.Confirmed) != 0 {
		t.Fatalf("0.85 confidence should not clear the 0.9 gate, got %d confirmed", len(report.Confirmed))
	}

	lowered := DefaultScanOptions()
	lowered.MinConfidence = 0.8
	report = scanner.scanPairs(context.Background(), "restaurant", records, lowered)
	if len(report.Confirmed) != 1 {
		t.Fatalf("0.85 confidence should clear a 0.8 gate, got %d confirmed", len(report.Confirmed))
	}
}

func TestScanPairs_FailureDoesNotStopScan(t *testing.T) {
	verifier := &scriptedVerifier{verdicts: map[string]VerifyResult{
		"Aba|Aba Chicago":    {Failed: true, Reasoning: "verifier error: timeout"},
		"Topolobampo|Topolo": {IsDuplicate: true, Confidence: 0.97, Reasoning: "shortened name"},
	}}
	scanner := testScanner(t, verifier)

	records := []DuplicateRecord{
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Topolobampo"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Topolo"},
	}

	report := scanner.scanPairs(context.Background(), "restaurant", records, DefaultScanOptions())
	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", len(report.Failures))
	}
	if len(report.Confirmed) != 1 {
		t.Fatalf("expected the later pair to still confirm, got %d", len(report.Confirmed))
	}
	if report.Confirmed[0].A.Name != "Topolobampo" {
		t.Fatalf("unexpected confirmed pair: %+v", report.Confirmed[0])
	}
}

func TestScanPairs_ZeroConfidenceVerdictIsNotAFailure(t *testing.T) {
	// An honest "not a duplicate" with zero confidence must not be counted
	// as a verifier failure; only results flagged Failed are.
	verifier := &scriptedVerifier{verdicts: map[string]VerifyResult{
		"Aba|Aba Chicago": {IsDuplicate: false, Confidence: 0, Reasoning: "different restaurants"},
	}}
	scanner := testScanner(t, verifier)

	records := []DuplicateRecord{
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba"},
		{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago"},
	}

	report := scanner.scanPairs(context.Background(), "restaurant", records, DefaultScanOptions())
	if len(report.Failures) != 0 {
		t.Fatalf("honest verdict recorded as failure: %+v", report.Failures)
	}
	if len(report.Confirmed) != 0 {
		t.Fatalf("expected no confirmations, got %d", len(report.Confirmed))
	}
}

func TestScan_RejectsUnknownEntityType(t *testing.T) {
	scanner := testScanner(t, &scriptedVerifier{})
	if _, err := scanner.Scan(context.Background(), "venue", DefaultScanOptions()); err == nil {
		t.Fatalf("expected error for unknown entity type")
	}
}

// fakeCandidateRepo tracks pending candidates by their (sorted) member set.
type fakeCandidateRepo struct {
	repos.DuplicateCandidateRepo
	pending map[string]bool
	created []*types.DuplicateCandidate
}

func memberKey(memberIDs []uuid.UUID) string {
	keys := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		keys = append(keys, id.String())
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

func (f *fakeCandidateRepo) Create(ctx context.Context, tx *gorm.DB, candidates []*types.DuplicateCandidate) ([]*types.DuplicateCandidate, error) {
	f.created = append(f.created, candidates...)
	return candidates, nil
}

func (f *fakeCandidateRepo) HasPendingForMembers(ctx context.Context, tx *gorm.DB, entityType string, memberIDs []uuid.UUID) (bool, error) {
	return f.pending[entityType+"|"+memberKey(memberIDs)], nil
}

func TestPersist_SkipsPairsWithPendingCandidates(t *testing.T) {
	a := DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Aba"}
	b := DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago"}
	c := DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Topolobampo"}
	d := DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Topolo"}

	candidateRepo := &fakeCandidateRepo{pending: map[string]bool{
		// The a/b pair was queued by an earlier scan, reversed member order.
		"restaurant|" + memberKey([]uuid.UUID{b.ID, a.ID}): true,
	}}
	s := NewDedupeScanner(testLogger(t), nil, nil, nil, candidateRepo, nil, nil, time.Microsecond).(*dedupeScanner)

	report := &ScanReport{
		EntityType: "restaurant",
		Confirmed: []ConfirmedPair{
			{A: a, B: b, Similarity: 0.9, Confidence: 0.95, Reasoning: "name variant"},
			{A: c, B: d, Similarity: 0.9, Confidence: 0.97, Reasoning: "shortened name"},
		},
	}
	if err := s.persist(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidateRepo.created) != 1 {
		t.Fatalf("expected 1 new candidate, got %d", len(candidateRepo.created))
	}
	if report.CandidatesSaved != 1 {
		t.Fatalf("expected CandidatesSaved 1, got %d", report.CandidatesSaved)
	}
}
