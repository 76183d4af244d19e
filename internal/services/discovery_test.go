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

type fakeDiscoveryRepo struct {
	repos.StagedDiscoveryRepo
	rows     map[uuid.UUID]*types.StagedDiscovery
	statuses map[uuid.UUID]string
	errors   map[uuid.UUID]string
	created  []*types.StagedDiscovery
}

func newFakeDiscoveryRepo(rows ...*types.StagedDiscovery) *fakeDiscoveryRepo {
	f := &fakeDiscoveryRepo{
		rows:     make(map[uuid.UUID]*types.StagedDiscovery),
		statuses: make(map[uuid.UUID]string),
		errors:   make(map[uuid.UUID]string),
	}
	for _, row := range rows {
		f.rows[row.ID] = row
	}
	return f
}

func (f *fakeDiscoveryRepo) GetByIDs(ctx context.Context, tx *gorm.DB, discoveryIDs []uuid.UUID) ([]*types.StagedDiscovery, error) {
	out := make([]*types.StagedDiscovery, 0, len(discoveryIDs))
	for _, id := range discoveryIDs {
		if row, ok := f.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeDiscoveryRepo) Create(ctx context.Context, tx *gorm.DB, discoveries []*types.StagedDiscovery) ([]*types.StagedDiscovery, error) {
	f.created = append(f.created, discoveries...)
	return discoveries, nil
}

func (f *fakeDiscoveryRepo) SetStatus(ctx context.Context, tx *gorm.DB, discoveryID uuid.UUID, status, reviewError string) error {
	f.statuses[discoveryID] = status
	f.errors[discoveryID] = reviewError
	return nil
}

func testDiscoveryService(t *testing.T, repo repos.StagedDiscoveryRepo) DiscoveryService {
	t.Helper()
	return NewDiscoveryService(nil, testLogger(t), repo, nil, nil, nil, nil, nil)
}

func TestDiscoveryReview_Reject(t *testing.T) {
	row := &types.StagedDiscovery{
		ID:            uuid.New(),
		DiscoveryType: types.DiscoveryTypeShow,
		Status:        types.DiscoveryStatusPending,
	}
	repo := newFakeDiscoveryRepo(row)
	svc := testDiscoveryService(t, repo)

	reviewed, err := svc.Review(context.Background(), row.ID, DiscoveryActionReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewed.Status != types.DiscoveryStatusRejected {
		t.Fatalf("expected rejected status, got %q", reviewed.Status)
	}
	if repo.statuses[row.ID] != types.DiscoveryStatusRejected {
		t.Fatalf("rejection not persisted, got %q", repo.statuses[row.ID])
	}
}

func TestDiscoveryReview_UnknownAction(t *testing.T) {
	row := &types.StagedDiscovery{ID: uuid.New(), Status: types.DiscoveryStatusPending}
	svc := testDiscoveryService(t, newFakeDiscoveryRepo(row))

	if _, err := svc.Review(context.Background(), row.ID, "defer"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestDiscoveryReview_NotFound(t *testing.T) {
	svc := testDiscoveryService(t, newFakeDiscoveryRepo())
	if _, err := svc.Review(context.Background(), uuid.New(), DiscoveryActionApprove); err == nil {
		t.Fatalf("expected error for missing discovery")
	}
}

func TestDiscoveryReview_AlreadyReviewed(t *testing.T) {
	row := &types.StagedDiscovery{ID: uuid.New(), Status: types.DiscoveryStatusApproved}
	svc := testDiscoveryService(t, newFakeDiscoveryRepo(row))

	_, err := svc.Review(context.Background(), row.ID, DiscoveryActionApprove)
	if err == nil || !strings.Contains(err.Error(), "already reviewed") {
		t.Fatalf("expected already-reviewed error, got %v", err)
	}
}

func TestDiscoveryReview_ApprovalFailureParksForReview(t *testing.T) {
	// An unknown discovery type makes approval fail before any write; the
	// row must land in needs_review with the failure recorded.
	row := &types.StagedDiscovery{
		ID:            uuid.New(),
		DiscoveryType: "award",
		Status:        types.DiscoveryStatusPending,
	}
	repo := newFakeDiscoveryRepo(row)
	svc := testDiscoveryService(t, repo)

	reviewed, err := svc.Review(context.Background(), row.ID, DiscoveryActionApprove)
	if err != nil {
		t.Fatalf("approval failure should not surface as an error: %v", err)
	}
	if reviewed.Status != types.DiscoveryStatusNeedsReview {
		t.Fatalf("expected needs_review, got %q", reviewed.Status)
	}
	if repo.errors[row.ID] == "" {
		t.Fatalf("expected the failure reason to be persisted")
	}
}
