package repos

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type DuplicateCandidateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, candidates []*types.DuplicateCandidate) ([]*types.DuplicateCandidate, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, candidateIDs []uuid.UUID) ([]*types.DuplicateCandidate, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, entityType, status string) ([]*types.DuplicateCandidate, error)
	SetStatus(ctx context.Context, tx *gorm.DB, candidateID uuid.UUID, status string, resolution datatypes.JSON) error
	HasPendingForMembers(ctx context.Context, tx *gorm.DB, entityType string, memberIDs []uuid.UUID) (bool, error)
}

type duplicateCandidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDuplicateCandidateRepo(db *gorm.DB, baseLog *logger.Logger) DuplicateCandidateRepo {
	repoLog := baseLog.With("repo", "DuplicateCandidateRepo")
	return &duplicateCandidateRepo{db: db, log: repoLog}
}

func (r *duplicateCandidateRepo) Create(ctx context.Context, tx *gorm.DB, candidates []*types.DuplicateCandidate) ([]*types.DuplicateCandidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(candidates) == 0 {
		return []*types.DuplicateCandidate{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *duplicateCandidateRepo) GetByIDs(ctx context.Context, tx *gorm.DB, candidateIDs []uuid.UUID) ([]*types.DuplicateCandidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DuplicateCandidate
	if len(candidateIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", candidateIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *duplicateCandidateRepo) ListByStatus(ctx context.Context, tx *gorm.DB, entityType, status string) ([]*types.DuplicateCandidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DuplicateCandidate
	query := transaction.WithContext(ctx).Where("status = ?", status)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if err := query.Order("confidence DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// HasPendingForMembers reports whether a pending candidate already covers
// exactly this member set. jsonb containment both ways makes the comparison
// order-insensitive.
func (r *duplicateCandidateRepo) HasPendingForMembers(ctx context.Context, tx *gorm.DB, entityType string, memberIDs []uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	raw, err := json.Marshal(memberIDs)
	if err != nil {
		return false, err
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.DuplicateCandidate{}).
		Where("entity_type = ? AND status = ?", entityType, types.CandidateStatusPending).
		Where("member_ids @> ?::jsonb AND member_ids <@ ?::jsonb", string(raw), string(raw)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *duplicateCandidateRepo) SetStatus(ctx context.Context, tx *gorm.DB, candidateID uuid.UUID, status string, resolution datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]any{"status": status}
	if resolution != nil {
		updates["resolution"] = resolution
	}
	return transaction.WithContext(ctx).
		Model(&types.DuplicateCandidate{}).
		Where("id = ?", candidateID).
		Updates(updates).Error
}
