package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type StagedDiscoveryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, discoveries []*types.StagedDiscovery) ([]*types.StagedDiscovery, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, discoveryIDs []uuid.UUID) ([]*types.StagedDiscovery, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.StagedDiscovery, error)
	SetStatus(ctx context.Context, tx *gorm.DB, discoveryID uuid.UUID, status, reviewError string) error
}

type stagedDiscoveryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStagedDiscoveryRepo(db *gorm.DB, baseLog *logger.Logger) StagedDiscoveryRepo {
	repoLog := baseLog.With("repo", "StagedDiscoveryRepo")
	return &stagedDiscoveryRepo{db: db, log: repoLog}
}

func (r *stagedDiscoveryRepo) Create(ctx context.Context, tx *gorm.DB, discoveries []*types.StagedDiscovery) ([]*types.StagedDiscovery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(discoveries) == 0 {
		return []*types.StagedDiscovery{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&discoveries).Error; err != nil {
		return nil, err
	}
	return discoveries, nil
}

func (r *stagedDiscoveryRepo) GetByIDs(ctx context.Context, tx *gorm.DB, discoveryIDs []uuid.UUID) ([]*types.StagedDiscovery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StagedDiscovery
	if len(discoveryIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", discoveryIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stagedDiscoveryRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.StagedDiscovery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StagedDiscovery
	if err := transaction.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stagedDiscoveryRepo) SetStatus(ctx context.Context, tx *gorm.DB, discoveryID uuid.UUID, status, reviewError string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.StagedDiscovery{}).
		Where("id = ?", discoveryID).
		Updates(map[string]any{"status": status, "review_error": reviewError}).Error
}
