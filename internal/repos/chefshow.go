package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type ChefShowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, links []*types.ChefShow) ([]*types.ChefShow, error)
	Upsert(ctx context.Context, tx *gorm.DB, links []*types.ChefShow) error
	GetByChefIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) ([]*types.ChefShow, error)
}

type chefShowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChefShowRepo(db *gorm.DB, baseLog *logger.Logger) ChefShowRepo {
	repoLog := baseLog.With("repo", "ChefShowRepo")
	return &chefShowRepo{db: db, log: repoLog}
}

func (r *chefShowRepo) Create(ctx context.Context, tx *gorm.DB, links []*types.ChefShow) ([]*types.ChefShow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(links) == 0 {
		return []*types.ChefShow{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Upsert deduplicates on (chef_id, show_id, season) so re-running enrichment
// never produces a second row for the same appearance.
func (r *chefShowRepo) Upsert(ctx context.Context, tx *gorm.DB, links []*types.ChefShow) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(links) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chef_id"}, {Name: "show_id"}, {Name: "season"}},
			DoUpdates: clause.AssignmentColumns([]string{"result", "is_primary", "updated_at"}),
		}).
		Create(&links).Error
}

func (r *chefShowRepo) GetByChefIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) ([]*types.ChefShow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ChefShow
	if len(chefIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Show").
		Where("chef_id IN ?", chefIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
