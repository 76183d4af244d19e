package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
	"github.com/platewire/tvchefs-backend/internal/utils"
)

type ShowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, shows []*types.Show) ([]*types.Show, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, showIDs []uuid.UUID) ([]*types.Show, error)
	GetOrCreateByName(ctx context.Context, tx *gorm.DB, name, network string) (*types.Show, error)
}

type showRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShowRepo(db *gorm.DB, baseLog *logger.Logger) ShowRepo {
	repoLog := baseLog.With("repo", "ShowRepo")
	return &showRepo{db: db, log: repoLog}
}

func (r *showRepo) Create(ctx context.Context, tx *gorm.DB, shows []*types.Show) ([]*types.Show, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(shows) == 0 {
		return []*types.Show{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&shows).Error; err != nil {
		return nil, err
	}
	return shows, nil
}

func (r *showRepo) GetByIDs(ctx context.Context, tx *gorm.DB, showIDs []uuid.UUID) ([]*types.Show, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Show
	if len(showIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", showIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *showRepo) GetOrCreateByName(ctx context.Context, tx *gorm.DB, name, network string) (*types.Show, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	slug := utils.Slugify(name)
	var existing types.Show
	err := transaction.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	show := &types.Show{
		ID:      uuid.New(),
		Name:    name,
		Slug:    slug,
		Network: network,
	}
	if err := transaction.WithContext(ctx).Create(show).Error; err != nil {
		return nil, err
	}
	return show, nil
}
