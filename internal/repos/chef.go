package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type ChefRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chefs []*types.Chef) ([]*types.Chef, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) ([]*types.Chef, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Chef, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Chef, error)
	ListPublic(ctx context.Context, tx *gorm.DB) ([]*types.Chef, error)
	ListMissingEnrichment(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Chef, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, chefID uuid.UUID, fields map[string]any) error
}

type chefRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChefRepo(db *gorm.DB, baseLog *logger.Logger) ChefRepo {
	repoLog := baseLog.With("repo", "ChefRepo")
	return &chefRepo{db: db, log: repoLog}
}

func (r *chefRepo) Create(ctx context.Context, tx *gorm.DB, chefs []*types.Chef) ([]*types.Chef, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chefs) == 0 {
		return []*types.Chef{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&chefs).Error; err != nil {
		return nil, err
	}
	return chefs, nil
}

func (r *chefRepo) GetByIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) ([]*types.Chef, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chef
	if len(chefIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Shows").
		Preload("Shows.Show").
		Where("id IN ?", chefIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chefRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Chef, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Chef
	if err := transaction.WithContext(ctx).
		Preload("Shows").
		Preload("Shows.Show").
		Preload("Restaurants").
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *chefRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Chef, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chef
	if err := transaction.WithContext(ctx).
		Preload("Shows").
		Preload("Shows.Show").
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chefRepo) ListPublic(ctx context.Context, tx *gorm.DB) ([]*types.Chef, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chef
	if err := transaction.WithContext(ctx).
		Where("is_public = ?", true).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chefRepo) ListMissingEnrichment(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Chef, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chef
	query := transaction.WithContext(ctx).
		Preload("Shows.Show").
		Where("blurb = '' OR narrative = ''").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chefRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Chef{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *chefRepo) UpdateFields(ctx context.Context, tx *gorm.DB, chefID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Chef{}).
		Where("id = ?", chefID).
		Updates(fields).Error
}
