package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
)

type RestaurantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, restaurants []*types.Restaurant) ([]*types.Restaurant, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, restaurantIDs []uuid.UUID) ([]*types.Restaurant, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Restaurant, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Restaurant, error)
	ListPublic(ctx context.Context, tx *gorm.DB) ([]*types.Restaurant, error)
	CountByChefIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) (map[uuid.UUID]int, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
}

type restaurantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRestaurantRepo(db *gorm.DB, baseLog *logger.Logger) RestaurantRepo {
	repoLog := baseLog.With("repo", "RestaurantRepo")
	return &restaurantRepo{db: db, log: repoLog}
}

func (r *restaurantRepo) Create(ctx context.Context, tx *gorm.DB, restaurants []*types.Restaurant) ([]*types.Restaurant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(restaurants) == 0 {
		return []*types.Restaurant{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepo) GetByIDs(ctx context.Context, tx *gorm.DB, restaurantIDs []uuid.UUID) ([]*types.Restaurant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Restaurant
	if len(restaurantIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", restaurantIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *restaurantRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Restaurant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Restaurant
	if err := transaction.WithContext(ctx).
		Preload("Chef").
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *restaurantRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Restaurant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Restaurant
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *restaurantRepo) ListPublic(ctx context.Context, tx *gorm.DB) ([]*types.Restaurant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Restaurant
	if err := transaction.WithContext(ctx).
		Where("is_public = ?", true).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *restaurantRepo) CountByChefIDs(ctx context.Context, tx *gorm.DB, chefIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	counts := make(map[uuid.UUID]int, len(chefIDs))
	if len(chefIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ChefID uuid.UUID
		Count  int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Restaurant{}).
		Select("chef_id, COUNT(*) AS count").
		Where("chef_id IN ?", chefIDs).
		Group("chef_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ChefID] = row.Count
	}
	return counts, nil
}

func (r *restaurantRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Restaurant{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
