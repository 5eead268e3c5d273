package repository

import (
	"context"
	"errors"

	"feedhub/internal/cache"
	"feedhub/internal/models"

	"gorm.io/gorm"
)

// AssetRepository defines storage operations for uploaded binary assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByRef(ctx context.Context, ref string) (*models.Asset, error)
	ExistsByRef(ctx context.Context, ref string) (bool, error)
	DeleteByRef(ctx context.Context, ref string) error
}

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository returns a repository implementation for asset metadata.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *assetRepository) GetByRef(ctx context.Context, ref string) (*models.Asset, error) {
	var asset models.Asset
	key := cache.AssetKey(ref)

	err := cache.CacheAside(ctx, key, &asset, cache.AssetTTL, func() error {
		return r.db.WithContext(ctx).Where("ref = ?", ref).First(&asset).Error
	})
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) ExistsByRef(ctx context.Context, ref string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("ref = ?", ref).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *assetRepository) DeleteByRef(ctx context.Context, ref string) error {
	res := r.db.WithContext(ctx).Where("ref = ?", ref).Delete(&models.Asset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateAsset(ctx, ref)
	return nil
}

// IsNotFound reports whether err is the storage layer's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
