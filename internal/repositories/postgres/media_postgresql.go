package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

type MediaPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewMediaPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.MediaRepository {
	return &MediaPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// Upsert creates the slot or replaces its url, alt text and mime type.
func (r *MediaPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, asset *models.MediaAsset) error {
	err := getDB(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "alt_text", "mime_type", "updated_at"}),
		}).
		Create(asset).Error
	if err != nil {
		return fmt.Errorf("failed to upsert media asset: %w", err)
	}
	return nil
}

func (r *MediaPostgreSQL) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*models.MediaAsset, error) {
	db := getDB(r.db, tx)
	var asset models.MediaAsset

	err := r.cacheManager.Catalog.CacheOrExecute(ctx, cache.MediaKey(key), &asset, cache.CatalogCacheConfig.TTL, func() (interface{}, error) {
		var dbAsset models.MediaAsset
		if err := db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&dbAsset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("media %q: %w", key, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get media asset: %w", err)
		}
		return &dbAsset, nil
	})
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *MediaPostgreSQL) DeleteByKey(ctx context.Context, tx *gorm.DB, key string) error {
	result := getDB(r.db, tx).WithContext(ctx).Where(map[string]interface{}{"key": key}).Delete(&models.MediaAsset{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete media asset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("media %q: %w", key, repositories.ErrNotFound)
	}
	return nil
}

func (r *MediaPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.MediaAsset, error) {
	var assets []*models.MediaAsset
	if err := getDB(r.db, tx).WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list media assets: %w", err)
	}
	return assets, nil
}
