package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

type CategoryPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCategoryPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CategoryRepository {
	return &CategoryPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *CategoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *CategoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	if err := getDB(r.db, tx).WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *CategoryPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error) {
	var category models.Category
	if err := getDB(r.db, tx).WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %q: %w", slug, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

func (r *CategoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	result := getDB(r.db, tx).WithContext(ctx).Model(category).
		Select("name", "slug", "description").
		Updates(category)
	if result.Error != nil {
		return fmt.Errorf("failed to update category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %d: %w", category.ID, repositories.ErrNotFound)
	}
	return nil
}

func (r *CategoryPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

type categoryWithCount struct {
	models.Category
	Courses int64 `gorm:"column:course_count"`
}

// List returns every category ordered by name with its course count, cached in the catalog.
func (r *CategoryPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	db := getDB(r.db, tx)
	var categories []*models.Category

	err := r.cacheManager.Catalog.CacheOrExecute(ctx, cache.CategoryListKey, &categories, cache.CatalogCacheConfig.TTL, func() (interface{}, error) {
		var rows []categoryWithCount
		err := db.WithContext(ctx).
			Model(&models.Category{}).
			Select("categories.*, COUNT(courses.id) AS course_count").
			Joins("LEFT JOIN courses ON courses.category_id = categories.id").
			Group("categories.id").
			Order("categories.name ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}

		result := make([]*models.Category, len(rows))
		for i := range rows {
			c := rows[i].Category
			c.CourseCount = rows[i].Courses
			result[i] = &c
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

func (r *CategoryPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return count > 0, nil
}
