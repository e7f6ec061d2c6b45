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

type TestimonialPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTestimonialPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TestimonialRepository {
	return &TestimonialPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *TestimonialPostgreSQL) Create(ctx context.Context, tx *gorm.DB, testimonial *models.Testimonial) error {
	err := getDB(r.db, tx).WithContext(ctx).
		Omit("Registration").
		Create(testimonial).Error
	if err != nil {
		return fmt.Errorf("failed to create testimonial: %w", err)
	}
	return nil
}

func (r *TestimonialPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	if err := getDB(r.db, tx).WithContext(ctx).First(&testimonial, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("testimonial %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get testimonial: %w", err)
	}
	return &testimonial, nil
}

func (r *TestimonialPostgreSQL) Update(ctx context.Context, tx *gorm.DB, testimonial *models.Testimonial) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Testimonial{ID: testimonial.ID}).
		Select("content", "rating", "is_active", "is_featured").
		Updates(testimonial)
	if result.Error != nil {
		return fmt.Errorf("failed to update testimonial: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("testimonial %d: %w", testimonial.ID, repositories.ErrNotFound)
	}
	return nil
}

func (r *TestimonialPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.Testimonial{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete testimonial: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("testimonial %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

type testimonialPage struct {
	Testimonials []*models.Testimonial `json:"testimonials"`
	Total        int64                 `json:"total"`
}

// List returns testimonials featured first, then newest, each with its
// registration's user and course. Active-only pages are cached for the public site.
func (r *TestimonialPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestimonialFilters) ([]*models.Testimonial, int64, error) {
	db := getDB(r.db, tx)

	fetch := func() (interface{}, error) {
		query := db.WithContext(ctx).Model(&models.Testimonial{})
		if filters.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
		if filters.FeaturedOnly {
			query = query.Where("is_featured = ?", true)
		}

		var total int64
		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count testimonials: %w", err)
		}

		var testimonials []*models.Testimonial
		err := query.
			Preload("Registration").
			Preload("Registration.User").
			Preload("Registration.Course").
			Order("is_featured DESC").
			Order("created_at DESC").
			Order("id DESC").
			Limit(normalizeLimit(filters.Limit)).
			Offset(max(filters.Offset, 0)).
			Find(&testimonials).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list testimonials: %w", err)
		}
		return &testimonialPage{Testimonials: testimonials, Total: total}, nil
	}

	if !filters.ActiveOnly {
		page, err := fetch()
		if err != nil {
			return nil, 0, err
		}
		p := page.(*testimonialPage)
		return p.Testimonials, p.Total, nil
	}

	var page testimonialPage
	key := cache.TestimonialListKey(filters.FeaturedOnly, normalizeLimit(filters.Limit), max(filters.Offset, 0))
	if err := r.cacheManager.Catalog.CacheOrExecute(ctx, key, &page, cache.CatalogCacheConfig.TTL, fetch); err != nil {
		return nil, 0, err
	}
	return page.Testimonials, page.Total, nil
}
