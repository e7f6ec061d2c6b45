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

var courseSortColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"title":         true,
	"regular_price": true,
	"id":            true,
}

// courseColumns is every scalar column Update writes.
var courseColumns = []string{
	"title", "slug", "short_description", "long_description",
	"regular_price", "sale_price", "status", "category_id",
	"learning_outcomes", "prerequisites", "duration_weeks", "duration_hours",
	"image_url", "is_featured",
}

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(),
		cacheManager: cacheManager,
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := getDB(r.db, tx).WithContext(ctx).Omit("Category", "Modules").Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := getDB(r.db, tx).WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

func (r *CoursePostgreSQL) withContent(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("modules.order_index ASC, modules.id ASC")
		}).
		Preload("Modules.Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("topics.order_index ASC, topics.id ASC")
		})
}

func (r *CoursePostgreSQL) GetWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.withContent(getDB(r.db, tx).WithContext(ctx)).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get course content: %w", err)
	}
	return &course, nil
}

// GetPublishedBySlug loads a published course with its full content, through the course cache.
func (r *CoursePostgreSQL) GetPublishedBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error) {
	db := getDB(r.db, tx)
	var course models.Course

	err := r.cacheManager.Course.CacheOrExecute(ctx, cache.CourseSlugKey(slug), &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := r.withContent(db.WithContext(ctx)).
			Where("slug = ? AND status = ?", slug, models.CourseStatusPublished).
			First(&dbCourse).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("course %q: %w", slug, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get course by slug: %w", err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Course{ID: course.ID}).
		Select(courseColumns).
		Updates(course)
	if result.Error != nil {
		return fmt.Errorf("failed to update course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("course %d: %w", course.ID, repositories.ErrNotFound)
	}
	return nil
}

func (r *CoursePostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.CourseStatus) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update course status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// Delete removes the course row. Modules and topics are removed by the caller in the same transaction.
func (r *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// ===== LIST =====

type courseListPage struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
}

// List filters courses. Listings restricted to published courses are what the
// public site asks for, so those go through the catalog cache.
func (r *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := getDB(r.db, tx)

	fetch := func() (interface{}, error) {
		query := r.helpers.ApplyCourseFilters(db.WithContext(ctx).Model(&models.Course{}), filters)

		var total int64
		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count courses: %w", err)
		}

		var courses []*models.Course
		query = r.helpers.ApplyPaginationAndSort(query.Preload("Category"), courseSortColumns, "created_at",
			filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
		if err := query.Find(&courses).Error; err != nil {
			return nil, fmt.Errorf("failed to list courses: %w", err)
		}
		return &courseListPage{Courses: courses, Total: total}, nil
	}

	if filters.Status == nil || *filters.Status != models.CourseStatusPublished {
		page, err := fetch()
		if err != nil {
			return nil, 0, err
		}
		p := page.(*courseListPage)
		return p.Courses, p.Total, nil
	}

	var page courseListPage
	if err := r.cacheManager.Catalog.CacheOrExecute(ctx, cache.CourseListKey(courseFilterSignature(filters)), &page, cache.CatalogCacheConfig.TTL, fetch); err != nil {
		return nil, 0, err
	}
	return page.Courses, page.Total, nil
}

func courseFilterSignature(f repositories.CourseFilters) string {
	sig := fmt.Sprintf("%s|%s|%d|%d", f.SortBy, f.SortOrder, f.Limit, f.Offset)
	if f.CategoryID != nil {
		sig += fmt.Sprintf("|cat=%d", *f.CategoryID)
	}
	if f.CategorySlug != nil {
		sig += "|slug=" + *f.CategorySlug
	}
	if f.IsFeatured != nil {
		sig += fmt.Sprintf("|featured=%t", *f.IsFeatured)
	}
	if f.Search != "" {
		sig += "|q=" + f.Search
	}
	return sig
}

// ===== CHECKS =====

func (r *CoursePostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course slug: %w", err)
	}
	return count > 0, nil
}

func (r *CoursePostgreSQL) CountByCategory(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error) {
	var count int64
	err := getDB(r.db, tx).WithContext(ctx).Model(&models.Course{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count courses in category: %w", err)
	}
	return count, nil
}

func (r *CoursePostgreSQL) HasRegistrations(ctx context.Context, tx *gorm.DB, courseID uint) (bool, error) {
	var count int64
	err := getDB(r.db, tx).WithContext(ctx).Model(&models.Registration{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course registrations: %w", err)
	}
	return count > 0, nil
}
