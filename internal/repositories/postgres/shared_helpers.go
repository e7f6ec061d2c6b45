package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SharedHelpers contains query building shared by the repositories
type SharedHelpers struct{}

func NewSharedHelpers() *SharedHelpers {
	return &SharedHelpers{}
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection.
// Only columns in allowed may be sorted on; anything else falls back to defaultSort.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, allowed map[string]bool, defaultSort, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = defaultSort
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(sortBy + " " + sortOrder)
	if sortBy != "id" {
		query = query.Order("id " + sortOrder)
	}

	return query.Limit(normalizeLimit(limit)).Offset(max(offset, 0))
}

// LikePattern builds a case-insensitive LIKE argument, escaping wildcards.
// Pair it with LOWER(column) LIKE ? so the query runs on postgres and sqlite.
func (h *SharedHelpers) LikePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	term = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + term + "%"
}

func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("courses.status = ?", *filters.Status)
	}
	if filters.CategoryID != nil {
		query = query.Where("courses.category_id = ?", *filters.CategoryID)
	}
	if filters.CategorySlug != nil {
		query = query.Where("courses.category_id IN (?)",
			query.Session(&gorm.Session{NewDB: true}).Table("categories").Select("id").Where("slug = ?", *filters.CategorySlug))
	}
	if filters.IsFeatured != nil {
		query = query.Where("courses.is_featured = ?", *filters.IsFeatured)
	}
	if filters.Search != "" {
		like := h.LikePattern(filters.Search)
		query = query.Where("(LOWER(courses.title) LIKE ? ESCAPE '\\' OR LOWER(courses.short_description) LIKE ? ESCAPE '\\')", like, like)
	}
	return query
}

func (h *SharedHelpers) ApplyRegistrationFilters(query *gorm.DB, filters repositories.RegistrationFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("registrations.status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("registrations.course_id = ?", *filters.CourseID)
	}
	if filters.UserID != nil {
		query = query.Where("registrations.user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("registrations.registration_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("registrations.registration_date <= ?", *filters.DateTo)
	}
	return query
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return min(limit, maxPageSize)
}

// getDB returns the transaction DB if provided, otherwise the default DB
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
