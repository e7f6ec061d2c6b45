package repositories

import (
	"time"

	"github.com/boffin-lk/institute-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Status       *models.CourseStatus `json:"status"`
	CategoryID   *uint                `json:"category_id"`
	CategorySlug *string              `json:"category_slug"`
	IsFeatured   *bool                `json:"is_featured"`
	Search       string               `json:"search"` // title or short description
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
	SortBy       string               `json:"sort_by"`    // "created_at", "title", "regular_price"
	SortOrder    string               `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Role      *models.UserRole `json:"role"`
	Query     string           `json:"query"` // name or email
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	SortBy    string           `json:"sort_by"`
	SortOrder string           `json:"sort_order"`
}

type RegistrationFilters struct {
	Status    *models.RegistrationStatus `json:"status"`
	CourseID  *uint                      `json:"course_id"`
	UserID    *uint                      `json:"user_id"`
	DateFrom  *time.Time                 `json:"date_from"`
	DateTo    *time.Time                 `json:"date_to"`
	Limit     int                        `json:"limit"`
	Offset    int                        `json:"offset"`
	SortBy    string                     `json:"sort_by"`
	SortOrder string                     `json:"sort_order"`
}

type TestimonialFilters struct {
	ActiveOnly   bool `json:"active_only"`
	FeaturedOnly bool `json:"featured_only"`
	Limit        int  `json:"limit"`
	Offset       int  `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type StatusCount struct {
	Status string
	Count  int64
}
