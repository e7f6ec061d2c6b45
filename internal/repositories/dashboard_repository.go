package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
)

// DashboardRepository interface for dashboard analytics operations
type DashboardRepository interface {
	// Dashboard stats
	CountCoursesByStatus(ctx context.Context, tx *gorm.DB) ([]StatusCount, error)
	CountRegistrationsByStatus(ctx context.Context, tx *gorm.DB) ([]StatusCount, error)
	CountUsersByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error)
	CountCategories(ctx context.Context, tx *gorm.DB) (int64, error)
	CountActiveTestimonials(ctx context.Context, tx *gorm.DB) (int64, error)

	// Revenue is the sum of final_price over registrations in the given statuses.
	SumRevenue(ctx context.Context, tx *gorm.DB, statuses []models.RegistrationStatus) (float64, error)

	// Recent activities
	GetRecentRegistrations(ctx context.Context, tx *gorm.DB, limit int) ([]models.Registration, error)
}
