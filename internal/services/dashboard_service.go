package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

const recentRegistrationsLimit = 10

// Registrations in these states count towards revenue.
var revenueStatuses = []models.RegistrationStatus{
	models.RegistrationConfirmed,
	models.RegistrationCompleted,
}

type dashboardService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cacheManager *cache.CacheManager) DashboardService {
	return &dashboardService{
		repo:         repo,
		db:           db,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := s.cacheManager.Stats.CacheOrExecute(ctx, cache.DashboardKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.computeStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *dashboardService) computeStats(ctx context.Context) (*models.DashboardStats, error) {
	s.logger.Info("Computing dashboard stats")

	dash := s.repo.Dashboard()

	courseCounts, err := dash.CountCoursesByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	registrationCounts, err := dash.CountRegistrationsByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	students, err := dash.CountUsersByRole(ctx, nil, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	categories, err := dash.CountCategories(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	testimonials, err := dash.CountActiveTestimonials(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count testimonials: %w", err)
	}

	revenue, err := dash.SumRevenue(ctx, nil, revenueStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	recent, err := dash.GetRecentRegistrations(ctx, nil, recentRegistrationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent registrations: %w", err)
	}

	stats := &models.DashboardStats{
		CoursesByStatus: map[models.CourseStatus]int64{
			models.CourseStatusDraft:     0,
			models.CourseStatusPublished: 0,
			models.CourseStatusArchived:  0,
		},
		RegistrationsByStatus: map[models.RegistrationStatus]int64{
			models.RegistrationPending:   0,
			models.RegistrationConfirmed: 0,
			models.RegistrationCompleted: 0,
		},
		TotalStudents:       students,
		TotalCategories:     categories,
		ActiveTestimonials:  testimonials,
		TotalRevenue:        roundFloat(revenue, 2),
		RecentRegistrations: recent,
		GeneratedAt:         time.Now().UTC(),
	}
	for _, c := range courseCounts {
		stats.CoursesByStatus[models.CourseStatus(c.Status)] = c.Count
	}
	for _, c := range registrationCounts {
		stats.RegistrationsByStatus[models.RegistrationStatus(c.Status)] = c.Count
	}

	return stats, nil
}

// ===== HELPER FUNCTIONS =====

func roundFloat(val float64, precision int) float64 {
	ratio := 1.0
	for i := 0; i < precision; i++ {
		ratio *= 10
	}
	return float64(int64(val*ratio+0.5)) / ratio
}
