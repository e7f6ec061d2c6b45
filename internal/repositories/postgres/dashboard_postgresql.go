package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	return getDB(r.db, tx)
}

// ===== DASHBOARD STATS =====

func (r *dashboardRepository) CountCoursesByStatus(ctx context.Context, tx *gorm.DB) ([]repositories.StatusCount, error) {
	db := r.getDB(tx)
	var counts []repositories.StatusCount

	if err := db.WithContext(ctx).
		Model(&models.Course{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to get courses by status: %w", err)
	}

	return counts, nil
}

func (r *dashboardRepository) CountRegistrationsByStatus(ctx context.Context, tx *gorm.DB) ([]repositories.StatusCount, error) {
	db := r.getDB(tx)
	var counts []repositories.StatusCount

	if err := db.WithContext(ctx).
		Model(&models.Registration{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to get registrations by status: %w", err)
	}

	return counts, nil
}

func (r *dashboardRepository) CountUsersByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total %s users: %w", role, err)
	}

	return count, nil
}

func (r *dashboardRepository) CountCategories(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Category{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total categories: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) CountActiveTestimonials(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Testimonial{}).
		Where("is_active = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get active testimonials: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) SumRevenue(ctx context.Context, tx *gorm.DB, statuses []models.RegistrationStatus) (float64, error) {
	db := r.getDB(tx)
	var total float64

	if len(statuses) == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).
		Model(&models.Registration{}).
		Where("status IN ?", statuses).
		Select("COALESCE(SUM(final_price), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to get revenue: %w", err)
	}

	return total, nil
}

// ===== RECENT ACTIVITIES =====

func (r *dashboardRepository) GetRecentRegistrations(ctx context.Context, tx *gorm.DB, limit int) ([]models.Registration, error) {
	db := r.getDB(tx)
	var registrations []models.Registration

	if err := db.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Order("registration_date DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit)).
		Find(&registrations).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent registrations: %w", err)
	}

	return registrations, nil
}
