package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

var registrationSortColumns = map[string]bool{
	"registration_date": true,
	"final_price":       true,
	"status":            true,
	"id":                true,
}

type RegistrationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewRegistrationPostgreSQL(db *gorm.DB) repositories.RegistrationRepository {
	return &RegistrationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(),
	}
}

func (r *RegistrationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, registration *models.Registration) error {
	err := getDB(r.db, tx).WithContext(ctx).
		Omit("User", "Course", "ApprovedBy").
		Create(registration).Error
	if err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *RegistrationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Registration, error) {
	var registration models.Registration
	err := getDB(r.db, tx).WithContext(ctx).
		Preload("User").
		Preload("Course").
		Preload("ApprovedBy").
		First(&registration, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("registration %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return &registration, nil
}

// UpdateStatus writes the status and approval columns of registration.
func (r *RegistrationPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, registration *models.Registration) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Registration{ID: registration.ID}).
		Select("status", "approved_by_id", "approval_date", "notes").
		Updates(registration)
	if result.Error != nil {
		return fmt.Errorf("failed to update registration status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("registration %d: %w", registration.ID, repositories.ErrNotFound)
	}
	return nil
}

func (r *RegistrationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.RegistrationFilters) ([]*models.Registration, int64, error) {
	query := r.helpers.ApplyRegistrationFilters(getDB(r.db, tx).WithContext(ctx).Model(&models.Registration{}), filters)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	var registrations []*models.Registration
	query = r.helpers.ApplyPaginationAndSort(query.Preload("User").Preload("Course"), registrationSortColumns, "registration_date",
		filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&registrations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	return registrations, total, nil
}

// HasOpenRegistration reports a pending or confirmed registration of the user for the course.
func (r *RegistrationPostgreSQL) HasOpenRegistration(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error) {
	var count int64
	err := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Registration{}).
		Where("user_id = ? AND course_id = ? AND status IN ?", userID, courseID,
			[]models.RegistrationStatus{models.RegistrationPending, models.RegistrationConfirmed}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check open registration: %w", err)
	}
	return count > 0, nil
}
