package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
)

// RegistrationRepository interface for course registrations
type RegistrationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, registration *models.Registration) error
	// GetByID preloads user, course and approver.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Registration, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, registration *models.Registration) error
	List(ctx context.Context, tx *gorm.DB, filters RegistrationFilters) ([]*models.Registration, int64, error)

	HasOpenRegistration(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error)
}

// TestimonialRepository interface for student testimonials
type TestimonialRepository interface {
	Create(ctx context.Context, tx *gorm.DB, testimonial *models.Testimonial) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Testimonial, error)
	Update(ctx context.Context, tx *gorm.DB, testimonial *models.Testimonial) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	// List orders featured first, then newest.
	List(ctx context.Context, tx *gorm.DB, filters TestimonialFilters) ([]*models.Testimonial, int64, error)
}

// MediaRepository interface for site placeholder slots
type MediaRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, asset *models.MediaAsset) error
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*models.MediaAsset, error)
	DeleteByKey(ctx context.Context, tx *gorm.DB, key string) error
	List(ctx context.Context, tx *gorm.DB) ([]*models.MediaAsset, error)
}
