package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/validator"
)

type testimonialService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
	publisher    events.EventPublisher
}

func NewTestimonialService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, publisher events.EventPublisher) TestimonialService {
	return &testimonialService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
		publisher:    publisher,
	}
}

func (s *testimonialService) Create(ctx context.Context, req *CreateTestimonialRequest, actorID uint) (*models.Testimonial, error) {
	s.logger.Info("Creating testimonial", "registration_id", req.RegistrationID, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	testimonial := &models.Testimonial{
		RegistrationID: req.RegistrationID,
		Content:        req.Content,
		Rating:         req.Rating,
		IsActive:       true,
	}
	if req.IsActive != nil {
		testimonial.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		testimonial.IsFeatured = *req.IsFeatured
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Registration().GetByID(ctx, tx, req.RegistrationID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrRegistrationNotFound, "registration", req.RegistrationID)
			}
			return fmt.Errorf("failed to get registration: %w", err)
		}
		return s.repo.Testimonial().Create(ctx, tx, testimonial)
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateTestimonialCache(ctx, s.cacheManager)
	events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.TestimonialCreated, &actorID, events.TestimonialCreatedData{
		TestimonialID:  testimonial.ID,
		RegistrationID: testimonial.RegistrationID,
		Rating:         testimonial.Rating,
	}))

	return s.GetByID(ctx, testimonial.ID)
}

func (s *testimonialService) GetByID(ctx context.Context, id uint) (*models.Testimonial, error) {
	testimonial, err := s.repo.Testimonial().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrTestimonialNotFound, "testimonial", id)
		}
		return nil, fmt.Errorf("failed to get testimonial: %w", err)
	}
	return testimonial, nil
}

// Update is the moderation path. Active and featured are independent flags.
func (s *testimonialService) Update(ctx context.Context, id uint, req *UpdateTestimonialRequest, actorID uint) (*models.Testimonial, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	testimonial, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		testimonial.Content = *req.Content
	}
	if req.Rating != nil {
		testimonial.Rating = *req.Rating
	}
	if req.IsActive != nil {
		testimonial.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		testimonial.IsFeatured = *req.IsFeatured
	}

	if err := s.repo.Testimonial().Update(ctx, nil, testimonial); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrTestimonialNotFound, "testimonial", id)
		}
		return nil, err
	}

	cache.InvalidateTestimonialCache(ctx, s.cacheManager)
	s.logger.Info("Testimonial moderated",
		"testimonial_id", id,
		"actor_id", actorID,
		"is_active", testimonial.IsActive,
		"is_featured", testimonial.IsFeatured)

	return testimonial, nil
}

func (s *testimonialService) Delete(ctx context.Context, id uint, actorID uint) error {
	if err := s.repo.Testimonial().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError(ErrTestimonialNotFound, "testimonial", id)
		}
		return err
	}

	cache.InvalidateTestimonialCache(ctx, s.cacheManager)
	s.logger.Info("Testimonial deleted", "testimonial_id", id, "actor_id", actorID)
	return nil
}

func (s *testimonialService) List(ctx context.Context, filters repositories.TestimonialFilters) (*TestimonialListResponse, error) {
	testimonials, total, err := s.repo.Testimonial().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return &TestimonialListResponse{
		Testimonials: testimonials,
		Total:        total,
		Page:         pageOf(filters.Limit, filters.Offset),
		Size:         len(testimonials),
	}, nil
}

func (s *testimonialService) ListPublic(ctx context.Context, featuredOnly bool, limit, offset int) (*TestimonialListResponse, error) {
	return s.List(ctx, repositories.TestimonialFilters{
		ActiveOnly:   true,
		FeaturedOnly: featuredOnly,
		Limit:        limit,
		Offset:       offset,
	})
}
