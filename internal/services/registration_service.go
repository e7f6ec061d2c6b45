package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/utils"
	"github.com/boffin-lk/institute-service/internal/validator"
)

type registrationService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
	publisher    events.EventPublisher
}

func NewRegistrationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, publisher events.EventPublisher) RegistrationService {
	return &registrationService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
		publisher:    publisher,
	}
}

// Register handles the public registration form. The student account is found
// or created by email, and a user may hold one open registration per course.
func (s *registrationService) Register(ctx context.Context, req *CreateRegistrationRequest) (*RegistrationResult, error) {
	s.logger.Info("Registering for course", "course_id", req.CourseID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(req.Email)
	result := &RegistrationResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.repo.Course().GetByID(ctx, tx, req.CourseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrCourseNotFound, "course", req.CourseID)
			}
			return fmt.Errorf("failed to get course: %w", err)
		}
		if course.Status != models.CourseStatusPublished {
			return NewNotFoundError(ErrCourseNotFound, "course", req.CourseID)
		}

		user, newUser, err := s.findOrCreateStudent(ctx, tx, email, req)
		if err != nil {
			return err
		}

		open, err := s.repo.Registration().HasOpenRegistration(ctx, tx, user.ID, course.ID)
		if err != nil {
			return fmt.Errorf("failed to check registrations: %w", err)
		}
		if open {
			return NewConflictError(ErrAlreadyRegistered, "%s already has an open registration for %q", email, course.Title)
		}

		registration := &models.Registration{
			UserID:           user.ID,
			CourseID:         course.ID,
			Status:           models.RegistrationPending,
			RegistrationDate: time.Now(),
			FinalPrice:       course.EffectivePrice(),
			Notes:            req.Notes,
		}
		if err := s.repo.Registration().Create(ctx, tx, registration); err != nil {
			return err
		}

		registration.User = user
		registration.Course = course
		result.Registration = registration
		result.NewUser = newUser
		return nil
	})
	if err != nil {
		return nil, err
	}

	reg := result.Registration
	cache.InvalidateStats(ctx, s.cacheManager)
	events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.RegistrationCreated, nil, events.RegistrationCreatedData{
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		CourseID:       reg.CourseID,
		Email:          email,
		FinalPrice:     reg.FinalPrice,
		NewUser:        result.NewUser,
	}))

	s.logger.Info("Registration created", "registration_id", reg.ID, "user_id", reg.UserID, "new_user", result.NewUser)
	return result, nil
}

func (s *registrationService) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	registration, err := s.repo.Registration().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrRegistrationNotFound, "registration", id)
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return registration, nil
}

func (s *registrationService) List(ctx context.Context, filters repositories.RegistrationFilters) (*RegistrationListResponse, error) {
	registrations, total, err := s.repo.Registration().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return &RegistrationListResponse{
		Registrations: registrations,
		Total:         total,
		Page:          pageOf(filters.Limit, filters.Offset),
		Size:          len(registrations),
	}, nil
}

// UpdateStatus moves a registration along pending → confirmed → completed.
// Confirming records who approved it and when.
func (s *registrationService) UpdateStatus(ctx context.Context, id uint, req *UpdateRegistrationStatusRequest, actorID uint) (*models.Registration, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var oldStatus models.RegistrationStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		registration, err := s.repo.Registration().GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrRegistrationNotFound, "registration", id)
			}
			return fmt.Errorf("failed to get registration: %w", err)
		}
		oldStatus = registration.Status

		if !s.validator.GetBusinessValidator().CanTransitionRegistration(oldStatus, req.Status) {
			return NewBusinessRuleError("registration_status_transition",
				fmt.Sprintf("cannot change registration status from %s to %s", oldStatus, req.Status),
				map[string]interface{}{"from": oldStatus, "to": req.Status})
		}

		registration.Status = req.Status
		if req.Status == models.RegistrationConfirmed {
			now := time.Now()
			registration.ApprovedByID = &actorID
			registration.ApprovalDate = &now
		}
		if req.Notes != nil {
			registration.Notes = req.Notes
		}
		return s.repo.Registration().UpdateStatus(ctx, tx, registration)
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateStats(ctx, s.cacheManager)
	events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.RegistrationStatusChanged, &actorID, events.RegistrationStatusChangedData{
		RegistrationID: id,
		OldStatus:      string(oldStatus),
		NewStatus:      string(req.Status),
	}))

	s.logger.Info("Registration status changed", "registration_id", id, "from", oldStatus, "to", req.Status, "actor_id", actorID)
	return s.GetByID(ctx, id)
}

func (s *registrationService) findOrCreateStudent(ctx context.Context, tx *gorm.DB, email string, req *CreateRegistrationRequest) (*models.User, bool, error) {
	user, err := s.repo.User().GetByEmail(ctx, tx, email)
	if err == nil {
		return user, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RoleStudent,
		Phone:     req.Phone,
	}
	if err := s.repo.User().Create(ctx, tx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create student: %w", err)
	}
	return user, true, nil
}
