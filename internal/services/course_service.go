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
	"github.com/boffin-lk/institute-service/internal/validator"
)

type courseService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
	publisher    events.EventPublisher
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
		publisher:    publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, actorID uint) (*models.Course, error) {
	s.logger.Info("Creating course", "actor_id", actorID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	slug, err := resolveCourseSlug(&req.CourseFields)
	if err != nil {
		return nil, err
	}

	course := &models.Course{Status: models.CourseStatusDraft}
	if req.Status != nil {
		course.Status = *req.Status
	}
	if err := applyCourseFields(course, &req.CourseFields, slug); err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkCourseReferences(ctx, tx, req.CategoryID, slug, nil); err != nil {
			return err
		}
		if err := s.repo.Course().Create(ctx, tx, course); err != nil {
			return translateDuplicate(err, ErrCourseSlugTaken, "course slug")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cacheManager, slug)
	s.logger.Info("Course created successfully", "course_id", course.ID, "slug", slug)

	return s.GetByID(ctx, course.ID)
}

// GetByID returns a course of any status with its full content.
func (s *courseService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetWithContent(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrCourseNotFound, "course", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course, err := s.repo.Course().GetPublishedBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrCourseNotFound, "course", slug)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// Delete removes the course with its topics and modules. Courses that have
// registrations are kept so revenue and history stay intact.
func (s *courseService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting course", "course_id", id, "actor_id", actorID)

	var slug string
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		course, err := s.repo.Course().GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrCourseNotFound, "course", id)
			}
			return fmt.Errorf("failed to get course: %w", err)
		}
		slug = course.Slug

		hasRegistrations, err := s.repo.Course().HasRegistrations(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to check registrations: %w", err)
		}
		if hasRegistrations {
			return NewConflictError(ErrCourseHasRegistrations, "course %d has registrations; archive it instead", id)
		}

		moduleIDs, err := s.repo.Module().GetIDsByCourse(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to load modules: %w", err)
		}
		if err := s.repo.Topic().DeleteByModules(ctx, tx, moduleIDs); err != nil {
			return err
		}
		if err := s.repo.Module().DeleteByCourse(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Course().Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, s.cacheManager, slug)
	events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.CourseDeleted, &actorID, events.CourseDeletedData{
		CourseID: id,
		Slug:     slug,
	}))

	s.logger.Info("Course deleted successfully", "course_id", id)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Page:    pageOf(filters.Limit, filters.Offset),
		Size:    len(courses),
	}, nil
}

func (s *courseService) ListPublished(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	published := models.CourseStatusPublished
	filters.Status = &published
	return s.List(ctx, filters)
}

// ===== STATUS MANAGEMENT =====

func (s *courseService) UpdateStatus(ctx context.Context, id uint, req *UpdateCourseStatusRequest, actorID uint) (*models.StatusChangeResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		course    *models.Course
		oldStatus models.CourseStatus
	)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		course, err = s.repo.Course().GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrCourseNotFound, "course", id)
			}
			return fmt.Errorf("failed to get course: %w", err)
		}
		oldStatus = course.Status

		if !s.validator.GetBusinessValidator().CanTransitionCourse(oldStatus, req.Status) {
			return NewBusinessRuleError("course_status_transition",
				fmt.Sprintf("cannot change course status from %s to %s", oldStatus, req.Status),
				map[string]interface{}{"from": oldStatus, "to": req.Status})
		}

		return s.repo.Course().UpdateStatus(ctx, tx, id, req.Status)
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cacheManager, course.Slug)
	events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.CourseStatusChanged, &actorID, events.CourseStatusChangedData{
		CourseID:  id,
		OldStatus: string(oldStatus),
		NewStatus: string(req.Status),
	}))

	s.logger.Info("Course status changed", "course_id", id, "from", oldStatus, "to", req.Status, "actor_id", actorID)

	return &models.StatusChangeResponse{
		ID:        id,
		OldStatus: string(oldStatus),
		NewStatus: string(req.Status),
		ChangedBy: actorID,
		ChangedAt: time.Now(),
	}, nil
}
