package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

type syncSummary struct {
	modules        int
	topics         int
	modulesDeleted int
	topicsDeleted  int
}

// SyncContent makes the stored course tree match req exactly. Everything runs
// in one transaction: an unknown id or any write failure leaves the course as it was.
func (s *courseService) SyncContent(ctx context.Context, id uint, req *SyncCourseContentRequest, actorID uint) (*models.Course, error) {
	s.logger.Info("Syncing course content", "course_id", id, "actor_id", actorID, "modules", len(req.Modules))

	if errs := s.validator.GetBusinessValidator().ValidateSyncCourseContent(req); len(errs) > 0 {
		return nil, errs
	}

	slug, err := resolveCourseSlug(&req.CourseFields)
	if err != nil {
		return nil, err
	}

	var (
		oldSlug string
		summary syncSummary
	)
	err = s.withTx(ctx, func(tx *gorm.DB) error {
		course, err := s.repo.Course().GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrCourseNotFound, "course", id)
			}
			return fmt.Errorf("failed to get course: %w", err)
		}
		oldSlug = course.Slug

		if err := s.checkCourseReferences(ctx, tx, req.CategoryID, slug, &id); err != nil {
			return err
		}

		if err := applyCourseFields(course, &req.CourseFields, slug); err != nil {
			return err
		}
		if err := s.repo.Course().Update(ctx, tx, course); err != nil {
			return translateDuplicate(err, ErrCourseSlugTaken, "course slug")
		}

		summary, err = s.syncModules(ctx, tx, id, req.Modules)
		return err
	})
	if err != nil {
		s.logger.Warn("Course content sync rolled back", "course_id", id, "error", err)
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cacheManager, oldSlug, slug)
	events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.CourseContentSynced, &actorID, events.CourseContentSyncedData{
		CourseID:       id,
		Slug:           slug,
		ModuleCount:    summary.modules,
		TopicCount:     summary.topics,
		ModulesDeleted: summary.modulesDeleted,
		TopicsDeleted:  summary.topicsDeleted,
	}))

	s.logger.Info("Course content synced",
		"course_id", id,
		"modules", summary.modules,
		"topics", summary.topics,
		"modules_deleted", summary.modulesDeleted,
		"topics_deleted", summary.topicsDeleted)

	return s.GetByID(ctx, id)
}

func (s *courseService) syncModules(ctx context.Context, tx *gorm.DB, courseID uint, inputs []ModuleInput) (syncSummary, error) {
	var summary syncSummary

	currentIDs, err := s.repo.Module().GetIDsByCourse(ctx, tx, courseID)
	if err != nil {
		return summary, fmt.Errorf("failed to load modules: %w", err)
	}

	toDelete, unknown := reconcileIDs(currentIDs, submittedModuleIDs(inputs))
	if len(unknown) > 0 {
		return summary, NewNotFoundError(ErrModuleNotFound, "module", unknown[0])
	}

	if len(toDelete) > 0 {
		for _, moduleID := range toDelete {
			topicIDs, err := s.repo.Topic().GetIDsByModule(ctx, tx, moduleID)
			if err != nil {
				return summary, fmt.Errorf("failed to load topics: %w", err)
			}
			summary.topicsDeleted += len(topicIDs)
		}
		if err := s.repo.Topic().DeleteByModules(ctx, tx, toDelete); err != nil {
			return summary, err
		}
		if err := s.repo.Module().DeleteByIDs(ctx, tx, toDelete); err != nil {
			return summary, err
		}
		summary.modulesDeleted = len(toDelete)
	}

	for i, in := range inputs {
		module := &models.Module{
			CourseID:    courseID,
			Title:       in.Title,
			Description: in.Description,
			OrderIndex:  i + 1,
		}

		existing := in.ID != nil
		if existing {
			module.ID = *in.ID
			if err := s.repo.Module().Update(ctx, tx, module); err != nil {
				return summary, err
			}
		} else if err := s.repo.Module().Create(ctx, tx, module); err != nil {
			return summary, err
		}

		topics, deleted, err := s.syncTopics(ctx, tx, module.ID, existing, in.Topics)
		if err != nil {
			return summary, err
		}
		summary.modules++
		summary.topics += topics
		summary.topicsDeleted += deleted
	}

	return summary, nil
}

// syncTopics reconciles one module's topics. A module created in this sync has
// no stored topics, so any topic id submitted under it is unknown.
func (s *courseService) syncTopics(ctx context.Context, tx *gorm.DB, moduleID uint, existing bool, inputs []TopicInput) (int, int, error) {
	var currentIDs []uint
	if existing {
		var err error
		currentIDs, err = s.repo.Topic().GetIDsByModule(ctx, tx, moduleID)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to load topics: %w", err)
		}
	}

	toDelete, unknown := reconcileIDs(currentIDs, submittedTopicIDs(inputs))
	if len(unknown) > 0 {
		return 0, 0, NewNotFoundError(ErrTopicNotFound, "topic", unknown[0])
	}
	if err := s.repo.Topic().DeleteByIDs(ctx, tx, toDelete); err != nil {
		return 0, 0, err
	}

	for i, in := range inputs {
		topic := &models.Topic{
			ModuleID:    moduleID,
			Title:       in.Title,
			Description: in.Description,
			OrderIndex:  i + 1,
			Duration:    in.Duration,
		}
		if in.ID != nil {
			topic.ID = *in.ID
			if err := s.repo.Topic().Update(ctx, tx, topic); err != nil {
				return 0, 0, err
			}
			continue
		}
		if err := s.repo.Topic().Create(ctx, tx, topic); err != nil {
			return 0, 0, err
		}
	}

	return len(inputs), len(toDelete), nil
}
