package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/utils"
	"github.com/boffin-lk/institute-service/internal/validator"
)

// reconcileIDs compares stored child ids with the ids a submission references.
// toDelete holds stored ids the submission omits; unknown holds submitted ids
// that are not stored under this parent. Both come back sorted.
func reconcileIDs(current, submitted []uint) (toDelete, unknown []uint) {
	stored := make(map[uint]struct{}, len(current))
	for _, id := range current {
		stored[id] = struct{}{}
	}
	kept := make(map[uint]struct{}, len(submitted))
	for _, id := range submitted {
		if _, ok := stored[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		kept[id] = struct{}{}
	}
	for _, id := range current {
		if _, ok := kept[id]; !ok {
			toDelete = append(toDelete, id)
		}
	}
	slices.Sort(toDelete)
	slices.Sort(unknown)
	return toDelete, unknown
}

func submittedModuleIDs(modules []ModuleInput) []uint {
	ids := make([]uint, 0, len(modules))
	for _, m := range modules {
		if m.ID != nil {
			ids = append(ids, *m.ID)
		}
	}
	return ids
}

func submittedTopicIDs(topics []TopicInput) []uint {
	ids := make([]uint, 0, len(topics))
	for _, t := range topics {
		if t.ID != nil {
			ids = append(ids, *t.ID)
		}
	}
	return ids
}

// resolveCourseSlug returns the explicit slug or one derived from the title.
func resolveCourseSlug(fields *validator.CourseFields) (string, error) {
	if fields.Slug != nil && *fields.Slug != "" {
		return *fields.Slug, nil
	}
	slug := utils.Slugify(fields.Title)
	if slug == "" {
		return "", ValidationErrors{{
			Field:   "slug",
			Message: "could not be derived from title; provide one explicitly",
			Value:   fields.Title,
			Rule:    "slug",
		}}
	}
	return slug, nil
}

func marshalStringList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return datatypes.JSON(data), nil
}

// applyCourseFields copies the submitted scalar fields onto course. Status is untouched.
func applyCourseFields(course *models.Course, fields *validator.CourseFields, slug string) error {
	outcomes, err := marshalStringList(fields.LearningOutcomes)
	if err != nil {
		return err
	}
	prerequisites, err := marshalStringList(fields.Prerequisites)
	if err != nil {
		return err
	}

	course.Title = fields.Title
	course.Slug = slug
	course.ShortDescription = fields.ShortDescription
	course.LongDescription = fields.LongDescription
	course.RegularPrice = fields.RegularPrice
	course.SalePrice = fields.SalePrice
	course.CategoryID = fields.CategoryID
	course.LearningOutcomes = outcomes
	course.Prerequisites = prerequisites
	course.DurationWeeks = fields.DurationWeeks
	course.DurationHours = fields.DurationHours
	course.ImageURL = fields.ImageURL
	course.IsFeatured = fields.IsFeatured
	return nil
}

// checkCourseReferences verifies the category exists and the slug is free.
func (s *courseService) checkCourseReferences(ctx context.Context, tx *gorm.DB, categoryID uint, slug string, excludeID *uint) error {
	if _, err := s.repo.Category().GetByID(ctx, tx, categoryID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError(ErrCategoryNotFound, "category", categoryID)
		}
		return fmt.Errorf("failed to get category: %w", err)
	}

	taken, err := s.repo.Course().ExistsBySlug(ctx, tx, slug, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if taken {
		return NewConflictError(ErrCourseSlugTaken, "slug %q is already used by another course", slug)
	}
	return nil
}

func (s *courseService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// pageOf converts a limit/offset window into a 1-based page number.
func pageOf(limit, offset int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}

// translateDuplicate turns a unique index violation that slipped past the
// pre-checks into a conflict.
func translateDuplicate(err error, sentinel error, what string) error {
	if repositories.IsDuplicateError(err) {
		return NewConflictError(sentinel, "%s already exists", what)
	}
	return err
}
