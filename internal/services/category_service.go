package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/utils"
	"github.com/boffin-lk/institute-service/internal/validator"
)

type categoryService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
}

func NewCategoryService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager) CategoryService {
	return &categoryService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
	}
}

func (s *categoryService) Create(ctx context.Context, req *CreateCategoryRequest, actorID uint) (*models.Category, error) {
	s.logger.Info("Creating category", "actor_id", actorID, "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        categorySlug(req.Name, req.Slug),
		Description: req.Description,
	}
	if category.Slug == "" {
		return nil, ValidationErrors{{Field: "slug", Message: "could not be derived from name; provide one explicitly", Rule: "slug"}}
	}

	if err := s.checkUnique(ctx, category.Name, category.Slug, nil); err != nil {
		return nil, err
	}

	if err := s.repo.Category().Create(ctx, nil, category); err != nil {
		return nil, translateDuplicate(err, ErrCategoryExists, "category")
	}

	cache.InvalidateCategoryCache(ctx, s.cacheManager)
	s.logger.Info("Category created successfully", "category_id", category.ID)
	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.Category().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrCategoryNotFound, "category", id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	count, err := s.repo.Course().CountByCategory(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	category.CourseCount = count
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, req *UpdateCategoryRequest, actorID uint) (*models.Category, error) {
	s.logger.Info("Updating category", "category_id", id, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	if req.Description != nil {
		category.Description = req.Description
	}

	if err := s.checkUnique(ctx, category.Name, category.Slug, &id); err != nil {
		return nil, err
	}

	if err := s.repo.Category().Update(ctx, nil, category); err != nil {
		return nil, translateDuplicate(err, ErrCategoryExists, "category")
	}

	cache.InvalidateCategoryCache(ctx, s.cacheManager)
	return category, nil
}

// Delete refuses while any course still references the category.
func (s *categoryService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting category", "category_id", id, "actor_id", actorID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Category().GetByID(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ErrCategoryNotFound, "category", id)
			}
			return fmt.Errorf("failed to get category: %w", err)
		}

		count, err := s.repo.Course().CountByCategory(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to count courses: %w", err)
		}
		if count > 0 {
			return NewConflictError(ErrCategoryInUse, "category %d still has %d course(s)", id, count)
		}

		return s.repo.Category().Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	cache.InvalidateCategoryCache(ctx, s.cacheManager)
	return nil
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.Category().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) checkUnique(ctx context.Context, name, slug string, excludeID *uint) error {
	nameTaken, err := s.repo.Category().ExistsByName(ctx, nil, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if nameTaken {
		return NewConflictError(ErrCategoryExists, "category name %q is already in use", name)
	}

	slugTaken, err := s.repo.Category().ExistsBySlug(ctx, nil, slug, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category slug: %w", err)
	}
	if slugTaken {
		return NewConflictError(ErrCategoryExists, "category slug %q is already in use", slug)
	}
	return nil
}

func categorySlug(name string, explicit *string) string {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	return utils.Slugify(name)
}
