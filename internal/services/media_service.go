package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/validator"
)

const mediaKeyRule = "required,max=120,media_key"

type mediaService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
}

func NewMediaService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager) MediaService {
	return &mediaService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
	}
}

// Upsert points a placeholder slot at a url. The slot is created on first use.
func (s *mediaService) Upsert(ctx context.Context, key string, req *UpsertMediaRequest, actorID uint) (*models.MediaAsset, error) {
	if err := s.validator.ValidateVar("key", key, mediaKeyRule); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		Key:      key,
		URL:      req.URL,
		AltText:  req.AltText,
		MimeType: req.MimeType,
	}
	if err := s.repo.Media().Upsert(ctx, nil, asset); err != nil {
		return nil, err
	}

	cache.InvalidateMediaCache(ctx, s.cacheManager, key)
	s.logger.Info("Media slot updated", "key", key, "actor_id", actorID)

	return s.Get(ctx, key)
}

func (s *mediaService) Get(ctx context.Context, key string) (*models.MediaAsset, error) {
	if err := s.validator.ValidateVar("key", key, mediaKeyRule); err != nil {
		return nil, err
	}

	asset, err := s.repo.Media().GetByKey(ctx, nil, key)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError(ErrMediaNotFound, "media", key)
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return asset, nil
}

func (s *mediaService) Delete(ctx context.Context, key string, actorID uint) error {
	if err := s.repo.Media().DeleteByKey(ctx, nil, key); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError(ErrMediaNotFound, "media", key)
		}
		return err
	}

	cache.InvalidateMediaCache(ctx, s.cacheManager, key)
	s.logger.Info("Media slot removed", "key", key, "actor_id", actorID)
	return nil
}

func (s *mediaService) List(ctx context.Context) ([]*models.MediaAsset, error) {
	assets, err := s.repo.Media().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return assets, nil
}
