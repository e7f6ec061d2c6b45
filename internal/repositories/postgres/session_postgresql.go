package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

type SessionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSessionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	if err := getDB(r.db, tx).WithContext(ctx).Omit("User").Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByToken looks a session up with its user, through the short-lived session cache.
// A revoked session is not found even if a stale cache entry survives.
// Expiry is left to the caller.
func (r *SessionPostgreSQL) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Session, error) {
	if cache.IsSessionRevoked(ctx, r.cacheManager, token) {
		return nil, fmt.Errorf("session revoked: %w", repositories.ErrNotFound)
	}

	db := getDB(r.db, tx)
	var session models.Session

	err := r.cacheManager.Session.CacheOrExecute(ctx, token, &session, cache.SessionCacheConfig.TTL, func() (interface{}, error) {
		var dbSession models.Session
		err := db.WithContext(ctx).
			Preload("User").
			Where("session_token = ?", token).
			First(&dbSession).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("session: %w", repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		return &dbSession, nil
	})
	if err != nil {
		return nil, err
	}
	// session_token is not serialized, so restore it after a cache hit.
	session.SessionToken = token
	return &session, nil
}

func (r *SessionPostgreSQL) DeleteByToken(ctx context.Context, tx *gorm.DB, token string) error {
	if err := getDB(r.db, tx).WithContext(ctx).Where("session_token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	cache.RevokeSession(ctx, r.cacheManager, token)
	return nil
}

func (r *SessionPostgreSQL) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	result := getDB(r.db, tx).WithContext(ctx).Where("expires <= ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
