package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
)

// UserRepository interface for user operations
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
}

// AccountRepository interface for external identity links
type AccountRepository interface {
	Create(ctx context.Context, tx *gorm.DB, account *models.Account) error
	GetByProviderAccount(ctx context.Context, tx *gorm.DB, provider, providerAccountID string) (*models.Account, error)
	ListByUserAndProvider(ctx context.Context, tx *gorm.DB, userID uint, provider string) ([]*models.Account, error)
	UpdateTokens(ctx context.Context, tx *gorm.DB, account *models.Account) error
}

// SessionRepository interface for issued session records
type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.Session) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, tx *gorm.DB, token string) error
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}
