package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

var userSortColumns = map[string]bool{
	"created_at": true,
	"email":      true,
	"first_name": true,
	"last_name":  true,
	"id":         true,
}

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(),
	}
}

func (r *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := getDB(r.db, tx).WithContext(ctx).Omit("Accounts").Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := getDB(r.db, tx).WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail matches case-insensitively; stored emails are lowercase.
func (r *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := getDB(r.db, tx).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", email, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Select("first_name", "last_name", "role", "image", "phone").
		Updates(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", user.ID, repositories.ErrNotFound)
	}
	return nil
}

func (r *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.User{})

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Query != "" {
		like := r.helpers.LikePattern(filters.Query)
		query = query.Where("(LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\')",
			like, like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []*models.User
	query = r.helpers.ApplyPaginationAndSort(query, userSortColumns, "created_at",
		filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

type AccountPostgreSQL struct {
	db *gorm.DB
}

func NewAccountPostgreSQL(db *gorm.DB) repositories.AccountRepository {
	return &AccountPostgreSQL{db: db}
}

func (r *AccountPostgreSQL) Create(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountPostgreSQL) GetByProviderAccount(ctx context.Context, tx *gorm.DB, provider, providerAccountID string) (*models.Account, error) {
	var account models.Account
	err := getDB(r.db, tx).WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s/%s: %w", provider, providerAccountID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *AccountPostgreSQL) ListByUserAndProvider(ctx context.Context, tx *gorm.DB, userID uint, provider string) ([]*models.Account, error) {
	var accounts []*models.Account
	err := getDB(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateTokens refreshes the stored provider credentials of an existing link.
func (r *AccountPostgreSQL) UpdateTokens(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Account{ID: account.ID}).
		Select("access_token", "refresh_token", "id_token", "expires_at", "token_type", "scope").
		Updates(account)
	if result.Error != nil {
		return fmt.Errorf("failed to update account tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account %d: %w", account.ID, repositories.ErrNotFound)
	}
	return nil
}
