package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100;default:''"`
	Role      UserRole `json:"role" gorm:"not null;size:20;default:student;index"`
	Image     *string  `json:"image" gorm:"size:500"`
	Phone     *string  `json:"phone" gorm:"size:40"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Accounts []Account `json:"-" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Account links a user to one identity at an external provider.
type Account struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"user_id" gorm:"not null;index"`
	Type              string     `json:"type" gorm:"not null;size:40"`
	Provider          string     `json:"provider" gorm:"not null;size:40;uniqueIndex:idx_accounts_provider_account"`
	ProviderAccountID string     `json:"provider_account_id" gorm:"not null;size:255;uniqueIndex:idx_accounts_provider_account"`
	AccessToken       *string    `json:"-" gorm:"type:text"`
	RefreshToken      *string    `json:"-" gorm:"type:text"`
	IDToken           *string    `json:"-" gorm:"type:text"`
	ExpiresAt         *time.Time `json:"expires_at"`
	TokenType         *string    `json:"token_type" gorm:"size:40"`
	Scope             *string    `json:"scope" gorm:"size:255"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// Session is the server side record of one issued session token.
type Session struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SessionToken string    `json:"-" gorm:"not null;size:64;uniqueIndex"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	Expires      time.Time `json:"expires" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.Expires)
}
