package services

import (
	"context"
	"time"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateCategoryRequest = validator.CreateCategoryRequest
type UpdateCategoryRequest = validator.UpdateCategoryRequest
type CourseFields = validator.CourseFields
type CreateCourseRequest = validator.CreateCourseRequest
type SyncCourseContentRequest = validator.SyncCourseContentRequest
type ModuleInput = validator.ModuleInput
type TopicInput = validator.TopicInput
type UpdateCourseStatusRequest = validator.UpdateCourseStatusRequest
type CreateRegistrationRequest = validator.CreateRegistrationRequest
type UpdateRegistrationStatusRequest = validator.UpdateRegistrationStatusRequest
type CreateTestimonialRequest = validator.CreateTestimonialRequest
type UpdateTestimonialRequest = validator.UpdateTestimonialRequest
type UpsertMediaRequest = validator.UpsertMediaRequest

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

type RegistrationListResponse struct {
	Registrations []*models.Registration `json:"registrations"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
}

type TestimonialListResponse struct {
	Testimonials []*models.Testimonial `json:"testimonials"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Size         int                   `json:"size"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// RegistrationResult is what the public registration form gets back.
type RegistrationResult struct {
	Registration *models.Registration `json:"registration"`
	NewUser      bool                 `json:"new_user"`
}

// ===== AUTH DTOs =====

// SignInResult is the outcome of a completed OAuth callback.
type SignInResult struct {
	User         *models.User `json:"user"`
	SessionToken string       `json:"-"`
	ExpiresAt    time.Time    `json:"expires_at"`
	NewUser      bool         `json:"new_user"`
	LinkedNow    bool         `json:"linked_now"`
}

// SessionClaims is the authenticated identity carried by a session token.
type SessionClaims struct {
	UserID    uint            `json:"user_id"`
	Role      models.UserRole `json:"role"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	SessionID string          `json:"-"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (c *SessionClaims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// ===== SERVICE INTERFACES =====

type CategoryService interface {
	Create(ctx context.Context, req *CreateCategoryRequest, actorID uint) (*models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Update(ctx context.Context, id uint, req *UpdateCategoryRequest, actorID uint) (*models.Category, error)
	Delete(ctx context.Context, id uint, actorID uint) error
	List(ctx context.Context) ([]*models.Category, error)
}

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, actorID uint) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Course, error)
	Delete(ctx context.Context, id uint, actorID uint) error

	// List operations. ListPublished ignores any status filter.
	List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)
	ListPublished(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)

	// SyncContent replaces the course fields and its module/topic tree in one transaction.
	SyncContent(ctx context.Context, id uint, req *SyncCourseContentRequest, actorID uint) (*models.Course, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, req *UpdateCourseStatusRequest, actorID uint) (*models.StatusChangeResponse, error)
}

type AuthService interface {
	// BeginSignIn returns the provider redirect for state.
	BeginSignIn(state string) string
	CompleteSignIn(ctx context.Context, code string) (*SignInResult, error)
	ValidateSession(ctx context.Context, token string) (*SessionClaims, error)
	SignOut(ctx context.Context, token string) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type RegistrationService interface {
	Register(ctx context.Context, req *CreateRegistrationRequest) (*RegistrationResult, error)
	GetByID(ctx context.Context, id uint) (*models.Registration, error)
	List(ctx context.Context, filters repositories.RegistrationFilters) (*RegistrationListResponse, error)
	UpdateStatus(ctx context.Context, id uint, req *UpdateRegistrationStatusRequest, actorID uint) (*models.Registration, error)
}

type TestimonialService interface {
	Create(ctx context.Context, req *CreateTestimonialRequest, actorID uint) (*models.Testimonial, error)
	GetByID(ctx context.Context, id uint) (*models.Testimonial, error)
	Update(ctx context.Context, id uint, req *UpdateTestimonialRequest, actorID uint) (*models.Testimonial, error)
	Delete(ctx context.Context, id uint, actorID uint) error
	List(ctx context.Context, filters repositories.TestimonialFilters) (*TestimonialListResponse, error)
	// ListPublic returns active testimonials only.
	ListPublic(ctx context.Context, featuredOnly bool, limit, offset int) (*TestimonialListResponse, error)
}

type MediaService interface {
	Upsert(ctx context.Context, key string, req *UpsertMediaRequest, actorID uint) (*models.MediaAsset, error)
	Get(ctx context.Context, key string) (*models.MediaAsset, error)
	Delete(ctx context.Context, key string, actorID uint) error
	List(ctx context.Context) ([]*models.MediaAsset, error)
}

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

type UserService interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Category() CategoryService
	Course() CourseService
	Auth() AuthService
	Registration() RegistrationService
	Testimonial() TestimonialService
	Media() MediaService
	Dashboard() DashboardService
	User() UserService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
