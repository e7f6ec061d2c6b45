package validator

import "github.com/boffin-lk/institute-service/internal/models"

// ===== CATEGORIES =====

type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,max=120,slug"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,max=120,slug"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ===== COURSES =====

// CourseFields are the scalar course attributes shared by create and the content synchronizer.
type CourseFields struct {
	Title            string   `json:"title" validate:"required,min=1,max=200"`
	Slug             *string  `json:"slug" validate:"omitempty,max=220,slug"`
	ShortDescription string   `json:"short_description" validate:"max=500"`
	LongDescription  *string  `json:"long_description" validate:"omitempty,max=20000"`
	RegularPrice     float64  `json:"regular_price" validate:"gte=0"`
	SalePrice        *float64 `json:"sale_price" validate:"omitempty,gte=0"`
	CategoryID       uint     `json:"category_id" validate:"required"`
	LearningOutcomes []string `json:"learning_outcomes" validate:"omitempty,max=50,dive,min=1,max=500"`
	Prerequisites    []string `json:"prerequisites" validate:"omitempty,max=50,dive,min=1,max=500"`
	DurationWeeks    *int     `json:"duration_weeks" validate:"omitempty,min=0,max=520"`
	DurationHours    *int     `json:"duration_hours" validate:"omitempty,min=0,max=10000"`
	ImageURL         *string  `json:"image_url" validate:"omitempty,max=500"`
	IsFeatured       bool     `json:"is_featured"`
}

type CreateCourseRequest struct {
	CourseFields
	Status *models.CourseStatus `json:"status" validate:"omitempty,course_status"`
}

// SyncCourseContentRequest is the full course tree submitted by the editor.
// Array position defines order; an absent id means "create".
type SyncCourseContentRequest struct {
	CourseFields
	Modules []ModuleInput `json:"modules" validate:"required,max=200,dive"`
}

type ModuleInput struct {
	ID          *uint        `json:"id" validate:"omitempty,min=1"`
	Title       string       `json:"title" validate:"required,min=1,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=5000"`
	Topics      []TopicInput `json:"topics" validate:"max=500,dive"`
}

type TopicInput struct {
	ID          *uint   `json:"id" validate:"omitempty,min=1"`
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Duration    int     `json:"duration" validate:"gte=0,lte=10000"`
}

type UpdateCourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,course_status"`
}

// ===== REGISTRATIONS =====

type CreateRegistrationRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=100"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,min=5,max=40"`
	CourseID  uint    `json:"course_id" validate:"required"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateRegistrationStatusRequest struct {
	Status models.RegistrationStatus `json:"status" validate:"required,registration_status"`
	Notes  *string                   `json:"notes" validate:"omitempty,max=2000"`
}

// ===== TESTIMONIALS =====

type CreateTestimonialRequest struct {
	RegistrationID uint   `json:"registration_id" validate:"required"`
	Content        string `json:"content" validate:"required,min=1,max=2000"`
	Rating         int    `json:"rating" validate:"required,min=1,max=5"`
	IsActive       *bool  `json:"is_active"`
	IsFeatured     *bool  `json:"is_featured"`
}

type UpdateTestimonialRequest struct {
	Content    *string `json:"content" validate:"omitempty,min=1,max=2000"`
	Rating     *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	IsActive   *bool   `json:"is_active"`
	IsFeatured *bool   `json:"is_featured"`
}

// ===== MEDIA =====

type UpsertMediaRequest struct {
	URL      string  `json:"url" validate:"required,max=1000"`
	AltText  *string `json:"alt_text" validate:"omitempty,max=300"`
	MimeType *string `json:"mime_type" validate:"omitempty,max=100"`
}
