package models

import "time"

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCompleted RegistrationStatus = "completed"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCompleted:
		return true
	}
	return false
}

// IsOpen reports whether a registration still blocks a new one for the same course.
func (s RegistrationStatus) IsOpen() bool {
	return s == RegistrationPending || s == RegistrationConfirmed
}

type Registration struct {
	ID               uint               `json:"id" gorm:"primaryKey"`
	UserID           uint               `json:"user_id" gorm:"not null;index"`
	CourseID         uint               `json:"course_id" gorm:"not null;index"`
	Status           RegistrationStatus `json:"status" gorm:"not null;size:20;default:pending;index"`
	RegistrationDate time.Time          `json:"registration_date" gorm:"not null"`
	FinalPrice       float64            `json:"final_price" gorm:"not null;type:decimal(12,2)"`
	ApprovedByID     *uint              `json:"approved_by_id" gorm:"index"`
	ApprovalDate     *time.Time         `json:"approval_date"`
	Notes            *string            `json:"notes" gorm:"type:text"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`

	// Relations
	User       *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course     *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	ApprovedBy *User   `json:"approved_by,omitempty" gorm:"foreignKey:ApprovedByID"`
}

func (Registration) TableName() string {
	return "registrations"
}

type Testimonial struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RegistrationID uint      `json:"registration_id" gorm:"not null;index"`
	Content        string    `json:"content" gorm:"not null;type:text"`
	Rating         int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	IsActive       bool      `json:"is_active" gorm:"not null;index"`
	IsFeatured     bool      `json:"is_featured" gorm:"not null;default:false;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Registration *Registration `json:"registration,omitempty" gorm:"foreignKey:RegistrationID"`
}

func (Testimonial) TableName() string {
	return "testimonials"
}

// MediaAsset is a named placeholder slot on the public site, e.g. "home.hero".
type MediaAsset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"not null;size:120;uniqueIndex"`
	URL       string    `json:"url" gorm:"not null;size:1000"`
	AltText   *string   `json:"alt_text" gorm:"size:300"`
	MimeType  *string   `json:"mime_type" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MediaAsset) TableName() string {
	return "media_assets"
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Session{},
		&Category{},
		&Course{},
		&Module{},
		&Topic{},
		&Registration{},
		&Testimonial{},
		&MediaAsset{},
	}
}
