package models

import (
	"time"

	"gorm.io/datatypes"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

func (s CourseStatus) IsValid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return true
	}
	return false
}

type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:100;uniqueIndex"`
	Slug        string    `json:"slug" gorm:"not null;size:120;uniqueIndex"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Computed fields (not stored)
	CourseCount int64 `json:"course_count" gorm:"-"`
}

func (Category) TableName() string {
	return "categories"
}

type Course struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title" gorm:"not null;size:200"`
	Slug             string         `json:"slug" gorm:"not null;size:220;uniqueIndex"`
	ShortDescription string         `json:"short_description" gorm:"not null;size:500"`
	LongDescription  *string        `json:"long_description" gorm:"type:text"`
	RegularPrice     float64        `json:"regular_price" gorm:"not null;type:decimal(12,2);default:0"`
	SalePrice        *float64       `json:"sale_price" gorm:"type:decimal(12,2)"`
	Status           CourseStatus   `json:"status" gorm:"not null;size:20;default:draft;index"`
	CategoryID       uint           `json:"category_id" gorm:"not null;index"`
	LearningOutcomes datatypes.JSON `json:"learning_outcomes" gorm:"type:json"`
	Prerequisites    datatypes.JSON `json:"prerequisites" gorm:"type:json"`
	DurationWeeks    *int           `json:"duration_weeks"`
	DurationHours    *int           `json:"duration_hours"`
	ImageURL         *string        `json:"image_url" gorm:"size:500"`
	IsFeatured       bool           `json:"is_featured" gorm:"not null;default:false;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Modules  []Module  `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

// EffectivePrice is the price a new registration is charged.
func (c *Course) EffectivePrice() float64 {
	if c.SalePrice != nil {
		return *c.SalePrice
	}
	return c.RegularPrice
}

type Module struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CourseID    uint      `json:"course_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description *string   `json:"description" gorm:"type:text"`
	OrderIndex  int       `json:"order_index" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Topics []Topic `json:"topics,omitempty" gorm:"foreignKey:ModuleID"`
}

func (Module) TableName() string {
	return "modules"
}

type Topic struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ModuleID    uint      `json:"module_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description *string   `json:"description" gorm:"type:text"`
	OrderIndex  int       `json:"order_index" gorm:"not null"`
	Duration    int       `json:"duration" gorm:"not null;default:0"` // minutes
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Topic) TableName() string {
	return "topics"
}
