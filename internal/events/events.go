package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "institute-service"
	EventVersion = "1.0"
)

// Event types
const (
	CourseContentSynced       = "course.content_synced"
	CourseStatusChanged       = "course.status_changed"
	CourseDeleted             = "course.deleted"
	RegistrationCreated       = "registration.created"
	RegistrationStatusChanged = "registration.status_changed"
	UserProvisioned           = "user.provisioned"
	AccountLinked             = "user.account_linked"
	TestimonialCreated        = "testimonial.created"
)

// AllEventTypes is the topic list subscribers attach to.
var AllEventTypes = []string{
	CourseContentSynced,
	CourseStatusChanged,
	CourseDeleted,
	RegistrationCreated,
	RegistrationStatusChanged,
	UserProvisioned,
	AccountLinked,
	TestimonialCreated,
}

// Event is the envelope every domain event is published in.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	ActorID   *uint       `json:"actor_id,omitempty"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, actorID *uint, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		ActorID:   actorID,
		Data:      data,
	}
}

// EventPublisher publishes domain events after the state they describe is committed.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== EVENT PAYLOADS =====

type CourseContentSyncedData struct {
	CourseID       uint   `json:"course_id"`
	Slug           string `json:"slug"`
	ModuleCount    int    `json:"module_count"`
	TopicCount     int    `json:"topic_count"`
	ModulesDeleted int    `json:"modules_deleted"`
	TopicsDeleted  int    `json:"topics_deleted"`
}

type CourseStatusChangedData struct {
	CourseID  uint   `json:"course_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type CourseDeletedData struct {
	CourseID uint   `json:"course_id"`
	Slug     string `json:"slug"`
}

type RegistrationCreatedData struct {
	RegistrationID uint    `json:"registration_id"`
	UserID         uint    `json:"user_id"`
	CourseID       uint    `json:"course_id"`
	Email          string  `json:"email"`
	FinalPrice     float64 `json:"final_price"`
	NewUser        bool    `json:"new_user"`
}

type RegistrationStatusChangedData struct {
	RegistrationID uint   `json:"registration_id"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
}

type UserProvisionedData struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}

type AccountLinkedData struct {
	UserID   uint   `json:"user_id"`
	Provider string `json:"provider"`
}

type TestimonialCreatedData struct {
	TestimonialID  uint `json:"testimonial_id"`
	RegistrationID uint `json:"registration_id"`
	Rating         int  `json:"rating"`
}
