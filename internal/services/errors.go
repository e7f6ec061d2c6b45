package services

import (
	"errors"
	"fmt"

	"github.com/boffin-lk/institute-service/internal/validator"
)

// ValidationErrors is returned when a request fails field validation.
type ValidationErrors = validator.ValidationErrors

// ===== SENTINEL ERRORS =====

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrModuleNotFound       = errors.New("module not found")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrTestimonialNotFound  = errors.New("testimonial not found")
	ErrMediaNotFound        = errors.New("media asset not found")

	ErrCourseSlugTaken        = errors.New("course slug already in use")
	ErrCategoryExists         = errors.New("category name or slug already in use")
	ErrCategoryInUse          = errors.New("category still has courses")
	ErrCourseHasRegistrations = errors.New("course has registrations")
	ErrAlreadyRegistered      = errors.New("an open registration already exists for this course")

	// Auth
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	ErrSignInFailed     = errors.New("sign-in failed")
	ErrAccountConflict  = errors.New("identity already linked to a different account")
	ErrInvalidSession   = errors.New("invalid or expired session")
	ErrInvalidState     = errors.New("invalid oauth state")
)

// ===== TYPED ERRORS =====

// NotFoundError reports a missing resource. It unwraps to the resource sentinel.
type NotFoundError struct {
	Resource string
	ID       interface{}
	sentinel error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.sentinel }

func NewNotFoundError(sentinel error, resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: id, sentinel: sentinel}
}

// ConflictError reports a uniqueness or referential conflict.
type ConflictError struct {
	Message  string
	sentinel error
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return e.sentinel }

func NewConflictError(sentinel error, format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...), sentinel: sentinel}
}

// BusinessRuleError reports a request that is well formed but not allowed in the current state.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) error {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

type PermissionError struct {
	UserID   uint
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d may not %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID uint, resource, action, reason string) error {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}

func IsAccountConflict(err error) bool {
	return errors.Is(err, ErrAccountConflict)
}

func IsDomainNotAllowed(err error) bool {
	return errors.Is(err, ErrDomainNotAllowed)
}
