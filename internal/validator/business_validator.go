package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/boffin-lk/institute-service/internal/models"
)

// BusinessValidator handles rules struct tags cannot express.
type BusinessValidator struct {
	validate *validator.Validate
}

var courseTransitions = map[models.CourseStatus][]models.CourseStatus{
	models.CourseStatusDraft:     {models.CourseStatusPublished},
	models.CourseStatusPublished: {models.CourseStatusArchived, models.CourseStatusDraft},
	models.CourseStatusArchived:  {models.CourseStatusDraft},
}

var registrationTransitions = map[models.RegistrationStatus][]models.RegistrationStatus{
	models.RegistrationPending:   {models.RegistrationConfirmed},
	models.RegistrationConfirmed: {models.RegistrationCompleted},
	models.RegistrationCompleted: {},
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateSyncCourseContent checks the struct tags and that no module id or
// topic id appears twice anywhere in the submitted tree.
func (bv *BusinessValidator) ValidateSyncCourseContent(req *SyncCourseContentRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	seenModules := make(map[uint]int)
	seenTopics := make(map[uint]string)
	for mi, m := range req.Modules {
		if m.ID != nil {
			if first, dup := seenModules[*m.ID]; dup {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("modules[%d].id", mi),
					Message: fmt.Sprintf("duplicate module id, already used by modules[%d]", first),
					Value:   *m.ID,
					Rule:    "unique_id",
				})
			} else {
				seenModules[*m.ID] = mi
			}
		}

		for ti, t := range m.Topics {
			if t.ID == nil {
				continue
			}
			path := fmt.Sprintf("modules[%d].topics[%d]", mi, ti)
			if first, dup := seenTopics[*t.ID]; dup {
				errors = append(errors, ValidationError{
					Field:   path + ".id",
					Message: fmt.Sprintf("duplicate topic id, already used by %s", first),
					Value:   *t.ID,
					Rule:    "unique_id",
				})
			} else {
				seenTopics[*t.ID] = path
			}
		}
	}

	errors = append(errors, bv.validatePricing(req.RegularPrice, req.SalePrice)...)
	return errors
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CreateCourseRequest) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validatePricing(req.RegularPrice, req.SalePrice)...)
	return errors
}

func (bv *BusinessValidator) validatePricing(regular float64, sale *float64) ValidationErrors {
	if sale != nil && *sale > regular {
		return ValidationErrors{{
			Field:   "sale_price",
			Message: "must not exceed regular_price",
			Value:   *sale,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// CanTransitionCourse reports whether a course may move from one status to another.
func (bv *BusinessValidator) CanTransitionCourse(from, to models.CourseStatus) bool {
	for _, allowed := range courseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionRegistration reports whether a registration may move from one status to another.
func (bv *BusinessValidator) CanTransitionRegistration(from, to models.RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
