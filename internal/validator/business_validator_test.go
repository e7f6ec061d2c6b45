package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boffin-lk/institute-service/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func validSyncRequest() *SyncCourseContentRequest {
	return &SyncCourseContentRequest{
		CourseFields: CourseFields{Title: "Go Fundamentals", CategoryID: 1, RegularPrice: 100},
		Modules: []ModuleInput{
			{ID: uintPtr(10), Title: "Basics", Topics: []TopicInput{
				{ID: uintPtr(100), Title: "Types"},
				{Title: "Loops"},
			}},
			{Title: "Concurrency"},
		},
	}
}

func TestValidateSyncCourseContent_Valid(t *testing.T) {
	bv := New().GetBusinessValidator()
	assert.Empty(t, bv.ValidateSyncCourseContent(validSyncRequest()))
}

func TestValidateSyncCourseContent_EmptyModulesAllowed(t *testing.T) {
	bv := New().GetBusinessValidator()
	req := validSyncRequest()
	req.Modules = []ModuleInput{}
	assert.Empty(t, bv.ValidateSyncCourseContent(req))
}

func TestValidateSyncCourseContent_MissingModules(t *testing.T) {
	bv := New().GetBusinessValidator()
	req := validSyncRequest()
	req.Modules = nil

	errs := bv.ValidateSyncCourseContent(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "modules", errs[0].Field)
	assert.Equal(t, "required", errs[0].Rule)
}

func TestValidateSyncCourseContent_RequiredFields(t *testing.T) {
	bv := New().GetBusinessValidator()
	req := validSyncRequest()
	req.Title = ""
	req.CategoryID = 0
	req.Modules[1].Title = ""

	errs := bv.ValidateSyncCourseContent(req)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"title", "category_id", "modules[1].title"}, fields)
}

func TestValidateSyncCourseContent_DuplicateIDs(t *testing.T) {
	bv := New().GetBusinessValidator()

	t.Run("duplicate module id", func(t *testing.T) {
		req := validSyncRequest()
		req.Modules[1].ID = uintPtr(10)
		errs := bv.ValidateSyncCourseContent(req)
		require.Len(t, errs, 1)
		assert.Equal(t, "modules[1].id", errs[0].Field)
		assert.Equal(t, "unique_id", errs[0].Rule)
	})

	t.Run("duplicate topic id across modules", func(t *testing.T) {
		req := validSyncRequest()
		req.Modules[1].Topics = []TopicInput{{ID: uintPtr(100), Title: "Channels"}}
		errs := bv.ValidateSyncCourseContent(req)
		require.Len(t, errs, 1)
		assert.Equal(t, "modules[1].topics[0].id", errs[0].Field)
	})
}

func TestValidateSyncCourseContent_SalePriceAboveRegular(t *testing.T) {
	bv := New().GetBusinessValidator()
	req := validSyncRequest()
	sale := 150.0
	req.SalePrice = &sale

	errs := bv.ValidateSyncCourseContent(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "sale_price", errs[0].Field)
}

func TestCanTransitionCourse(t *testing.T) {
	bv := New().GetBusinessValidator()
	tests := []struct {
		from, to models.CourseStatus
		want     bool
	}{
		{models.CourseStatusDraft, models.CourseStatusPublished, true},
		{models.CourseStatusPublished, models.CourseStatusArchived, true},
		{models.CourseStatusArchived, models.CourseStatusDraft, true},
		{models.CourseStatusPublished, models.CourseStatusDraft, true},
		{models.CourseStatusDraft, models.CourseStatusArchived, false},
		{models.CourseStatusArchived, models.CourseStatusPublished, false},
		{models.CourseStatusDraft, models.CourseStatusDraft, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bv.CanTransitionCourse(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionRegistration(t *testing.T) {
	bv := New().GetBusinessValidator()
	assert.True(t, bv.CanTransitionRegistration(models.RegistrationPending, models.RegistrationConfirmed))
	assert.True(t, bv.CanTransitionRegistration(models.RegistrationConfirmed, models.RegistrationCompleted))
	assert.False(t, bv.CanTransitionRegistration(models.RegistrationPending, models.RegistrationCompleted))
	assert.False(t, bv.CanTransitionRegistration(models.RegistrationCompleted, models.RegistrationPending))
}

func TestValidate_RegistrationRequest(t *testing.T) {
	v := New()
	err := v.Validate(&CreateRegistrationRequest{FirstName: "A", LastName: "B", Email: "not-an-email", CourseID: 1})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "email", verrs[0].Field)
	assert.Equal(t, "must be a valid email address", verrs[0].Message)
}

func TestValidateVar_MediaKey(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateVar("key", "home.hero", "required,media_key"))
	assert.Error(t, v.ValidateVar("key", "Home Hero", "required,media_key"))
}
