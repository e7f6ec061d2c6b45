package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

func registrationForm(courseID uint, email string) *CreateRegistrationRequest {
	return &CreateRegistrationRequest{
		FirstName: "Amaya",
		LastName:  "Silva",
		Email:     email,
		Phone:     strPtr("0771234567"),
		CourseID:  courseID,
	}
}

func TestRegister_CreatesStudentAndPendingRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategory(t, 1, "Programming")
	course := env.seedCourse(t, 5, 1, "go", models.CourseStatusPublished, 30000)
	sale := 24000.0
	require.NoError(t, env.db.Model(course).Update("sale_price", sale).Error)
	svc := env.registrationService()

	result, err := svc.Register(context.Background(), registrationForm(5, "Amaya@Example.COM"))
	require.NoError(t, err)

	assert.True(t, result.NewUser)
	reg := result.Registration
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.Equal(t, 24000.0, reg.FinalPrice)
	assert.Equal(t, "amaya@example.com", reg.User.Email)
	assert.Equal(t, models.RoleStudent, reg.User.Role)

	created := env.publisher.EventsOfType(events.RegistrationCreated)
	require.Len(t, created, 1)
	assert.Nil(t, created[0].ActorID)

	t.Run("open registration blocks a second one", func(t *testing.T) {
		_, err := svc.Register(context.Background(), registrationForm(5, "amaya@example.com"))
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.Equal(t, int64(1), env.count(t, &models.Registration{}, "course_id = ?", 5))
	})

	t.Run("completed registration allows another", func(t *testing.T) {
		require.NoError(t, env.db.Model(&models.Registration{}).Where("id = ?", reg.ID).Update("status", models.RegistrationCompleted).Error)

		again, err := svc.Register(context.Background(), registrationForm(5, "amaya@example.com"))
		require.NoError(t, err)
		assert.False(t, again.NewUser)
		assert.Equal(t, reg.UserID, again.Registration.UserID)
	})
}

func TestRegister_RejectsUnavailableCourses(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategory(t, 1, "Programming")
	env.seedCourse(t, 5, 1, "draft", models.CourseStatusDraft, 100)
	svc := env.registrationService()

	for name, courseID := range map[string]uint{"draft": 5, "missing": 99} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), registrationForm(courseID, "a@example.com"))
			assert.ErrorIs(t, err, ErrCourseNotFound)
			assert.Zero(t, env.count(t, &models.User{}, "1 = 1"))
		})
	}

	t.Run("invalid form", func(t *testing.T) {
		form := registrationForm(5, "not-an-email")
		form.FirstName = ""
		_, err := svc.Register(context.Background(), form)
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Len(t, verrs, 2)
	})
}

func TestRegistrationUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategory(t, 1, "Programming")
	env.seedCourse(t, 5, 1, "go", models.CourseStatusPublished, 100)
	admin := env.seedUser(t, "admin@boffin.lk", models.RoleAdmin)
	student := env.seedUser(t, "student@example.com", models.RoleStudent)
	reg := env.seedRegistration(t, student.ID, 5, models.RegistrationPending, 100)
	svc := env.registrationService()
	ctx := context.Background()

	confirmed, err := svc.UpdateStatus(ctx, reg.ID, &UpdateRegistrationStatusRequest{
		Status: models.RegistrationConfirmed,
		Notes:  strPtr("paid by bank transfer"),
	}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ApprovedByID)
	assert.Equal(t, admin.ID, *confirmed.ApprovedByID)
	assert.NotNil(t, confirmed.ApprovalDate)
	require.NotNil(t, confirmed.Notes)
	assert.Equal(t, "paid by bank transfer", *confirmed.Notes)

	// Skipping back is not a valid transition.
	_, err = svc.UpdateStatus(ctx, reg.ID, &UpdateRegistrationStatusRequest{Status: models.RegistrationPending}, admin.ID)
	var rule *BusinessRuleError
	require.True(t, errors.As(err, &rule))
	assert.Equal(t, "registration_status_transition", rule.Rule)

	completed, err := svc.UpdateStatus(ctx, reg.ID, &UpdateRegistrationStatusRequest{Status: models.RegistrationCompleted}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCompleted, completed.Status)
	assert.Len(t, env.publisher.EventsOfType(events.RegistrationStatusChanged), 2)

	_, err = svc.UpdateStatus(ctx, 999, &UpdateRegistrationStatusRequest{Status: models.RegistrationConfirmed}, admin.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestRegistrationList(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategory(t, 1, "Programming")
	env.seedCourse(t, 5, 1, "go", models.CourseStatusPublished, 100)
	env.seedCourse(t, 6, 1, "rust", models.CourseStatusPublished, 100)
	student := env.seedUser(t, "student@example.com", models.RoleStudent)
	env.seedRegistration(t, student.ID, 5, models.RegistrationPending, 100)
	env.seedRegistration(t, student.ID, 6, models.RegistrationConfirmed, 100)

	confirmed := models.RegistrationConfirmed
	result, err := env.registrationService().List(context.Background(), repositories.RegistrationFilters{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, result.Registrations, 1)
	assert.Equal(t, uint(6), result.Registrations[0].CourseID)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, 1, result.Page)
}
