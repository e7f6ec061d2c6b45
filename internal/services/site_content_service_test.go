package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestTestimonialLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategory(t, 1, "Programming")
	env.seedCourse(t, 5, 1, "go", models.CourseStatusPublished, 100)
	student := env.seedUser(t, "student@example.com", models.RoleStudent)
	reg := env.seedRegistration(t, student.ID, 5, models.RegistrationCompleted, 100)
	svc := NewTestimonialService(env.repo, env.db, env.logger, env.validator, env.cache, env.publisher)
	ctx := context.Background()

	visible, err := svc.Create(ctx, &CreateTestimonialRequest{RegistrationID: reg.ID, Content: "Loved it", Rating: 5}, adminID)
	require.NoError(t, err)
	assert.True(t, visible.IsActive)
	assert.False(t, visible.IsFeatured)
	assert.Len(t, env.publisher.EventsOfType(events.TestimonialCreated), 1)

	hidden, err := svc.Create(ctx, &CreateTestimonialRequest{
		RegistrationID: reg.ID,
		Content:        "Too fast",
		Rating:         2,
		IsActive:       boolPtr(false),
	}, adminID)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)
	assert.Equal(t, int64(1), env.count(t, &models.Testimonial{}, "id = ? AND is_active = ?", hidden.ID, false))

	public, err := svc.ListPublic(ctx, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, public.Testimonials, 1)
	assert.Equal(t, visible.ID, public.Testimonials[0].ID)

	featured, err := svc.Update(ctx, visible.ID, &UpdateTestimonialRequest{IsFeatured: boolPtr(true)}, adminID)
	require.NoError(t, err)
	assert.True(t, featured.IsFeatured)
	assert.Equal(t, "Loved it", featured.Content)

	onlyFeatured, err := svc.ListPublic(ctx, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, onlyFeatured.Testimonials, 1)

	require.NoError(t, svc.Delete(ctx, hidden.ID, adminID))
	assert.ErrorIs(t, svc.Delete(ctx, hidden.ID, adminID), ErrTestimonialNotFound)

	t.Run("hidden and featured are independent", func(t *testing.T) {
		both, err := svc.Create(ctx, &CreateTestimonialRequest{
			RegistrationID: reg.ID,
			Content:        "Queued for review",
			Rating:         4,
			IsActive:       boolPtr(false),
			IsFeatured:     boolPtr(true),
		}, adminID)
		require.NoError(t, err)

		stored, err := env.repo.Testimonial().GetByID(ctx, nil, both.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
		assert.True(t, stored.IsFeatured)

		featured, err := svc.ListPublic(ctx, true, 10, 0)
		require.NoError(t, err)
		for _, tm := range featured.Testimonials {
			assert.NotEqual(t, both.ID, tm.ID)
		}
	})

	t.Run("unknown registration", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateTestimonialRequest{RegistrationID: 404, Content: "x", Rating: 3}, adminID)
		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	})

	t.Run("rating out of range", func(t *testing.T) {
		_, err := svc.Update(ctx, visible.ID, &UpdateTestimonialRequest{Rating: func() *int { r := 6; return &r }()}, adminID)
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "rating", verrs[0].Field)
	})
}

func TestMediaSlots(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMediaService(env.repo, env.db, env.logger, env.validator, env.cache)
	ctx := context.Background()

	_, err := svc.Get(ctx, "home.hero")
	assert.ErrorIs(t, err, ErrMediaNotFound)

	asset, err := svc.Upsert(ctx, "home.hero", &UpsertMediaRequest{URL: "https://cdn.example.test/hero-v1.jpg"}, adminID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/hero-v1.jpg", asset.URL)

	asset, err = svc.Upsert(ctx, "home.hero", &UpsertMediaRequest{
		URL:     "https://cdn.example.test/hero-v2.jpg",
		AltText: strPtr("Students in the lab"),
	}, adminID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/hero-v2.jpg", asset.URL)
	require.NotNil(t, asset.AltText)
	assert.Equal(t, int64(1), env.count(t, &models.MediaAsset{}, "1 = 1"))

	assets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	require.NoError(t, svc.Delete(ctx, "home.hero", adminID))
	assert.ErrorIs(t, svc.Delete(ctx, "home.hero", adminID), ErrMediaNotFound)

	t.Run("invalid key", func(t *testing.T) {
		_, err := svc.Upsert(ctx, "Home Hero!", &UpsertMediaRequest{URL: "https://cdn.example.test/x.jpg"}, adminID)
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "key", verrs[0].Field)
	})
}
