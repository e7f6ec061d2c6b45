package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/models"
)

func seedDashboardData(t *testing.T, env *testEnv) {
	t.Helper()
	env.seedCategory(t, 1, "Programming")
	env.seedCategory(t, 2, "Design")
	env.seedCourse(t, 1, 1, "go", models.CourseStatusPublished, 100)
	env.seedCourse(t, 2, 1, "rust", models.CourseStatusDraft, 100)
	env.seedCourse(t, 3, 2, "figma", models.CourseStatusArchived, 100)

	a := env.seedUser(t, "a@example.com", models.RoleStudent)
	b := env.seedUser(t, "b@example.com", models.RoleStudent)
	env.seedUser(t, "admin@boffin.lk", models.RoleAdmin)

	env.seedRegistration(t, a.ID, 1, models.RegistrationPending, 999.99)
	env.seedRegistration(t, a.ID, 3, models.RegistrationConfirmed, 150.25)
	reg := env.seedRegistration(t, b.ID, 1, models.RegistrationCompleted, 100.10)

	require.NoError(t, env.db.Create(&models.Testimonial{RegistrationID: reg.ID, Content: "Great", Rating: 5, IsActive: true}).Error)
}

func TestDashboardGetStats(t *testing.T) {
	env := newTestEnv(t)
	seedDashboardData(t, env)

	stats, err := NewDashboardService(env.repo, env.db, env.logger, env.cache).GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[models.CourseStatus]int64{
		models.CourseStatusDraft:     1,
		models.CourseStatusPublished: 1,
		models.CourseStatusArchived:  1,
	}, stats.CoursesByStatus)
	assert.Equal(t, map[models.RegistrationStatus]int64{
		models.RegistrationPending:   1,
		models.RegistrationConfirmed: 1,
		models.RegistrationCompleted: 1,
	}, stats.RegistrationsByStatus)
	assert.Equal(t, int64(2), stats.TotalStudents)
	assert.Equal(t, int64(2), stats.TotalCategories)
	assert.Equal(t, int64(1), stats.ActiveTestimonials)
	// Pending registrations are not revenue.
	assert.InDelta(t, 250.35, stats.TotalRevenue, 0.001)
	assert.Len(t, stats.RecentRegistrations, 3)
}

func TestDashboardGetStats_EmptyStatusesAreZero(t *testing.T) {
	env := newTestEnv(t)

	stats, err := NewDashboardService(env.repo, env.db, env.logger, env.cache).GetStats(context.Background())
	require.NoError(t, err)

	assert.Len(t, stats.CoursesByStatus, 3)
	assert.Zero(t, stats.CoursesByStatus[models.CourseStatusPublished])
	assert.Len(t, stats.RegistrationsByStatus, 3)
	assert.Zero(t, stats.TotalRevenue)
}

func TestDashboardGetStats_ServedFromCacheUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	seedDashboardData(t, env)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cm := cache.NewCacheManager(client)

	svc := NewDashboardService(env.repo, env.db, env.logger, cm)
	ctx := context.Background()

	first, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("stats:dashboard"))

	env.seedUser(t, "c@example.com", models.RoleStudent)

	cached, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalStudents, cached.TotalStudents)

	cache.InvalidateStats(ctx, cm)
	fresh, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalStudents+1, fresh.TotalStudents)
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 250.35, roundFloat(250.349999, 2))
	assert.Equal(t, 0.0, roundFloat(0, 2))
	assert.Equal(t, 12.5, roundFloat(12.499, 1))
}
