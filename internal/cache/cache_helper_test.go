package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute_FetchesOnceThenServesFromCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedCourse{ID: 5, Title: "Go"}, nil
	}

	var first cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseSlugKey("go"), &first, time.Minute, fetch))
	assert.Equal(t, "Go", first.Title)

	// Stored before CacheOrExecute returns.
	assert.True(t, mr.Exists("course:slug:go"))

	var second cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseSlugKey("go"), &second, time.Minute, fetch))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheOrExecute_PropagatesFetchError(t *testing.T) {
	cm, _ := newTestManager(t)
	sentinel := errors.New("boom")

	var dest cachedCourse
	err := cm.Course.CacheOrExecute(context.Background(), "x", &dest, time.Minute, func() (interface{}, error) {
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	assert.NoError(t, cm.Course.Set(ctx, "k", 1, time.Minute))
	assert.ErrorIs(t, cm.Course.Get(ctx, "k", new(int)), ErrCacheNotAvailable)
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	var dest cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, "k", &dest, time.Minute, func() (interface{}, error) {
		return cachedCourse{ID: 1}, nil
	}))
	assert.Equal(t, uint(1), dest.ID)
}

func TestInvalidateCourseCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Course.Set(ctx, CourseSlugKey("old-slug"), 1, time.Minute))
	require.NoError(t, cm.Course.Set(ctx, CourseSlugKey("new-slug"), 1, time.Minute))
	require.NoError(t, cm.Course.Set(ctx, CourseSlugKey("other"), 1, time.Minute))
	require.NoError(t, cm.Catalog.Set(ctx, CourseListKey("a"), 1, time.Minute))
	require.NoError(t, cm.Catalog.Set(ctx, CourseListKey("b"), 1, time.Minute))
	require.NoError(t, cm.Catalog.Set(ctx, CategoryListKey, 1, time.Minute))
	require.NoError(t, cm.Catalog.Set(ctx, MediaKey("home.hero"), 1, time.Minute))

	InvalidateCourseCache(ctx, cm, "old-slug", "new-slug")

	assert.False(t, mr.Exists("course:slug:old-slug"))
	assert.False(t, mr.Exists("course:slug:new-slug"))
	assert.True(t, mr.Exists("course:slug:other"))
	assert.False(t, mr.Exists("catalog:courses:a"))
	assert.False(t, mr.Exists("catalog:courses:b"))
	assert.False(t, mr.Exists("catalog:categories"))
	assert.True(t, mr.Exists("catalog:media:home.hero"))
}

func TestCacheOrExecute_InvalidationAfterReturnSticks(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		var dest cachedCourse
		require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseSlugKey("go"), &dest, time.Minute, func() (interface{}, error) {
			return &cachedCourse{ID: 5, Title: "Go"}, nil
		}))
		InvalidateCourseCache(ctx, cm, "go")
		require.False(t, mr.Exists("course:slug:go"), "iteration %d", i)
	}
}

func TestRevokeSession(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Session.Set(ctx, "sid-1", map[string]int{"user_id": 1}, time.Minute))
	assert.False(t, IsSessionRevoked(ctx, cm, "sid-1"))

	RevokeSession(ctx, cm, "sid-1")
	assert.False(t, mr.Exists("session:sid-1"))
	assert.True(t, IsSessionRevoked(ctx, cm, "sid-1"))
	assert.False(t, IsSessionRevoked(ctx, cm, "sid-2"))

	assert.False(t, IsSessionRevoked(ctx, NewCacheManager(nil), "sid-1"))
}

func TestHealthCheck(t *testing.T) {
	cm, mr := newTestManager(t)
	require.NoError(t, cm.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, cm.HealthCheck(context.Background()))
}
