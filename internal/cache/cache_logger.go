package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// Key builders shared by repositories (readers) and services (invalidators).

func CourseSlugKey(slug string) string { return "slug:" + slug }

func CourseListKey(signature string) string { return "courses:" + signature }

const (
	CategoryListKey  = "categories"
	DashboardKey     = "dashboard"
	testimonialsKeys = "testimonials:*"
)

func TestimonialListKey(featuredOnly bool, limit, offset int) string {
	return fmt.Sprintf("testimonials:%t:%d:%d", featuredOnly, limit, offset)
}

func MediaKey(key string) string { return "media:" + key }

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops the public page of every given slug plus all
// course listings and category counts. Pass the old slug as well when it changed.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, CourseSlugKey(s))
		}
	}
	SafeDelete(ctx, cm.Course, keys...)
	SafeInvalidatePattern(ctx, cm.Catalog, CourseListKey("*"))
	SafeDelete(ctx, cm.Catalog, CategoryListKey)
	SafeDelete(ctx, cm.Stats, DashboardKey)
}

// InvalidateCategoryCache drops category and course listings.
func InvalidateCategoryCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Catalog, CategoryListKey)
	SafeInvalidatePattern(ctx, cm.Catalog, CourseListKey("*"))
}

// InvalidateTestimonialCache drops every cached public testimonial page.
func InvalidateTestimonialCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Catalog, testimonialsKeys)
	SafeDelete(ctx, cm.Stats, DashboardKey)
}

func InvalidateMediaCache(ctx context.Context, cm *CacheManager, key string) {
	SafeDelete(ctx, cm.Catalog, MediaKey(key))
}

func InvalidateSession(ctx context.Context, cm *CacheManager, token string) {
	SafeDelete(ctx, cm.Session, token)
}

// RevokedSessionKey marks a signed-out session. It outlives any session entry
// that a concurrent lookup may still write.
func RevokedSessionKey(token string) string { return "revoked:" + token }

// RevokeSession records the revocation and drops the cached session.
func RevokeSession(ctx context.Context, cm *CacheManager, token string) {
	if err := cm.Session.Set(ctx, RevokedSessionKey(token), true, 2*SessionCacheConfig.TTL); err != nil {
		slog.WarnContext(ctx, "Failed to mark session revoked", "error", err)
	}
	InvalidateSession(ctx, cm, token)
}

// IsSessionRevoked reports a revocation marker. Without redis nothing is cached,
// so there is nothing to shadow and it reports false.
func IsSessionRevoked(ctx context.Context, cm *CacheManager, token string) bool {
	revoked, err := cm.Session.Exists(ctx, RevokedSessionKey(token))
	return err == nil && revoked
}

func InvalidateStats(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Stats, DashboardKey)
}
