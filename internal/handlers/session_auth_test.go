package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/validator"
)

func TestAdminGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := newFakeAuthService()
	auth.sessions["admin-token"] = &services.SessionClaims{UserID: 1, Role: models.RoleAdmin}
	auth.sessions["student-token"] = &services.SessionClaims{UserID: 2, Role: models.RoleStudent}

	mw := NewSessionAuthMiddleware(auth, testCookieName, testLogger())
	reached := 0
	r := gin.New()
	r.GET("/api/v1/admin/courses",
		mw.AuthMiddleware(),
		mw.RequireRoleMiddleware(models.RoleAdmin),
		func(c *gin.Context) {
			reached++
			c.JSON(http.StatusOK, gin.H{"actor": actorID(c)})
		})

	cases := []struct {
		name     string
		prepare  func(*http.Request)
		wantCode int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"unknown cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: testCookieName, Value: "forged"})
		}, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) {
			r.Header.Set("Authorization", "admin-token")
		}, http.StatusUnauthorized},
		{"student session", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: testCookieName, Value: "student-token"})
		}, http.StatusForbidden},
		{"admin cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: testCookieName, Value: "admin-token"})
		}, http.StatusOK},
		{"admin bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "bearer admin-token")
		}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/courses", nil)
			tc.prepare(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.wantCode, w.Code)
		})
	}

	// Rejected requests never reach the handler.
	assert.Equal(t, 2, reached)
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := NewSessionAuthMiddleware(newFakeAuthService(), testCookieName, testLogger())
	r := gin.New()
	r.GET("/x", mw.RequireRoleMiddleware(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBaseHandler(testLogger())

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", validator.ValidationErrors{{Field: "title", Message: "title is required", Rule: "required"}}, http.StatusBadRequest},
		{"business rule", services.NewBusinessRuleError("course_status_transition", "no", nil), http.StatusUnprocessableEntity},
		{"permission", services.NewPermissionError(2, "course", "delete", "admin only"), http.StatusForbidden},
		{"not found", services.NewNotFoundError(services.ErrCourseNotFound, "course", 9), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("sync: %w", services.NewNotFoundError(services.ErrTopicNotFound, "topic", 3)), http.StatusNotFound},
		{"conflict", services.NewConflictError(services.ErrCourseSlugTaken, "slug %q taken", "go"), http.StatusConflict},
		{"bare conflict sentinel", services.ErrAlreadyRegistered, http.StatusConflict},
		{"invalid session", fmt.Errorf("%w: expired", services.ErrInvalidSession), http.StatusUnauthorized},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tc.err)
			require.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}
