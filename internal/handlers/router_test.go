package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/identity"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories/postgres"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/validator"
)

type staticProvider struct {
	profiles map[string]*identity.Profile
}

func (p *staticProvider) Name() string { return "google" }

func (p *staticProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.test/auth?state=" + state
}

func (p *staticProvider) Exchange(_ context.Context, code string) (*identity.Profile, error) {
	if profile, ok := p.profiles[code]; ok {
		return profile, nil
	}
	return nil, identity.ErrExchangeFailed
}

type apiClient struct {
	t       *testing.T
	router  *gin.Engine
	session *http.Cookie
}

func (a *apiClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.session != nil {
		req.AddCookie(a.session)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func newTestAPI(t *testing.T) (*apiClient, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheManager := cache.NewCacheManager(nil)
	provider := &staticProvider{profiles: map[string]*identity.Profile{
		"staff": {
			ProviderAccountID: "g-1",
			Email:             "nimal@boffin.lk",
			EmailVerified:     true,
			Name:              "Nimal Perera",
		},
	}}
	cfg := testAuthConfig()

	serviceManager := services.NewDefaultServiceManager(services.ServiceDependencies{
		DB:            db,
		Repo:          postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, CacheManager: cacheManager}),
		Logger:        slogger,
		Validator:     validator.New(),
		CacheManager:  cacheManager,
		Provider:      provider,
		Tokens:        services.NewSessionTokens("0123456789abcdef0123456789abcdef", cfg.SessionMaxAge),
		AllowedDomain: "boffin.lk",
	})
	require.NoError(t, serviceManager.Initialize(context.Background()))
	t.Cleanup(func() { _ = serviceManager.Shutdown(context.Background()) })

	router := gin.New()
	NewHandlerManager(serviceManager, cfg, testLogger()).SetupRoutes(router)
	return &apiClient{t: t, router: router}, db
}

func (a *apiClient) signIn(code string) {
	a.t.Helper()

	w := a.do(http.MethodGet, "/auth/signin", nil)
	require.Equal(a.t, http.StatusFound, w.Code)
	state := cookieByName(w.Result(), stateCookieName)
	require.NotNil(a.t, state)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code="+code+"&state="+state.Value, nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: state.Value})
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(a.t, http.StatusFound, w.Code, w.Header().Get("Location"))

	a.session = cookieByName(w.Result(), testCookieName)
	require.NotNil(a.t, a.session)
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)

	w := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAdminCourseJourney(t *testing.T) {
	api, db := newTestAPI(t)
	require.NoError(t, db.Create(&models.Category{ID: 1, Name: "Programming", Slug: "programming"}).Error)

	w := api.do(http.MethodGet, "/api/v1/admin/courses", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	api.signIn("staff")

	w = api.do(http.MethodGet, "/auth/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = api.do(http.MethodPost, "/api/v1/admin/courses", map[string]interface{}{
		"title":         "Go Fundamentals",
		"category_id":   1,
		"regular_price": 20000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Course
	decode(t, w, &created)
	assert.Equal(t, "go-fundamentals", created.Slug)

	coursePath := fmt.Sprintf("/api/v1/admin/courses/%d", created.ID)
	w = api.do(http.MethodPut, coursePath, map[string]interface{}{
		"title":         "Go Fundamentals",
		"slug":          "go-fundamentals",
		"category_id":   1,
		"regular_price": 20000,
		"modules": []map[string]interface{}{{
			"title": "Basics",
			"topics": []map[string]interface{}{
				{"title": "Types", "duration": 30},
				{"title": "Control flow", "duration": 45},
			},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var synced models.Course
	decode(t, w, &synced)
	require.Len(t, synced.Modules, 1)
	require.Len(t, synced.Modules[0].Topics, 2)
	assert.Equal(t, "Types", synced.Modules[0].Topics[0].Title)

	// Drafts are not public.
	w = api.do(http.MethodGet, "/api/v1/courses/go-fundamentals", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPatch, coursePath+"/status", map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/courses/go-fundamentals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var public models.Course
	decode(t, w, &public)
	require.Len(t, public.Modules, 1)

	w = api.do(http.MethodPost, "/api/v1/registrations", map[string]interface{}{
		"first_name": "Amaya",
		"last_name":  "Silva",
		"email":      "amaya@example.com",
		"course_id":  created.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg services.RegistrationResult
	decode(t, w, &reg)
	assert.True(t, reg.NewUser)
	assert.Equal(t, 20000.0, reg.Registration.FinalPrice)

	w = api.do(http.MethodPost, "/api/v1/registrations", map[string]interface{}{
		"first_name": "Amaya",
		"last_name":  "Silva",
		"email":      "amaya@example.com",
		"course_id":  created.ID,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodDelete, coursePath, nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/admin/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPost, "/auth/signout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = api.do(http.MethodGet, "/api/v1/admin/courses", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectStudents(t *testing.T) {
	api, db := newTestAPI(t)
	require.NoError(t, db.Create(&models.User{
		Email:     "nimal@boffin.lk",
		FirstName: "Nimal",
		Role:      models.RoleStudent,
	}).Error)

	// Linking an existing student keeps the student role.
	api.signIn("staff")

	for _, path := range []string{
		"/api/v1/admin/courses",
		"/api/v1/admin/registrations",
		"/api/v1/admin/users",
		"/api/v1/admin/dashboard/stats",
	} {
		w := api.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}
