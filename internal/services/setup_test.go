package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/repositories/postgres"
	"github.com/boffin-lk/institute-service/internal/utils"
	"github.com/boffin-lk/institute-service/internal/validator"
)

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	publisher *events.MockEventPublisher
}

// newTestEnv migrates a private in-memory sqlite database. One connection keeps
// the database alive and serialises transactions.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

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

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm := cache.NewCacheManager(nil)

	return &testEnv{
		db:        db,
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, CacheManager: cm}),
		logger:    log,
		validator: validator.New(),
		cache:     cm,
		publisher: events.NewMockEventPublisher(log),
	}
}

// withRedis rebuilds the repository and cache on a private miniredis.
func (e *testEnv) withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e.cache = cache.NewCacheManager(client)
	e.repo = postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: e.db, RedisClient: client, CacheManager: e.cache})
	return mr
}

func (e *testEnv) courseService() CourseService {
	return NewCourseService(e.repo, e.db, e.logger, e.validator, e.cache, e.publisher)
}

func (e *testEnv) registrationService() RegistrationService {
	return NewRegistrationService(e.repo, e.db, e.logger, e.validator, e.cache, e.publisher)
}

func (e *testEnv) seedCategory(t *testing.T, id uint, name string) *models.Category {
	t.Helper()
	category := &models.Category{ID: id, Name: name, Slug: utils.Slugify(name)}
	require.NoError(t, e.db.Create(category).Error)
	return category
}

func (e *testEnv) seedCourse(t *testing.T, id, categoryID uint, slug string, status models.CourseStatus, price float64) *models.Course {
	t.Helper()
	course := &models.Course{
		ID:               id,
		Title:            "Course " + slug,
		Slug:             slug,
		ShortDescription: "short",
		RegularPrice:     price,
		Status:           status,
		CategoryID:       categoryID,
	}
	require.NoError(t, e.db.Create(course).Error)
	return course
}

func (e *testEnv) seedModule(t *testing.T, id, courseID uint, title string, order int) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Module{ID: id, CourseID: courseID, Title: title, OrderIndex: order}).Error)
}

func (e *testEnv) seedTopic(t *testing.T, id, moduleID uint, title string, order int) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Topic{ID: id, ModuleID: moduleID, Title: title, OrderIndex: order, Duration: 30}).Error)
}

func (e *testEnv) seedUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Email: email, FirstName: "Test", LastName: "User", Role: role}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) seedRegistration(t *testing.T, userID, courseID uint, status models.RegistrationStatus, price float64) *models.Registration {
	t.Helper()
	registration := &models.Registration{
		UserID:           userID,
		CourseID:         courseID,
		Status:           status,
		RegistrationDate: time.Now(),
		FinalPrice:       price,
	}
	require.NoError(t, e.db.Create(registration).Error)
	return registration
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }
