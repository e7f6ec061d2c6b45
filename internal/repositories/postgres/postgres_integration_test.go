package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/config"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/pkg"
)

// startPostgres runs a throwaway postgres and returns a migrated connection.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "institute",
				"POSTGRES_PASSWORD": "institute",
				"POSTGRES_DB":       "institute",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := pkg.InitDatabase(&config.Config{
		Environment: "production",
		Database: config.DatabaseConfig{
			DSN:             fmt.Sprintf("postgres://institute:institute@%s:%s/institute?sslmode=disable", host, port.Port()),
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Minute,
			AutoMigrate:     true,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresRepository(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db, CacheManager: cache.NewCacheManager(nil)})
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	category := &models.Category{Name: "Programming", Slug: "programming"}
	require.NoError(t, repo.Category().Create(ctx, nil, category))

	course := &models.Course{
		Title:            "Go Fundamentals",
		Slug:             "go-fundamentals",
		ShortDescription: "Types, interfaces and goroutines",
		RegularPrice:     20000,
		Status:           models.CourseStatusPublished,
		CategoryID:       category.ID,
	}
	require.NoError(t, repo.Course().Create(ctx, nil, course))

	t.Run("unique slug is reported as a duplicate", func(t *testing.T) {
		dup := *course
		dup.ID = 0
		err := repo.Course().Create(ctx, nil, &dup)
		assert.True(t, repositories.IsDuplicateError(err), "got %v", err)
	})

	t.Run("content is ordered by order_index", func(t *testing.T) {
		second := &models.Module{CourseID: course.ID, Title: "Concurrency", OrderIndex: 1}
		first := &models.Module{CourseID: course.ID, Title: "Basics", OrderIndex: 0}
		require.NoError(t, repo.Module().Create(ctx, nil, second))
		require.NoError(t, repo.Module().Create(ctx, nil, first))
		require.NoError(t, repo.Topic().Create(ctx, nil, &models.Topic{ModuleID: first.ID, Title: "Control flow", OrderIndex: 1}))
		require.NoError(t, repo.Topic().Create(ctx, nil, &models.Topic{ModuleID: first.ID, Title: "Types", OrderIndex: 0}))

		loaded, err := repo.Course().GetWithContent(ctx, nil, course.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Modules, 2)
		assert.Equal(t, "Basics", loaded.Modules[0].Title)
		require.Len(t, loaded.Modules[0].Topics, 2)
		assert.Equal(t, "Types", loaded.Modules[0].Topics[0].Title)
		require.NotNil(t, loaded.Category)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		courses, total, err := repo.Course().List(ctx, nil, repositories.CourseFilters{Search: "GOROUTINES"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, courses, 1)
	})

	t.Run("revenue sums non-pending registrations", func(t *testing.T) {
		student := &models.User{Email: "amaya@example.com", FirstName: "Amaya", Role: models.RoleStudent}
		require.NoError(t, repo.User().Create(ctx, nil, student))

		for status, price := range map[models.RegistrationStatus]float64{
			models.RegistrationPending:   999.99,
			models.RegistrationConfirmed: 150.25,
			models.RegistrationCompleted: 100.10,
		} {
			require.NoError(t, repo.Registration().Create(ctx, nil, &models.Registration{
				UserID:           student.ID,
				CourseID:         course.ID,
				Status:           status,
				RegistrationDate: time.Now(),
				FinalPrice:       price,
			}))
		}

		revenue, err := repo.Dashboard().SumRevenue(ctx, nil, []models.RegistrationStatus{
			models.RegistrationConfirmed,
			models.RegistrationCompleted,
		})
		require.NoError(t, err)
		assert.InDelta(t, 250.35, revenue, 0.001)

		open, err := repo.Registration().HasOpenRegistration(ctx, nil, student.ID, course.ID)
		require.NoError(t, err)
		assert.True(t, open)
	})
}
