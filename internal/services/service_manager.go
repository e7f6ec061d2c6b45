package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/cache"
	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/identity"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Catalog      ServiceConfig
	Auth         ServiceConfig
	Registration ServiceConfig
	SiteContent  ServiceConfig // testimonials and media slots
	Dashboard    ServiceConfig

	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled bool
}

// ServiceDependencies are the shared collaborators every service is built from.
type ServiceDependencies struct {
	DB           *gorm.DB
	Repo         repositories.Repository
	Logger       *slog.Logger
	Validator    *validator.Validator
	CacheManager *cache.CacheManager
	Publisher    events.EventPublisher

	// Auth
	Provider      identity.Provider
	Tokens        *SessionTokens
	AllowedDomain string
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   ServiceDependencies
	config ServiceManagerConfig

	categoryService     CategoryService
	courseService       CourseService
	authService         AuthService
	registrationService RegistrationService
	testimonialService  TestimonialService
	mediaService        MediaService
	dashboardService    DashboardService
	userService         UserService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps ServiceDependencies, config ServiceManagerConfig) ServiceManager {
	if deps.CacheManager == nil {
		deps.CacheManager = cache.NewCacheManager(nil)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewWatermillEventPublisher(events.NewGoChannel(deps.Logger), "", deps.Logger)
	}
	return &serviceManager{deps: deps, config: config}
}

// NewDefaultServiceManager creates a service manager with every service enabled
func NewDefaultServiceManager(deps ServiceDependencies) ServiceManager {
	return NewServiceManager(deps, ServiceManagerConfig{
		Catalog:        ServiceConfig{Enabled: true},
		Auth:           ServiceConfig{Enabled: true},
		Registration:   ServiceConfig{Enabled: true},
		SiteContent:    ServiceConfig{Enabled: true},
		Dashboard:      ServiceConfig{Enabled: true},
		DefaultTimeout: 30 * time.Second,
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if err := sm.initializeServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) initializeServices() error {
	d := sm.deps

	if sm.config.Catalog.Enabled {
		sm.categoryService = NewCategoryService(d.Repo, d.DB, d.Logger, d.Validator, d.CacheManager)
		sm.courseService = NewCourseService(d.Repo, d.DB, d.Logger, d.Validator, d.CacheManager, d.Publisher)
		sm.deps.Logger.Info("Catalog services initialized")
	}

	if sm.config.Auth.Enabled {
		if d.Provider == nil || d.Tokens == nil {
			return fmt.Errorf("auth service requires an identity provider and session tokens")
		}
		sm.authService = NewAuthService(d.Repo, d.DB, d.Logger, d.Provider, d.Tokens, d.AllowedDomain, d.Publisher)
		sm.userService = NewUserService(d.Repo, d.Logger)
		sm.deps.Logger.Info("Auth service initialized", "provider", d.Provider.Name())
	}

	if sm.config.Registration.Enabled {
		sm.registrationService = NewRegistrationService(d.Repo, d.DB, d.Logger, d.Validator, d.CacheManager, d.Publisher)
		sm.deps.Logger.Info("Registration service initialized")
	}

	if sm.config.SiteContent.Enabled {
		sm.testimonialService = NewTestimonialService(d.Repo, d.DB, d.Logger, d.Validator, d.CacheManager, d.Publisher)
		sm.mediaService = NewMediaService(d.Repo, d.DB, d.Logger, d.Validator, d.CacheManager)
		sm.deps.Logger.Info("Site content services initialized")
	}

	if sm.config.Dashboard.Enabled {
		sm.dashboardService = NewDashboardService(d.Repo, d.DB, d.Logger, d.CacheManager)
		sm.deps.Logger.Info("Dashboard service initialized")
	}

	return nil
}

// Service getters

func (sm *serviceManager) mustGet(name string, svc interface{}) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if svc == nil {
		panic(name + " service not enabled or not initialized")
	}
}

func (sm *serviceManager) Category() CategoryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("category", sm.categoryService)
	return sm.categoryService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("course", sm.courseService)
	return sm.courseService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("auth", sm.authService)
	return sm.authService
}

func (sm *serviceManager) Registration() RegistrationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("registration", sm.registrationService)
	return sm.registrationService
}

func (sm *serviceManager) Testimonial() TestimonialService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("testimonial", sm.testimonialService)
	return sm.testimonialService
}

func (sm *serviceManager) Media() MediaService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("media", sm.mediaService)
	return sm.mediaService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("dashboard", sm.dashboardService)
	return sm.dashboardService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustGet("user", sm.userService)
	return sm.userService
}

// Health and lifecycle

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown closes the event publisher. The repository is owned by the caller.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.Publisher.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
