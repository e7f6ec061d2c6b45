package repositories

import "context"

// Repository aggregates every repository the services use
type Repository interface {
	// Catalog domain
	Category() CategoryRepository
	Course() CourseRepository
	Module() ModuleRepository
	Topic() TopicRepository

	// Identity domain
	User() UserRepository
	Account() AccountRepository
	Session() SessionRepository

	// Enrolment and site content
	Registration() RegistrationRepository
	Testimonial() TestimonialRepository
	Media() MediaRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
