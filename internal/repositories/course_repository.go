package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
)

// CategoryRepository interface for course categories
type CategoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.Category) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List returns every category with its course count, ordered by name.
	List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error)

	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error)
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
}

// CourseRepository interface for course rows and their aggregate reads
type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)

	// GetWithContent loads category, modules and topics ordered by order_index.
	GetWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	// GetPublishedBySlug is the cached public read.
	GetPublishedBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error)

	// Update writes every scalar column of course.
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.CourseStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)

	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
	CountByCategory(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error)
	HasRegistrations(ctx context.Context, tx *gorm.DB, courseID uint) (bool, error)
}

// ModuleRepository interface for the modules of a course
type ModuleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, module *models.Module) error
	Update(ctx context.Context, tx *gorm.DB, module *models.Module) error
	GetIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uint) error
}

// TopicRepository interface for the topics of a module
type TopicRepository interface {
	Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	GetIDsByModule(ctx context.Context, tx *gorm.DB, moduleID uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error
	DeleteByModules(ctx context.Context, tx *gorm.DB, moduleIDs []uint) error
}
