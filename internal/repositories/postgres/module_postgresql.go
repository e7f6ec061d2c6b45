package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
)

// ModulePostgreSQL persists course modules. It is only ever called from
// inside the content synchronizer's transaction, so it carries no cache.
type ModulePostgreSQL struct {
	db *gorm.DB
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{db: db}
}

func (r *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if err := getDB(r.db, tx).WithContext(ctx).Omit("Topics").Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	return nil
}

// Update rewrites title, description and position. The course_id guard keeps
// a module from being moved into another course.
func (r *ModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ? AND course_id = ?", module.ID, module.CourseID).
		Updates(map[string]interface{}{
			"title":       module.Title,
			"description": module.Description,
			"order_index": module.OrderIndex,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("module %d in course %d: %w", module.ID, module.CourseID, repositories.ErrNotFound)
	}
	return nil
}

func (r *ModulePostgreSQL) GetIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Module{}).
		Where("course_id = ?", courseID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get module ids: %w", err)
	}
	return ids, nil
}

func (r *ModulePostgreSQL) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := getDB(r.db, tx).WithContext(ctx).Where("id IN ?", ids).Delete(&models.Module{}).Error; err != nil {
		return fmt.Errorf("failed to delete modules: %w", err)
	}
	return nil
}

func (r *ModulePostgreSQL) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uint) error {
	if err := getDB(r.db, tx).WithContext(ctx).Where("course_id = ?", courseID).Delete(&models.Module{}).Error; err != nil {
		return fmt.Errorf("failed to delete course modules: %w", err)
	}
	return nil
}

type TopicPostgreSQL struct {
	db *gorm.DB
}

func NewTopicPostgreSQL(db *gorm.DB) repositories.TopicRepository {
	return &TopicPostgreSQL{db: db}
}

func (r *TopicPostgreSQL) Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(topic).Error; err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (r *TopicPostgreSQL) Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	result := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Topic{}).
		Where("id = ? AND module_id = ?", topic.ID, topic.ModuleID).
		Updates(map[string]interface{}{
			"title":       topic.Title,
			"description": topic.Description,
			"order_index": topic.OrderIndex,
			"duration":    topic.Duration,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update topic: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("topic %d in module %d: %w", topic.ID, topic.ModuleID, repositories.ErrNotFound)
	}
	return nil
}

func (r *TopicPostgreSQL) GetIDsByModule(ctx context.Context, tx *gorm.DB, moduleID uint) ([]uint, error) {
	var ids []uint
	err := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Topic{}).
		Where("module_id = ?", moduleID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get topic ids: %w", err)
	}
	return ids, nil
}

func (r *TopicPostgreSQL) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := getDB(r.db, tx).WithContext(ctx).Where("id IN ?", ids).Delete(&models.Topic{}).Error; err != nil {
		return fmt.Errorf("failed to delete topics: %w", err)
	}
	return nil
}

func (r *TopicPostgreSQL) DeleteByModules(ctx context.Context, tx *gorm.DB, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	if err := getDB(r.db, tx).WithContext(ctx).Where("module_id IN ?", moduleIDs).Delete(&models.Topic{}).Error; err != nil {
		return fmt.Errorf("failed to delete module topics: %w", err)
	}
	return nil
}
