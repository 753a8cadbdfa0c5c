package repository

import (
	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// CategoryRepository category tree persistence
type CategoryRepository interface {
	Create(category *domain.Category) error
	FindByID(id string) (*domain.Category, error)
	FindBySlug(slug string) (*domain.Category, error)
	SlugExists(slug, excludeID string) (bool, error)
	ListAll() ([]*domain.Category, error)
	ListRoots() ([]*domain.Category, error)
	ListChildren(parentID string) ([]*domain.Category, error)
	CountChildren(id string) (int64, error)
	CountThreads(id string) (int64, error)
	Update(id string, fields map[string]interface{}, descendantLevels map[string]int) error
	UpdateDisplayOrders(orders []domain.CategoryOrder) error
	Delete(id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *domain.Category) error {
	return r.db.Create(category).Error
}

func (r *categoryRepository) FindByID(id string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindBySlug(slug string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugExists ignores excludeID so an update may keep its own slug
func (r *categoryRepository) SlugExists(slug, excludeID string) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Category{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) ListAll() ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.db.Order("level ASC, display_order ASC, name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListRoots() ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.db.Where("parent_id IS NULL").Order("display_order ASC, name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListChildren(parentID string) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.db.Where("parent_id = ?", parentID).Order("display_order ASC, name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) CountChildren(id string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Category{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

func (r *categoryRepository) CountThreads(id string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Thread{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// Update writes fields and, when the node moved, the recomputed levels of
// its descendants in the same transaction
func (r *categoryRepository) Update(id string, fields map[string]interface{}, descendantLevels map[string]int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			result := tx.Model(&domain.Category{}).Where("id = ?", id).Updates(fields)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		for childID, level := range descendantLevels {
			if err := tx.Model(&domain.Category{}).Where("id = ?", childID).Update("level", level).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *categoryRepository) UpdateDisplayOrders(orders []domain.CategoryOrder) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			if err := tx.Model(&domain.Category{}).Where("id = ?", o.ID).Update("display_order", o.DisplayOrder).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *categoryRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&domain.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
