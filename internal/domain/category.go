package domain

import (
	"time"

	"gorm.io/gorm"
)

// MaxCategoryLevel deepest level a category may sit at (0-based)
const MaxCategoryLevel = 2

// Category node of the forum tree
type Category struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"column:name;type:varchar(100)" json:"name"`
	Slug         string    `gorm:"column:slug;type:varchar(100);uniqueIndex" json:"slug"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	Icon         string    `gorm:"column:icon;type:varchar(100)" json:"icon"`
	ParentID     *string   `gorm:"column:parent_id;type:varchar(36);index" json:"parent_id"`
	DisplayOrder int       `gorm:"column:display_order;default:0" json:"display_order"`
	IsLocked     bool      `gorm:"column:is_locked;default:false" json:"is_locked"`
	Level        int       `gorm:"column:level;default:0" json:"level"`
	ThreadCount  int       `gorm:"column:thread_count;default:0" json:"thread_count"`
	PostCount    int       `gorm:"column:post_count;default:0" json:"post_count"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CategoryNode category with its recursively sorted children
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// CategoryWithChildren category plus its direct subcategories
type CategoryWithChildren struct {
	Category
	Subcategories []*Category `json:"subcategories"`
}

// CreateCategoryRequest admin payload for a new category
type CreateCategoryRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=100"`
	Slug         string  `json:"slug" binding:"required,min=2,max=100"`
	Description  string  `json:"description" binding:"max=1000"`
	ParentID     *string `json:"parentId" binding:"omitempty,uuid"`
	DisplayOrder int     `json:"displayOrder" binding:"min=0"`
	IsLocked     bool    `json:"isLocked"`
	Icon         string  `json:"icon" binding:"max=50"`
}

// UpdateCategoryRequest partial update; nil fields are left untouched
type UpdateCategoryRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=100"`
	Slug         *string `json:"slug" binding:"omitempty,min=2,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=1000"`
	ParentID     *string `json:"parentId" binding:"omitempty,uuid"`
	DisplayOrder *int    `json:"displayOrder" binding:"omitempty,min=0"`
	IsLocked     *bool   `json:"isLocked"`
	Icon         *string `json:"icon" binding:"omitempty,max=50"`
}

// CategoryOrder single entry of a reorder batch
type CategoryOrder struct {
	ID           string `json:"id" binding:"required,uuid"`
	DisplayOrder int    `json:"displayOrder" binding:"min=0"`
}

// ReorderCategoriesRequest batch display_order update
type ReorderCategoriesRequest struct {
	Categories []CategoryOrder `json:"categories" binding:"required,min=1,dive"`
}
