package repository

import (
	"fmt"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ThreadRepository threads and their template side tables
type ThreadRepository interface {
	CreateWithContent(thread *domain.Thread, content domain.ThreadContent) error
	FindByID(id string) (*domain.Thread, error)
	FindBySlug(categoryID, slug string) (*domain.Thread, error)
	FindByIDs(ids []string) ([]*domain.Thread, error)
	FindContent(thread *domain.Thread) (domain.ThreadContent, error)
	SlugExists(categoryID, slug, excludeID string) (bool, error)
	Update(id string, fields map[string]interface{}, content domain.ThreadContent) error
	Delete(thread *domain.Thread) error
	IncrementViews(id string) error
	List(filter domain.ThreadFilter) ([]*domain.Thread, int64, error)
	SearchTitles(q string, limit, offset int) ([]*domain.Thread, int64, error)
	AttachAuthors(threads []*domain.Thread) error
	EachBatch(size int, fn func([]*domain.Thread) error) error
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

// CreateWithContent inserts the thread, its content row and bumps the
// category counter atomically
func (r *threadRepository) CreateWithContent(thread *domain.Thread, content domain.ThreadContent) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(thread).Error; err != nil {
			return err
		}
		content.SetThreadID(thread.ID)
		if err := tx.Create(content).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Category{}).
			Where("id = ?", thread.CategoryID).
			UpdateColumn("thread_count", gorm.Expr("thread_count + 1")).Error
	})
}

func (r *threadRepository) FindByID(id string) (*domain.Thread, error) {
	var thread domain.Thread
	if err := r.db.Where("id = ?", id).First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) FindBySlug(categoryID, slug string) (*domain.Thread, error) {
	var thread domain.Thread
	if err := r.db.Where("category_id = ? AND slug = ?", categoryID, slug).First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

// FindByIDs order of the result is unspecified
func (r *threadRepository) FindByIDs(ids []string) ([]*domain.Thread, error) {
	var threads []*domain.Thread
	if len(ids) == 0 {
		return threads, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&threads).Error
	return threads, err
}

func (r *threadRepository) FindContent(thread *domain.Thread) (domain.ThreadContent, error) {
	content, err := domain.NewThreadContent(thread.Template)
	if err != nil {
		return nil, err
	}
	if err := r.db.Where("thread_id = ?", thread.ID).First(content).Error; err != nil {
		return nil, err
	}
	return content, nil
}

func (r *threadRepository) SlugExists(categoryID, slug, excludeID string) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Thread{}).Where("category_id = ? AND slug = ?", categoryID, slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// Update writes thread columns and, when given, the full content row
func (r *threadRepository) Update(id string, fields map[string]interface{}, content domain.ThreadContent) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			result := tx.Model(&domain.Thread{}).Where("id = ?", id).Updates(fields)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		if content != nil {
			content.SetThreadID(id)
			if err := tx.Save(content).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the thread with its content, posts and likes and adjusts
// the category counters
func (r *threadRepository) Delete(thread *domain.Thread) error {
	content, err := domain.NewThreadContent(thread.Template)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&domain.Post{}).Select("id").Where("thread_id = ?", thread.ID)
		if err := tx.Where("post_id IN (?)", postIDs).Delete(&domain.PostLike{}).Error; err != nil {
			return err
		}

		var authors []struct {
			AuthorID string
			Total    int
		}
		if err := tx.Model(&domain.Post{}).
			Select("author_id, COUNT(*) AS total").
			Where("thread_id = ?", thread.ID).
			Group("author_id").
			Scan(&authors).Error; err != nil {
			return err
		}

		deleted := tx.Where("thread_id = ?", thread.ID).Delete(&domain.Post{})
		if deleted.Error != nil {
			return deleted.Error
		}
		for _, a := range authors {
			if err := tx.Model(&domain.Profile{}).
				Where("user_id = ?", a.AuthorID).
				UpdateColumn("total_posts", decrementExpr("total_posts", a.Total)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("thread_id = ?", thread.ID).Delete(&domain.ThreadLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", thread.ID).Delete(content).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", thread.ID).Delete(&domain.Thread{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&domain.Category{}).
			Where("id = ?", thread.CategoryID).
			UpdateColumns(map[string]interface{}{
				"thread_count": decrementExpr("thread_count", 1),
				"post_count":   decrementExpr("post_count", int(deleted.RowsAffected)),
			}).Error
	})
}

func (r *threadRepository) IncrementViews(id string) error {
	return r.db.Model(&domain.Thread{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

var threadSortColumns = map[domain.ThreadSort]string{
	domain.ThreadSortRecent:  "created_at DESC",
	domain.ThreadSortPopular: "like_count DESC",
	domain.ThreadSortReplies: "reply_count DESC",
	domain.ThreadSortViews:   "view_count DESC",
}

// List pinned threads first, then the requested sort key
func (r *threadRepository) List(filter domain.ThreadFilter) ([]*domain.Thread, int64, error) {
	filter.Normalize()

	q := r.db.Model(&domain.Thread{}).Where("status = ?", filter.Status)
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Template != "" {
		q = q.Where("template = ?", filter.Template)
	}
	if filter.IsPinned != nil {
		q = q.Where("is_pinned = ?", *filter.IsPinned)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var threads []*domain.Thread
	err := q.Order("is_pinned DESC").
		Order(threadSortColumns[filter.SortBy]).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

// SearchTitles LIKE fallback used when no search index is configured
func (r *threadRepository) SearchTitles(q string, limit, offset int) ([]*domain.Thread, int64, error) {
	query := r.db.Model(&domain.Thread{}).
		Where("status <> ?", domain.ThreadStatusArchived).
		Where("LOWER(title) LIKE ?", containsPattern(q))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var threads []*domain.Thread
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&threads).Error
	return threads, total, err
}

func (r *threadRepository) AttachAuthors(threads []*domain.Thread) error {
	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.AuthorID
	}
	authors, err := loadAuthors(r.db, ids)
	if err != nil {
		return err
	}
	for _, t := range threads {
		t.Author = authors[t.AuthorID]
	}
	return nil
}

func (r *threadRepository) EachBatch(size int, fn func([]*domain.Thread) error) error {
	var batch []*domain.Thread
	return r.db.FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

// decrementExpr lowers a counter without going below zero on every dialect
func decrementExpr(column string, n int) clause.Expr {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s > ? THEN %[1]s - ? ELSE 0 END", column), n, n)
}
