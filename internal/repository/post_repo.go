package repository

import (
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// PostRepository post tree persistence
type PostRepository interface {
	Create(post *domain.Post) error
	FindByID(id string) (*domain.Post, error)
	UpdateContent(id, content string, editedAt time.Time) (*domain.Post, error)
	DeleteTree(post *domain.Post) (int64, error)
	List(filter domain.PostFilter) ([]*domain.Post, int64, error)
	AttachAuthors(posts []*domain.Post) error
	MarkLiked(posts []*domain.Post, userID string) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and updates thread, category and author counters
func (r *postRepository) Create(post *domain.Post) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var thread domain.Thread
		if err := tx.Select("id", "category_id").Where("id = ?", post.ThreadID).First(&thread).Error; err != nil {
			return err
		}

		if err := tx.Create(post).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.Thread{}).Where("id = ?", thread.ID).UpdateColumns(map[string]interface{}{
			"reply_count":   gorm.Expr("reply_count + 1"),
			"last_reply_at": post.CreatedAt,
			"last_reply_by": post.AuthorID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Category{}).
			Where("id = ?", thread.CategoryID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Profile{}).
			Where("user_id = ?", post.AuthorID).
			UpdateColumn("total_posts", gorm.Expr("total_posts + 1")).Error
	})
}

func (r *postRepository) FindByID(id string) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) UpdateContent(id, content string, editedAt time.Time) (*domain.Post, error) {
	result := r.db.Model(&domain.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":   content,
		"is_edited": true,
		"edited_at": editedAt,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

// DeleteTree removes the post and every reply below it, returning how many
// posts were deleted
func (r *postRepository) DeleteTree(post *domain.Post) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		ids := []string{post.ID}
		frontier := []string{post.ID}
		for len(frontier) > 0 {
			var children []string
			if err := tx.Model(&domain.Post{}).Where("parent_post_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		var authors []struct {
			AuthorID string
			Total    int
		}
		if err := tx.Model(&domain.Post{}).
			Select("author_id, COUNT(*) AS total").
			Where("id IN ?", ids).
			Group("author_id").
			Scan(&authors).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id IN ?", ids).Delete(&domain.PostLike{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&domain.Post{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		n := int(deleted)

		var thread domain.Thread
		if err := tx.Select("id", "category_id").Where("id = ?", post.ThreadID).First(&thread).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Thread{}).
			Where("id = ?", thread.ID).
			UpdateColumn("reply_count", decrementExpr("reply_count", n)).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Category{}).
			Where("id = ?", thread.CategoryID).
			UpdateColumn("post_count", decrementExpr("post_count", n)).Error; err != nil {
			return err
		}
		for _, a := range authors {
			if err := tx.Model(&domain.Profile{}).
				Where("user_id = ?", a.AuthorID).
				UpdateColumn("total_posts", decrementExpr("total_posts", a.Total)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, err
}

func (r *postRepository) List(filter domain.PostFilter) ([]*domain.Post, int64, error) {
	filter.Normalize()

	q := r.db.Model(&domain.Post{}).Where("thread_id = ?", filter.ThreadID)
	switch {
	case filter.ParentPostID != "":
		q = q.Where("parent_post_id = ?", filter.ParentPostID)
	case filter.TopLevel:
		q = q.Where("parent_post_id IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at ASC"
	if filter.SortBy == "desc" {
		order = "created_at DESC"
	}

	var posts []*domain.Post
	err := q.Order(order).Limit(filter.Limit).Offset(filter.Offset).Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) AttachAuthors(posts []*domain.Post) error {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors, err := loadAuthors(r.db, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Author = authors[p.AuthorID]
	}
	return nil
}

// MarkLiked sets UserHasLiked for the posts userID liked
func (r *postRepository) MarkLiked(posts []*domain.Post, userID string) error {
	if userID == "" || len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var liked []string
	if err := r.db.Model(&domain.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, ids).
		Pluck("post_id", &liked).Error; err != nil {
		return err
	}
	set := make(map[string]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}
	for _, p := range posts {
		_, p.UserHasLiked = set[p.ID]
	}
	return nil
}
