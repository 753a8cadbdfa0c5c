package domain

import (
	"time"

	"gorm.io/gorm"
)

// Post reply inside a thread; ParentPostID nests it under another post
type Post struct {
	ID           string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ThreadID     string     `gorm:"column:thread_id;type:varchar(36);index" json:"thread_id"`
	AuthorID     string     `gorm:"column:author_id;type:varchar(36);index" json:"author_id"`
	ParentPostID *string    `gorm:"column:parent_post_id;type:varchar(36);index" json:"parent_post_id"`
	Content      string     `gorm:"column:content;type:text" json:"content"`
	IsEdited     bool       `gorm:"column:is_edited;default:false" json:"is_edited"`
	EditedAt     *time.Time `gorm:"column:edited_at" json:"edited_at"`
	LikeCount    int        `gorm:"column:like_count;default:0" json:"like_count"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Author       *AuthorInfo `gorm:"-" json:"author,omitempty"`
	UserHasLiked bool        `gorm:"-" json:"user_has_liked"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// AuthorInfo public author card attached to threads and posts
type AuthorInfo struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url"`
	TotalPosts int    `json:"total_posts"`
	TotalLikes int    `json:"total_likes"`
	Level      int    `json:"level"`
	Role       Role   `json:"role"`
	Ranking    int    `json:"ranking"`
	Signature  string `json:"signature"`
}

// CreatePostRequest payload for a new reply
type CreatePostRequest struct {
	ThreadID     string  `json:"threadId" binding:"required,uuid"`
	Content      string  `json:"content" binding:"required,min=1,max=10000"`
	ParentPostID *string `json:"parentPostId" binding:"omitempty,uuid"`
}

// UpdatePostRequest edits the body of a post
type UpdatePostRequest struct {
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// PostFilter query-string filters for listing posts of a thread.
// TopLevel restricts the page to posts without a parent.
type PostFilter struct {
	ThreadID     string `form:"threadId" binding:"required,uuid"`
	ParentPostID string `form:"parentPostId" binding:"omitempty,uuid"`
	TopLevel     bool   `form:"topLevel"`
	SortBy       string `form:"sortBy" binding:"omitempty,oneof=asc desc"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset       int    `form:"offset" binding:"omitempty,min=0"`
}

// Normalize fills defaults
func (f *PostFilter) Normalize() {
	if f.SortBy == "" {
		f.SortBy = "asc"
	}
	f.Limit, f.Offset = ClampPage(f.Limit, f.Offset)
}

// PostList page of posts
type PostList struct {
	Posts      []*Post     `json:"posts"`
	Pagination *Pagination `json:"pagination"`
}

// ReplyList page of direct replies to a post
type ReplyList struct {
	Replies    []*Post     `json:"replies"`
	Pagination *Pagination `json:"pagination"`
}
