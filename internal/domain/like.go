package domain

import (
	"time"

	"gorm.io/gorm"
)

// ThreadLike one user's like on a thread
type ThreadLike struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ThreadID  string    `gorm:"column:thread_id;type:varchar(36);uniqueIndex:idx_thread_likes_thread_user,priority:1" json:"thread_id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);uniqueIndex:idx_thread_likes_thread_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ThreadLike) TableName() string { return "thread_likes" }

func (l *ThreadLike) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// PostLike one user's like on a post
type PostLike struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	PostID    string    `gorm:"column:post_id;type:varchar(36);uniqueIndex:idx_post_likes_post_user,priority:1" json:"post_id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);uniqueIndex:idx_post_likes_post_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }

func (l *PostLike) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// LikeSubject what a like points at
type LikeSubject string

const (
	LikeSubjectThread LikeSubject = "thread"
	LikeSubjectPost   LikeSubject = "post"
)

// LikeStatus like state of a subject for one viewer
type LikeStatus struct {
	HasLiked  bool  `json:"hasLiked"`
	LikeCount int64 `json:"likeCount"`
}

// Liker user who liked a subject
type Liker struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LikerList page of likers
type LikerList struct {
	Likes      []*Liker    `json:"likes"`
	Pagination *Pagination `json:"pagination"`
}
