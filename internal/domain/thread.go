package domain

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Template thread content discriminator
type Template string

const (
	TemplateMidia    Template = "midia"
	TemplateJogos    Template = "jogos"
	TemplateSoftware Template = "software"
	TemplateTorrent  Template = "torrent"
	TemplatePostagem Template = "postagem"
)

// ThreadStatus archival state; lock and pin are separate booleans
type ThreadStatus string

const (
	ThreadStatusActive   ThreadStatus = "active"
	ThreadStatusLocked   ThreadStatus = "locked"
	ThreadStatusPinned   ThreadStatus = "pinned"
	ThreadStatusArchived ThreadStatus = "archived"
)

var uploaderRoles = []Role{RoleUploader, RoleSuporte, RoleModerador, RoleAdmin, RoleMaster}

// templateRoles who may open a thread of each template
var templateRoles = map[Template][]Role{
	TemplateMidia:    uploaderRoles,
	TemplateJogos:    uploaderRoles,
	TemplateSoftware: uploaderRoles,
	TemplateTorrent:  uploaderRoles,
	TemplatePostagem: {RoleUsuario, RoleVIP, RoleUploader, RoleSuporte, RoleModerador, RoleAdmin, RoleMaster},
}

// AllTemplates in display order
func AllTemplates() []Template {
	return []Template{TemplateMidia, TemplateJogos, TemplateSoftware, TemplateTorrent, TemplatePostagem}
}

// ParseTemplate validates a raw template name
func ParseTemplate(s string) (Template, bool) {
	t := Template(s)
	_, ok := templateRoles[t]
	return t, ok
}

// AllowedRoles returns a copy of the roles allowed to use the template
func (t Template) AllowedRoles() []Role {
	roles := templateRoles[t]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// CanCreate reports whether role may open a thread of this template.
// Membership is exact: the table lists every allowed role.
func (t Template) CanCreate(r Role) bool {
	for _, allowed := range templateRoles[t] {
		if allowed == r {
			return true
		}
	}
	return false
}

// AllowedRolesText roles joined by ", "
func (t Template) AllowedRolesText() string {
	roles := templateRoles[t]
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// ParseThreadStatus validates a raw status
func ParseThreadStatus(s string) (ThreadStatus, bool) {
	switch st := ThreadStatus(s); st {
	case ThreadStatusActive, ThreadStatusLocked, ThreadStatusPinned, ThreadStatusArchived:
		return st, true
	}
	return "", false
}

// Thread forum topic; its body lives in the template side table
type Thread struct {
	ID          string       `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CategoryID  string       `gorm:"column:category_id;type:varchar(36);uniqueIndex:idx_threads_category_slug,priority:1" json:"category_id"`
	AuthorID    string       `gorm:"column:author_id;type:varchar(36);index" json:"author_id"`
	Template    Template     `gorm:"column:template;type:varchar(20);index" json:"template"`
	Title       string       `gorm:"column:title;type:varchar(200)" json:"title"`
	Slug        string       `gorm:"column:slug;type:varchar(255);uniqueIndex:idx_threads_category_slug,priority:2" json:"slug"`
	Status      ThreadStatus `gorm:"column:status;type:varchar(20);default:active;index" json:"status"`
	ViewCount   int          `gorm:"column:view_count;default:0" json:"view_count"`
	ReplyCount  int          `gorm:"column:reply_count;default:0" json:"reply_count"`
	LikeCount   int          `gorm:"column:like_count;default:0" json:"like_count"`
	IsPinned    bool         `gorm:"column:is_pinned;default:false" json:"is_pinned"`
	IsLocked    bool         `gorm:"column:is_locked;default:false" json:"is_locked"`
	LastReplyAt *time.Time   `gorm:"column:last_reply_at" json:"last_reply_at"`
	LastReplyBy *string      `gorm:"column:last_reply_by;type:varchar(36)" json:"last_reply_by"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Author *AuthorInfo `gorm:"-" json:"author,omitempty"`
}

func (Thread) TableName() string { return "threads" }

func (t *Thread) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	if t.Status == "" {
		t.Status = ThreadStatusActive
	}
	return nil
}

// ThreadWithContent thread plus its decoded template body
type ThreadWithContent struct {
	Thread
	Content ThreadContent `json:"content"`
}

// CreateThreadRequest payload for a new thread; content is decoded per template
type CreateThreadRequest struct {
	CategoryID string          `json:"categoryId" binding:"required,uuid"`
	Template   Template        `json:"template" binding:"required,oneof=midia jogos software torrent postagem"`
	Title      string          `json:"title" binding:"required,min=5,max=200"`
	Content    json.RawMessage `json:"content" binding:"required"`
}

// UpdateThreadRequest partial update
type UpdateThreadRequest struct {
	Title   *string         `json:"title" binding:"omitempty,min=5,max=200"`
	Status  *ThreadStatus   `json:"status" binding:"omitempty,oneof=active locked pinned archived"`
	Content json.RawMessage `json:"content"`
}

// ThreadSort list ordering key
type ThreadSort string

const (
	ThreadSortRecent  ThreadSort = "recent"
	ThreadSortPopular ThreadSort = "popular"
	ThreadSortReplies ThreadSort = "replies"
	ThreadSortViews   ThreadSort = "views"
)

// ThreadFilter query-string filters for listing
type ThreadFilter struct {
	CategoryID string       `form:"categoryId" binding:"omitempty,uuid"`
	AuthorID   string       `form:"authorId" binding:"omitempty,uuid"`
	Template   Template     `form:"template" binding:"omitempty,oneof=midia jogos software torrent postagem"`
	Status     ThreadStatus `form:"status" binding:"omitempty,oneof=active locked pinned archived"`
	IsPinned   *bool        `form:"isPinned"`
	SortBy     ThreadSort   `form:"sortBy" binding:"omitempty,oneof=recent popular replies views"`
	Limit      int          `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int          `form:"offset" binding:"omitempty,min=0"`
}

// Normalize fills defaults
func (f *ThreadFilter) Normalize() {
	if f.Status == "" {
		f.Status = ThreadStatusActive
	}
	if f.SortBy == "" {
		f.SortBy = ThreadSortRecent
	}
	f.Limit, f.Offset = ClampPage(f.Limit, f.Offset)
}

// ThreadList page of threads
type ThreadList struct {
	Threads    []*Thread   `json:"threads"`
	Pagination *Pagination `json:"pagination"`
}
