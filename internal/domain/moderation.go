package domain

import (
	"time"

	"gorm.io/gorm"
)

// Ban suspension of a user; at most one active row per target
type Ban struct {
	ID             string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	TargetUserID   string     `gorm:"column:target_user_id;type:varchar(36);index" json:"target_user_id"`
	BannedByUserID string     `gorm:"column:banned_by_user_id;type:varchar(36)" json:"banned_by_user_id"`
	Reason         string     `gorm:"column:reason;type:varchar(500)" json:"reason"`
	IPAddress      string     `gorm:"column:ip_address;type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent      string     `gorm:"column:user_agent;type:varchar(500)" json:"user_agent,omitempty"`
	IsPermanent    bool       `gorm:"column:is_permanent" json:"is_permanent"`
	ExpiresAt      *time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	IsActive       bool       `gorm:"column:is_active;index" json:"is_active"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	TargetUser *UserSummary `gorm:"-" json:"target_user,omitempty"`
	BannedBy   *UserSummary `gorm:"-" json:"banned_by,omitempty"`
}

func (Ban) TableName() string { return "bans" }

func (b *Ban) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// Unban append-only record closing a ban
type Unban struct {
	ID               string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	BanID            string    `gorm:"column:ban_id;type:varchar(36);index" json:"ban_id"`
	TargetUserID     string    `gorm:"column:target_user_id;type:varchar(36);index" json:"target_user_id"`
	UnbannedByUserID string    `gorm:"column:unbanned_by_user_id;type:varchar(36)" json:"unbanned_by_user_id"`
	Reason           *string   `gorm:"column:reason;type:varchar(500)" json:"reason"`
	IPAddress        string    `gorm:"column:ip_address;type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent        string    `gorm:"column:user_agent;type:varchar(500)" json:"user_agent,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Unban) TableName() string { return "unbans" }

func (u *Unban) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// RoleChange append-only audit of a role assignment
type RoleChange struct {
	ID              string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	TargetUserID    string    `gorm:"column:target_user_id;type:varchar(36);index" json:"target_user_id"`
	ChangedByUserID string    `gorm:"column:changed_by_user_id;type:varchar(36);index" json:"changed_by_user_id"`
	OldRole         Role      `gorm:"column:old_role;type:varchar(20)" json:"old_role"`
	NewRole         Role      `gorm:"column:new_role;type:varchar(20)" json:"new_role"`
	Reason          *string   `gorm:"column:reason;type:varchar(500)" json:"reason"`
	IPAddress       string    `gorm:"column:ip_address;type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent       string    `gorm:"column:user_agent;type:varchar(500)" json:"user_agent,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	TargetUser *UserSummary `gorm:"-" json:"target_user,omitempty"`
	ChangedBy  *UserSummary `gorm:"-" json:"changed_by,omitempty"`
}

func (RoleChange) TableName() string { return "role_changes" }

func (r *RoleChange) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// AuditMeta request origin captured on every moderation write
type AuditMeta struct {
	IPAddress string
	UserAgent string
}

// BanUserRequest payload for banning a user.
// IsPermanent defaults to true when omitted.
type BanUserRequest struct {
	Reason        string `json:"reason" binding:"required,min=10,max=500"`
	IsPermanent   *bool  `json:"isPermanent"`
	ExpiresInDays *int   `json:"expiresInDays" binding:"omitempty,min=1"`
}

// Permanent resolves the default
func (r *BanUserRequest) Permanent() bool {
	return r.IsPermanent == nil || *r.IsPermanent
}

// UnbanUserRequest payload for lifting a ban
type UnbanUserRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

// ChangeRoleRequest payload for assigning a new role
type ChangeRoleRequest struct {
	NewRole Role    `json:"newRole" binding:"required,oneof=usuario vip uploader suporte moderador admin master"`
	Reason  *string `json:"reason" binding:"omitempty,max=500"`
}

// BanHistory full ban trail of one user
type BanHistory struct {
	User      *UserSummary `json:"user"`
	Bans      []*Ban       `json:"bans"`
	Unbans    []*Unban     `json:"unbans"`
	TotalBans int          `json:"totalBans"`
	ActiveBan *Ban         `json:"activeBan"`
}

// RoleChangeStats role change counts over fixed windows
type RoleChangeStats struct {
	Total     int64 `json:"total"`
	Last24h   int64 `json:"last24h"`
	Last7Days int64 `json:"last7days"`
}

// ModerationStats dashboard counters
type ModerationStats struct {
	Bans struct {
		Active int64 `json:"active"`
	} `json:"bans"`
	RoleChanges RoleChangeStats `json:"roleChanges"`
}

// BanList page of active bans
type BanList struct {
	Bans       []*Ban      `json:"bans"`
	Pagination *Pagination `json:"pagination"`
}

// RoleChangeList page of role changes
type RoleChangeList struct {
	RoleChanges []*RoleChange `json:"roleChanges"`
	Pagination  *Pagination   `json:"pagination"`
}

// RoleHistoryUser target of a role history, with the role it holds now
type RoleHistoryUser struct {
	UserSummary
	CurrentRole Role `json:"currentRole"`
}

// RoleHistory role trail of one user
type RoleHistory struct {
	User         *RoleHistoryUser `json:"user"`
	RoleChanges  []*RoleChange    `json:"roleChanges"`
	TotalChanges int              `json:"totalChanges"`
}
