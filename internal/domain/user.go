package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// User account identity
type User struct {
	ID             string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Username       string    `gorm:"column:username;type:varchar(50);uniqueIndex" json:"username"`
	Name           string    `gorm:"column:name;type:varchar(100)" json:"name"`
	Email          string    `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email"`
	PasswordHash   string    `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	InviteCodeUsed *string   `gorm:"column:invite_code_used;type:varchar(20)" json:"invite_code_used"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Profile 1:1 with User; role and ban flag live here
type Profile struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserID     string    `gorm:"column:user_id;type:varchar(36);uniqueIndex" json:"user_id"`
	AvatarURL  string    `gorm:"column:avatar_url;type:varchar(500)" json:"avatar_url"`
	BannerURL  string    `gorm:"column:banner_url;type:varchar(500)" json:"banner_url"`
	Signature  string    `gorm:"column:signature;type:varchar(500)" json:"signature"`
	Bio        string    `gorm:"column:bio;type:text" json:"bio"`
	TotalPosts int       `gorm:"column:total_posts;default:0" json:"total_posts"`
	TotalLikes int       `gorm:"column:total_likes;default:0" json:"total_likes"`
	Ranking    int       `gorm:"column:ranking;default:0" json:"ranking"`
	Level      int       `gorm:"column:level;default:1" json:"level"`
	Role       Role      `gorm:"column:role;type:varchar(20);default:usuario;index" json:"role"`
	IsBanned   bool      `gorm:"column:is_banned;default:false" json:"is_banned"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Role == "" {
		p.Role = RoleUsuario
	}
	return nil
}

// UserSummary public identity embedded in moderation and like payloads
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// InviteCode single-use registration code
type InviteCode struct {
	ID        string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Code      string     `gorm:"column:code;type:varchar(20);uniqueIndex" json:"code"`
	OwnerID   string     `gorm:"column:owner_id;type:varchar(36);index" json:"owner_id"`
	UsedByID  *string    `gorm:"column:used_by_id;type:varchar(36)" json:"used_by_id"`
	IsActive  bool       `gorm:"column:is_active;default:true" json:"is_active"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (InviteCode) TableName() string { return "invite_codes" }

func (i *InviteCode) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// VerificationType purpose of a verification code
type VerificationType string

const (
	VerificationEmailChange    VerificationType = "email_change"
	VerificationPasswordChange VerificationType = "password_change"
)

// VerificationCode 6-digit single-use confirmation code
type VerificationCode struct {
	ID        string           `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserID    string           `gorm:"column:user_id;type:varchar(36);index" json:"user_id"`
	Code      string           `gorm:"column:code;type:varchar(6);index" json:"-"`
	Type      VerificationType `gorm:"column:type;type:varchar(20)" json:"type"`
	NewValue  string           `gorm:"column:new_value;type:varchar(255)" json:"-"`
	ExpiresAt time.Time        `gorm:"column:expires_at" json:"expires_at"`
	UsedAt    *time.Time       `gorm:"column:used_at" json:"used_at"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (VerificationCode) TableName() string { return "verification_codes" }

func (v *VerificationCode) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// SettingRequireInviteCode toggles invite-gated registration
const SettingRequireInviteCode = "require_invite_code"

// SystemSetting key/value runtime setting
type SystemSetting struct {
	Key         string    `gorm:"column:setting_key;type:varchar(100);primaryKey" json:"key"`
	Value       string    `gorm:"column:value;type:varchar(500)" json:"value"`
	Description string    `gorm:"column:description;type:varchar(255)" json:"description"`
	UpdatedBy   *string   `gorm:"column:updated_by;type:varchar(36)" json:"updated_by"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }

// TokenBlacklist revoked token kept until its natural expiry
type TokenBlacklist struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Token     string    `gorm:"column:token;type:varchar(512);uniqueIndex"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);index"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TokenBlacklist) TableName() string { return "token_blacklist" }

func (t *TokenBlacklist) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
