package repository

import (
	"errors"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// ErrInviteUnavailable the invite was consumed or deactivated concurrently
var ErrInviteUnavailable = errors.New("invite code is no longer available")

// Registration rows written together when an account is created
type Registration struct {
	User       *domain.User
	Profile    *domain.Profile
	InviteCode string
	NewInvite  *domain.InviteCode
}

// UserRepository account persistence
type UserRepository interface {
	FindByID(id string) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	ExistsByUsername(username string) (bool, error)
	ExistsByEmail(email string) (bool, error)
	Register(reg *Registration) error
	UpdateName(id, name string) (*domain.User, error)
	UpdateEmail(id, email string) (*domain.User, error)
	UpdatePassword(id, hash string) error
	Summaries(ids []string) (map[string]*domain.UserSummary, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername matches case-insensitively
func (r *userRepository) FindByUsername(username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail matches case-insensitively
func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	return count > 0, err
}

// Register creates the user and profile, consumes the invite and issues the
// user's own invite in one transaction
func (r *userRepository) Register(reg *Registration) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reg.User).Error; err != nil {
			return err
		}

		reg.Profile.UserID = reg.User.ID
		if err := tx.Create(reg.Profile).Error; err != nil {
			return err
		}

		if reg.InviteCode != "" {
			now := time.Now()
			result := tx.Model(&domain.InviteCode{}).
				Where("code = ? AND is_active = ? AND used_by_id IS NULL", reg.InviteCode, true).
				Updates(map[string]interface{}{
					"is_active":  false,
					"used_by_id": reg.User.ID,
					"used_at":    now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInviteUnavailable
			}
		}

		if reg.NewInvite != nil {
			reg.NewInvite.OwnerID = reg.User.ID
			if err := tx.Create(reg.NewInvite).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userRepository) UpdateName(id, name string) (*domain.User, error) {
	return r.updateColumn(id, "name", name)
}

func (r *userRepository) UpdateEmail(id, email string) (*domain.User, error) {
	return r.updateColumn(id, "email", email)
}

func (r *userRepository) UpdatePassword(id, hash string) error {
	_, err := r.updateColumn(id, "password_hash", hash)
	return err
}

func (r *userRepository) updateColumn(id, column string, value interface{}) (*domain.User, error) {
	result := r.db.Model(&domain.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

// Summaries public identities keyed by user id; unknown ids are skipped
func (r *userRepository) Summaries(ids []string) (map[string]*domain.UserSummary, error) {
	return loadSummaries(r.db, ids)
}

func loadSummaries(db *gorm.DB, ids []string) (map[string]*domain.UserSummary, error) {
	out := make(map[string]*domain.UserSummary)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}

	var users []domain.User
	if err := db.Select("id", "username", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = &domain.UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
	}
	return out, nil
}

type authorRow struct {
	UserID     string
	Username   string
	AvatarURL  string
	TotalPosts int
	TotalLikes int
	Level      int
	Role       string
	Ranking    int
	Signature  string
}

// loadAuthors author cards keyed by user id
func loadAuthors(db *gorm.DB, ids []string) (map[string]*domain.AuthorInfo, error) {
	out := make(map[string]*domain.AuthorInfo)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}

	var rows []authorRow
	err := db.Table("users").
		Select("users.id AS user_id, users.username, profiles.avatar_url, profiles.total_posts, " +
			"profiles.total_likes, profiles.level, profiles.role, profiles.ranking, profiles.signature").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("users.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.UserID] = &domain.AuthorInfo{
			ID:         row.UserID,
			Username:   row.Username,
			AvatarURL:  row.AvatarURL,
			TotalPosts: row.TotalPosts,
			TotalLikes: row.TotalLikes,
			Level:      row.Level,
			Role:       domain.Role(row.Role),
			Ranking:    row.Ranking,
			Signature:  row.Signature,
		}
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
