package repository

import (
	"errors"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

var (
	// ErrBanNotActive the ban was lifted by a concurrent request
	ErrBanNotActive = errors.New("ban is no longer active")
	// ErrAlreadyBanned a concurrent request activated a ban for the target first
	ErrAlreadyBanned = errors.New("target already has an active ban")
	// ErrRoleChanged the target's role changed since it was read
	ErrRoleChanged = errors.New("role changed concurrently")
)

// ModerationRepository bans, unbans and role changes. It is the only writer
// of profiles.role and profiles.is_banned.
type ModerationRepository interface {
	FindActiveBan(userID string) (*domain.Ban, error)
	Ban(ban *domain.Ban) error
	Unban(ban *domain.Ban, unban *domain.Unban) error
	ChangeRole(change *domain.RoleChange) error
	ExpireTemporaryBans(now time.Time) (int64, error)

	ListActiveBans(limit, offset int) ([]*domain.Ban, int64, error)
	BansByUser(userID string) ([]*domain.Ban, error)
	UnbansByUser(userID string) ([]*domain.Unban, error)
	RoleChangesByUser(userID string, limit int) ([]*domain.RoleChange, error)
	RecentRoleChanges(limit, offset int) ([]*domain.RoleChange, int64, error)
	CountActiveBans() (int64, error)
	RoleChangeStats(now time.Time) (*domain.RoleChangeStats, error)

	AttachBanUsers(bans []*domain.Ban) error
	AttachRoleChangeUsers(changes []*domain.RoleChange) error
}

type moderationRepository struct {
	db *gorm.DB
}

// NewModerationRepository creates a new ModerationRepository
func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) FindActiveBan(userID string) (*domain.Ban, error) {
	var ban domain.Ban
	err := r.db.Where("target_user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&ban).Error
	if err != nil {
		return nil, err
	}
	return &ban, nil
}

// Ban deactivates any active ban of the target, inserts the new one and
// flags the profile
func (r *moderationRepository) Ban(ban *domain.Ban) error {
	ban.IsActive = true
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Ban{}).
			Where("target_user_id = ? AND is_active = ?", ban.TargetUserID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if err := tx.Create(ban).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBanned
			}
			return err
		}
		return setBanned(tx, ban.TargetUserID, true)
	})
}

// Unban closes the ban, appends the unban record and clears the flag
func (r *moderationRepository) Unban(ban *domain.Ban, unban *domain.Unban) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Ban{}).
			Where("id = ? AND is_active = ?", ban.ID, true).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBanNotActive
		}

		unban.BanID = ban.ID
		unban.TargetUserID = ban.TargetUserID
		if err := tx.Create(unban).Error; err != nil {
			return err
		}
		ban.IsActive = false
		return setBanned(tx, ban.TargetUserID, false)
	})
}

// ChangeRole updates the role only if it still equals OldRole, then appends
// the audit row
func (r *moderationRepository) ChangeRole(change *domain.RoleChange) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Profile{}).
			Where("user_id = ? AND role = ?", change.TargetUserID, change.OldRole).
			Update("role", change.NewRole)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRoleChanged
		}
		return tx.Create(change).Error
	})
}

// ExpireTemporaryBans closes temporary bans past their expiry and clears the
// banned flag of their targets
func (r *moderationRepository) ExpireTemporaryBans(now time.Time) (int64, error) {
	var expired int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var bans []domain.Ban
		if err := tx.Select("id", "target_user_id").
			Where("is_active = ? AND is_permanent = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, false, now).
			Find(&bans).Error; err != nil {
			return err
		}
		if len(bans) == 0 {
			return nil
		}

		ids := make([]string, len(bans))
		targets := make([]string, len(bans))
		for i, b := range bans {
			ids[i] = b.ID
			targets[i] = b.TargetUserID
		}

		result := tx.Model(&domain.Ban{}).Where("id IN ?", ids).Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		expired = result.RowsAffected

		stillBanned := tx.Model(&domain.Ban{}).Select("target_user_id").Where("is_active = ?", true)
		return tx.Model(&domain.Profile{}).
			Where("user_id IN ?", uniqueIDs(targets)).
			Where("user_id NOT IN (?)", stillBanned).
			Update("is_banned", false).Error
	})
	return expired, err
}

func setBanned(tx *gorm.DB, userID string, banned bool) error {
	result := tx.Model(&domain.Profile{}).Where("user_id = ?", userID).Update("is_banned", banned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moderationRepository) ListActiveBans(limit, offset int) ([]*domain.Ban, int64, error) {
	q := r.db.Model(&domain.Ban{}).Where("is_active = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bans []*domain.Ban
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&bans).Error; err != nil {
		return nil, 0, err
	}
	return bans, total, nil
}

func (r *moderationRepository) BansByUser(userID string) ([]*domain.Ban, error) {
	var bans []*domain.Ban
	err := r.db.Where("target_user_id = ?", userID).Order("created_at DESC").Find(&bans).Error
	return bans, err
}

func (r *moderationRepository) UnbansByUser(userID string) ([]*domain.Unban, error) {
	var unbans []*domain.Unban
	err := r.db.Where("target_user_id = ?", userID).Order("created_at DESC").Find(&unbans).Error
	return unbans, err
}

func (r *moderationRepository) RoleChangesByUser(userID string, limit int) ([]*domain.RoleChange, error) {
	var changes []*domain.RoleChange
	err := r.db.Where("target_user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&changes).Error
	return changes, err
}

func (r *moderationRepository) RecentRoleChanges(limit, offset int) ([]*domain.RoleChange, int64, error) {
	var total int64
	if err := r.db.Model(&domain.RoleChange{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var changes []*domain.RoleChange
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&changes).Error
	return changes, total, err
}

func (r *moderationRepository) CountActiveBans() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Ban{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *moderationRepository) RoleChangeStats(now time.Time) (*domain.RoleChangeStats, error) {
	stats := &domain.RoleChangeStats{}
	if err := r.db.Model(&domain.RoleChange{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.RoleChange{}).
		Where("created_at >= ?", now.Add(-24*time.Hour)).
		Count(&stats.Last24h).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.RoleChange{}).
		Where("created_at >= ?", now.AddDate(0, 0, -7)).
		Count(&stats.Last7Days).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *moderationRepository) AttachBanUsers(bans []*domain.Ban) error {
	ids := make([]string, 0, len(bans)*2)
	for _, b := range bans {
		ids = append(ids, b.TargetUserID, b.BannedByUserID)
	}
	users, err := loadSummaries(r.db, ids)
	if err != nil {
		return err
	}
	for _, b := range bans {
		b.TargetUser = users[b.TargetUserID]
		b.BannedBy = users[b.BannedByUserID]
	}
	return nil
}

func (r *moderationRepository) AttachRoleChangeUsers(changes []*domain.RoleChange) error {
	ids := make([]string, 0, len(changes)*2)
	for _, c := range changes {
		ids = append(ids, c.TargetUserID, c.ChangedByUserID)
	}
	users, err := loadSummaries(r.db, ids)
	if err != nil {
		return err
	}
	for _, c := range changes {
		c.TargetUser = users[c.TargetUserID]
		c.ChangedBy = users[c.ChangedByUserID]
	}
	return nil
}
