package repository

import (
	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// InviteRepository invite code persistence
type InviteRepository interface {
	Create(invite *domain.InviteCode) error
	ExistsByCode(code string) (bool, error)
	FindActiveByCode(code string) (*domain.InviteCode, error)
	FindByOwnerID(ownerID string) ([]*domain.InviteCode, error)
	CountActiveByOwnerID(ownerID string) (int64, error)
}

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(invite *domain.InviteCode) error {
	return r.db.Create(invite).Error
}

func (r *inviteRepository) ExistsByCode(code string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.InviteCode{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// FindActiveByCode only codes that are active and unused
func (r *inviteRepository) FindActiveByCode(code string) (*domain.InviteCode, error) {
	var invite domain.InviteCode
	err := r.db.Where("code = ? AND is_active = ? AND used_by_id IS NULL", code, true).First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) FindByOwnerID(ownerID string) ([]*domain.InviteCode, error) {
	var invites []*domain.InviteCode
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) CountActiveByOwnerID(ownerID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.InviteCode{}).
		Where("owner_id = ? AND is_active = ? AND used_by_id IS NULL", ownerID, true).
		Count(&count).Error
	return count, err
}
