package repository

import (
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// VerificationCodeRepository single-use confirmation codes
type VerificationCodeRepository interface {
	Create(code *domain.VerificationCode) error
	DeletePending(userID string, t domain.VerificationType) error
	FindValid(userID, code string, t domain.VerificationType, now time.Time) (*domain.VerificationCode, error)
	MarkUsed(id string, at time.Time) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

type verificationCodeRepository struct {
	db *gorm.DB
}

// NewVerificationCodeRepository creates a new VerificationCodeRepository
func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Create(code *domain.VerificationCode) error {
	return r.db.Create(code).Error
}

// DeletePending drops unused codes so only the newest one is valid
func (r *verificationCodeRepository) DeletePending(userID string, t domain.VerificationType) error {
	return r.db.Where("user_id = ? AND type = ? AND used_at IS NULL", userID, t).
		Delete(&domain.VerificationCode{}).Error
}

func (r *verificationCodeRepository) FindValid(userID, code string, t domain.VerificationType, now time.Time) (*domain.VerificationCode, error) {
	var vc domain.VerificationCode
	err := r.db.Where("user_id = ? AND code = ? AND type = ? AND used_at IS NULL AND expires_at > ?", userID, code, t, now).
		Order("created_at DESC").
		First(&vc).Error
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// MarkUsed reports false when another request consumed the code first
func (r *verificationCodeRepository) MarkUsed(id string, at time.Time) (bool, error) {
	result := r.db.Model(&domain.VerificationCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	return result.RowsAffected == 1, result.Error
}

func (r *verificationCodeRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&domain.VerificationCode{})
	return result.RowsAffected, result.Error
}
