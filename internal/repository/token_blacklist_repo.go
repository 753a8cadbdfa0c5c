package repository

import (
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenBlacklistRepository durable store of revoked tokens
type TokenBlacklistRepository interface {
	Add(entry *domain.TokenBlacklist) error
	Exists(token string, now time.Time) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

type tokenBlacklistRepository struct {
	db *gorm.DB
}

// NewTokenBlacklistRepository creates a new TokenBlacklistRepository
func NewTokenBlacklistRepository(db *gorm.DB) TokenBlacklistRepository {
	return &tokenBlacklistRepository{db: db}
}

// Add is idempotent per token
func (r *tokenBlacklistRepository) Add(entry *domain.TokenBlacklist) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoNothing: true,
	}).Create(entry).Error
}

func (r *tokenBlacklistRepository) Exists(token string, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&domain.TokenBlacklist{}).
		Where("token = ? AND expires_at > ?", token, now).
		Count(&count).Error
	return count > 0, err
}

func (r *tokenBlacklistRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&domain.TokenBlacklist{})
	return result.RowsAffected, result.Error
}
