package repository

import (
	"errors"
	"strconv"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository runtime key/value settings
type SettingsRepository interface {
	FindByKey(key string) (*domain.SystemSetting, error)
	GetAll() ([]*domain.SystemSetting, error)
	GetBool(key string) (bool, error)
	Upsert(setting *domain.SystemSetting) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) FindByKey(key string) (*domain.SystemSetting, error) {
	var setting domain.SystemSetting
	if err := r.db.Where("setting_key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingsRepository) GetAll() ([]*domain.SystemSetting, error) {
	var settings []*domain.SystemSetting
	err := r.db.Order("setting_key").Find(&settings).Error
	return settings, err
}

// GetBool a missing or unparsable value reads as false
func (r *settingsRepository) GetBool(key string) (bool, error) {
	setting, err := r.FindByKey(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	v, _ := strconv.ParseBool(setting.Value)
	return v, nil
}

func (r *settingsRepository) Upsert(setting *domain.SystemSetting) error {
	setting.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(setting).Error
}
