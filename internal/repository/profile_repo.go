package repository

import (
	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// ProfileRepository profile persistence; role and is_banned are written only
// by ModerationRepository
type ProfileRepository interface {
	FindByUserID(userID string) (*domain.Profile, error)
	UpdateBio(userID, bio string) (*domain.Profile, error)
	UpdateAvatar(userID, url string) (*domain.Profile, error)
	UpdateBanner(userID, url string) (*domain.Profile, error)
	UpdateSignature(userID, url string) (*domain.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByUserID(userID string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateBio(userID, bio string) (*domain.Profile, error) {
	return r.updateColumn(userID, "bio", bio)
}

func (r *profileRepository) UpdateAvatar(userID, url string) (*domain.Profile, error) {
	return r.updateColumn(userID, "avatar_url", url)
}

func (r *profileRepository) UpdateBanner(userID, url string) (*domain.Profile, error) {
	return r.updateColumn(userID, "banner_url", url)
}

func (r *profileRepository) UpdateSignature(userID, url string) (*domain.Profile, error) {
	return r.updateColumn(userID, "signature", url)
}

func (r *profileRepository) updateColumn(userID, column, value string) (*domain.Profile, error) {
	result := r.db.Model(&domain.Profile{}).Where("user_id = ?", userID).Update(column, value)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByUserID(userID)
}
