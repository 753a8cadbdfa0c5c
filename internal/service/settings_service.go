package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"gorm.io/gorm"
)

// SettingsService runtime settings editable by admins
type SettingsService interface {
	RegistrationStatus() (*domain.RegistrationStatus, error)
	SetInviteRequired(required bool, actorID string) (*domain.RegistrationStatus, error)
	Get(key string) (*domain.SystemSetting, error)
	All() ([]*domain.SystemSetting, error)
}

type settingsService struct {
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) RegistrationStatus() (*domain.RegistrationStatus, error) {
	required, err := s.repo.GetBool(domain.SettingRequireInviteCode)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar configurações", err)
	}
	return &domain.RegistrationStatus{RequireInviteCode: required, RegistrationOpen: !required}, nil
}

func (s *settingsService) SetInviteRequired(required bool, actorID string) (*domain.RegistrationStatus, error) {
	setting := &domain.SystemSetting{
		Key:         domain.SettingRequireInviteCode,
		Value:       strconv.FormatBool(required),
		Description: "Exigir código de convite para registro",
		UpdatedBy:   &actorID,
	}
	if err := s.repo.Upsert(setting); err != nil {
		return nil, common.NewInternal("Falha ao salvar configuração", err)
	}
	return &domain.RegistrationStatus{RequireInviteCode: required, RegistrationOpen: !required}, nil
}

func (s *settingsService) Get(key string) (*domain.SystemSetting, error) {
	setting, err := s.repo.FindByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound(fmt.Sprintf("Configuração '%s' não encontrada", key))
		}
		return nil, common.NewInternal("Falha ao carregar configuração", err)
	}
	return setting, nil
}

func (s *settingsService) All() ([]*domain.SystemSetting, error) {
	settings, err := s.repo.GetAll()
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar configurações", err)
	}
	if settings == nil {
		settings = []*domain.SystemSetting{}
	}
	return settings, nil
}
