package service

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"gorm.io/gorm"
)

const (
	inviteAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteMaxAttempts = 10
)

// InviteService invite codes and the registration gate
type InviteService interface {
	NewCode() (string, error)
	Validate(code string) (*domain.InviteCode, error)
	MyInvites(userID string) (*domain.MyInvites, error)
}

type inviteService struct {
	repo repository.InviteRepository
	now  func() time.Time
}

// NewInviteService creates a new InviteService
func NewInviteService(repo repository.InviteRepository) InviteService {
	return &inviteService{repo: repo, now: time.Now}
}

// NewCode returns a code not yet stored. After inviteMaxAttempts collisions a
// 2-char base36 clock suffix is appended instead of probing again.
func (s *inviteService) NewCode() (string, error) {
	for i := 0; i < inviteMaxAttempts; i++ {
		code := randomInviteCode()
		exists, err := s.repo.ExistsByCode(code)
		if err != nil {
			return "", common.NewInternal("Falha ao gerar código de convite", err)
		}
		if !exists {
			return code, nil
		}
	}

	stamp := strconv.FormatInt(s.now().UnixMilli(), 36)
	return randomInviteCode() + strings.ToUpper(stamp[len(stamp)-2:]), nil
}

// Validate accepts codes in any case; they are stored uppercase
func (s *inviteService) Validate(code string) (*domain.InviteCode, error) {
	invite, err := s.repo.FindActiveByCode(NormalizeInviteCode(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewBadRequest("Código de convite inválido ou já utilizado")
		}
		return nil, common.NewInternal("Falha ao validar código de convite", err)
	}
	return invite, nil
}

func (s *inviteService) MyInvites(userID string) (*domain.MyInvites, error) {
	invites, err := s.repo.FindByOwnerID(userID)
	if err != nil {
		return nil, common.NewInternal("Falha ao listar convites", err)
	}
	if invites == nil {
		invites = []*domain.InviteCode{}
	}
	active, err := s.repo.CountActiveByOwnerID(userID)
	if err != nil {
		return nil, common.NewInternal("Falha ao contar convites", err)
	}
	return &domain.MyInvites{InviteCodes: invites, ActiveCount: active}, nil
}

// NormalizeInviteCode trims and uppercases a user-supplied code
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomInviteCode() string {
	var sb strings.Builder
	sb.Grow(domain.InviteCodeLength)
	for i := 0; i < domain.InviteCodeLength; i++ {
		sb.WriteByte(inviteAlphabet[rand.Intn(len(inviteAlphabet))])
	}
	return sb.String()
}
