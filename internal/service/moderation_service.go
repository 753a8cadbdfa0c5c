package service

import (
	"errors"
	"time"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/metrics"
	"gorm.io/gorm"
)

// ModerationService bans, unbans and role changes, each with its audit row
type ModerationService interface {
	Ban(targetID, actorID string, actorRole domain.Role, req *domain.BanUserRequest, meta domain.AuditMeta) (*domain.Ban, error)
	Unban(targetID, actorID string, actorRole domain.Role, req *domain.UnbanUserRequest, meta domain.AuditMeta) (*domain.Unban, error)
	ChangeRole(targetID, actorID string, actorRole domain.Role, req *domain.ChangeRoleRequest, meta domain.AuditMeta) (*domain.RoleChange, error)
	ExpireTemporaryBans(now time.Time) (int64, error)

	ListActiveBans(limit, offset int) (*domain.BanList, error)
	BanHistory(userID string) (*domain.BanHistory, error)
	RoleHistory(userID string, limit int) (*domain.RoleHistory, error)
	RecentRoleChanges(limit, offset int) (*domain.RoleChangeList, error)
	Stats() (*domain.ModerationStats, error)
}

type moderationService struct {
	repo     repository.ModerationRepository
	profiles repository.ProfileRepository
	users    repository.UserRepository
	now      func() time.Time
}

// NewModerationService creates a new ModerationService
func NewModerationService(repo repository.ModerationRepository, profiles repository.ProfileRepository, users repository.UserRepository) ModerationService {
	return &moderationService{repo: repo, profiles: profiles, users: users, now: time.Now}
}

// Ban suspends the target. Permanent unless IsPermanent is false, in which
// case ExpiresInDays is required.
func (s *moderationService) Ban(targetID, actorID string, actorRole domain.Role, req *domain.BanUserRequest, meta domain.AuditMeta) (*domain.Ban, error) {
	target, appErr := s.targetProfile(targetID)
	if appErr != nil {
		return nil, appErr
	}
	if !domain.CanBan(actorRole, target.Role) {
		return nil, common.NewForbidden("Você não tem permissão para banir este usuário")
	}

	if _, err := s.repo.FindActiveBan(targetID); err == nil {
		return nil, common.NewBadRequest("Usuário já está banido")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewInternal("Falha ao verificar banimento", err)
	}

	ban := &domain.Ban{
		TargetUserID:   targetID,
		BannedByUserID: actorID,
		Reason:         req.Reason,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		IsPermanent:    req.Permanent(),
	}
	if !ban.IsPermanent {
		if req.ExpiresInDays == nil || *req.ExpiresInDays <= 0 {
			return nil, common.NewBadRequest("Para banimento temporário, é necessário especificar expiresInDays")
		}
		expiresAt := s.now().AddDate(0, 0, *req.ExpiresInDays)
		ban.ExpiresAt = &expiresAt
	}

	if err := s.repo.Ban(ban); err != nil {
		if errors.Is(err, repository.ErrAlreadyBanned) {
			return nil, common.NewBadRequest("Usuário já está banido")
		}
		return nil, common.NewInternal("Falha ao banir usuário", err)
	}
	metrics.ModerationActions.WithLabelValues("ban").Inc()

	if err := s.repo.AttachBanUsers([]*domain.Ban{ban}); err != nil {
		return nil, common.NewInternal("Falha ao carregar usuários", err)
	}
	return ban, nil
}

func (s *moderationService) Unban(targetID, actorID string, actorRole domain.Role, req *domain.UnbanUserRequest, meta domain.AuditMeta) (*domain.Unban, error) {
	ban, err := s.repo.FindActiveBan(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewBadRequest("Usuário não está banido")
		}
		return nil, common.NewInternal("Falha ao verificar banimento", err)
	}

	target, appErr := s.targetProfile(targetID)
	if appErr != nil {
		return nil, appErr
	}
	if !domain.CanBan(actorRole, target.Role) {
		return nil, common.NewForbidden("Você não tem permissão para desbanir este usuário")
	}

	unban := &domain.Unban{
		UnbannedByUserID: actorID,
		Reason:           req.Reason,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	}
	if err := s.repo.Unban(ban, unban); err != nil {
		if errors.Is(err, repository.ErrBanNotActive) {
			return nil, common.NewBadRequest("Usuário não está banido")
		}
		return nil, common.NewInternal("Falha ao desbanir usuário", err)
	}
	metrics.ModerationActions.WithLabelValues("unban").Inc()
	return unban, nil
}

func (s *moderationService) ChangeRole(targetID, actorID string, actorRole domain.Role, req *domain.ChangeRoleRequest, meta domain.AuditMeta) (*domain.RoleChange, error) {
	newRole, ok := domain.ParseRole(string(req.NewRole))
	if !ok {
		return nil, common.NewBadRequest("Cargo inválido")
	}

	target, appErr := s.targetProfile(targetID)
	if appErr != nil {
		return nil, appErr
	}
	if target.Role == newRole {
		return nil, common.NewBadRequest("O usuário já possui este cargo")
	}
	if !domain.CanManage(actorRole, target.Role) {
		return nil, common.NewForbidden("Você não pode alterar o cargo deste usuário")
	}
	if !domain.CanManage(actorRole, newRole) {
		return nil, common.NewForbidden("Você não pode atribuir este cargo")
	}

	change := &domain.RoleChange{
		TargetUserID:    targetID,
		ChangedByUserID: actorID,
		OldRole:         target.Role,
		NewRole:         newRole,
		Reason:          req.Reason,
		IPAddress:       meta.IPAddress,
		UserAgent:       meta.UserAgent,
	}
	if err := s.repo.ChangeRole(change); err != nil {
		if errors.Is(err, repository.ErrRoleChanged) {
			return nil, common.NewConflict("O cargo do usuário foi alterado por outra operação. Tente novamente")
		}
		return nil, common.NewInternal("Falha ao alterar cargo", err)
	}
	metrics.ModerationActions.WithLabelValues("role_change").Inc()

	if err := s.repo.AttachRoleChangeUsers([]*domain.RoleChange{change}); err != nil {
		return nil, common.NewInternal("Falha ao carregar usuários", err)
	}
	return change, nil
}

func (s *moderationService) ExpireTemporaryBans(now time.Time) (int64, error) {
	expired, err := s.repo.ExpireTemporaryBans(now)
	if err != nil {
		return 0, err
	}
	metrics.ModerationActions.WithLabelValues("ban_expired").Add(float64(expired))
	return expired, nil
}

func (s *moderationService) ListActiveBans(limit, offset int) (*domain.BanList, error) {
	limit, offset = domain.ClampPage(limit, offset)
	bans, total, err := s.repo.ListActiveBans(limit, offset)
	if err != nil {
		return nil, common.NewInternal("Falha ao listar banimentos", err)
	}
	if bans == nil {
		bans = []*domain.Ban{}
	}
	if err := s.repo.AttachBanUsers(bans); err != nil {
		return nil, common.NewInternal("Falha ao carregar usuários", err)
	}
	return &domain.BanList{Bans: bans, Pagination: domain.NewPagination(total, limit, offset)}, nil
}

func (s *moderationService) BanHistory(userID string) (*domain.BanHistory, error) {
	user, appErr := s.summary(userID)
	if appErr != nil {
		return nil, appErr
	}

	bans, err := s.repo.BansByUser(userID)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar banimentos", err)
	}
	unbans, err := s.repo.UnbansByUser(userID)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar desbanimentos", err)
	}
	if bans == nil {
		bans = []*domain.Ban{}
	}
	if unbans == nil {
		unbans = []*domain.Unban{}
	}
	if err := s.repo.AttachBanUsers(bans); err != nil {
		return nil, common.NewInternal("Falha ao carregar usuários", err)
	}

	history := &domain.BanHistory{User: user, Bans: bans, Unbans: unbans, TotalBans: len(bans)}
	for _, b := range bans {
		if b.IsActive {
			history.ActiveBan = b
			break
		}
	}
	return history, nil
}

func (s *moderationService) RoleHistory(userID string, limit int) (*domain.RoleHistory, error) {
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}
	user, appErr := s.summary(userID)
	if appErr != nil {
		return nil, appErr
	}
	profile, appErr := s.targetProfile(userID)
	if appErr != nil {
		return nil, appErr
	}

	changes, err := s.repo.RoleChangesByUser(userID, limit)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar histórico de cargos", err)
	}
	if changes == nil {
		changes = []*domain.RoleChange{}
	}
	if err := s.repo.AttachRoleChangeUsers(changes); err != nil {
		return nil, common.NewInternal("Falha ao carregar usuários", err)
	}
	return &domain.RoleHistory{
		User:         &domain.RoleHistoryUser{UserSummary: *user, CurrentRole: profile.Role},
		RoleChanges:  changes,
		TotalChanges: len(changes),
	}, nil
}

func (s *moderationService) RecentRoleChanges(limit, offset int) (*domain.RoleChangeList, error) {
	limit, offset = domain.ClampPage(limit, offset)
	changes, total, err := s.repo.RecentRoleChanges(limit, offset)
	if err != nil {
		return nil, common.NewInternal("Falha ao listar mudanças de cargo", err)
	}
	if changes == nil {
		changes = []*domain.RoleChange{}
	}
	if err := s.repo.AttachRoleChangeUsers(changes); err != nil {
		return nil, common.NewInternal("Falha ao carregar usuários", err)
	}
	return &domain.RoleChangeList{RoleChanges: changes, Pagination: domain.NewPagination(total, limit, offset)}, nil
}

func (s *moderationService) Stats() (*domain.ModerationStats, error) {
	stats := &domain.ModerationStats{}
	active, err := s.repo.CountActiveBans()
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar estatísticas", err)
	}
	stats.Bans.Active = active

	roleStats, err := s.repo.RoleChangeStats(s.now())
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar estatísticas", err)
	}
	stats.RoleChanges = *roleStats
	return stats, nil
}

func (s *moderationService) targetProfile(userID string) (*domain.Profile, *common.AppError) {
	profile, err := s.profiles.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Usuário não encontrado")
		}
		return nil, common.NewInternal("Falha ao buscar usuário", err)
	}
	return profile, nil
}

func (s *moderationService) summary(userID string) (*domain.UserSummary, *common.AppError) {
	summaries, err := s.users.Summaries([]string{userID})
	if err != nil {
		return nil, common.NewInternal("Falha ao buscar usuário", err)
	}
	user, ok := summaries[userID]
	if !ok {
		return nil, common.NewNotFound("Usuário não encontrado")
	}
	return user, nil
}
