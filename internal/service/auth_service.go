package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultHashCost = bcrypt.DefaultCost

// ProfileDefaults media assigned to every new profile
type ProfileDefaults struct {
	AvatarURL string
	BannerURL string
}

// AuthService registration, login and token revocation
type AuthService interface {
	Register(req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(req *domain.LoginRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context, token, userID string) error
	Me(userID string) (*domain.ProfileView, error)
}

type authService struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	invites    InviteService
	settings   SettingsService
	blacklist  TokenBlacklist
	jwtManager *jwt.Manager
	defaults   ProfileDefaults
	hashCost   int
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	invites InviteService,
	settings SettingsService,
	blacklist TokenBlacklist,
	jwtManager *jwt.Manager,
	defaults ProfileDefaults,
) AuthService {
	return &authService{
		users:      users,
		profiles:   profiles,
		invites:    invites,
		settings:   settings,
		blacklist:  blacklist,
		jwtManager: jwtManager,
		defaults:   defaults,
		hashCost:   defaultHashCost,
	}
}

// HashPassword bcrypt hash at the given cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates the account. When the require_invite_code setting is on
// a valid invite is mandatory; every new user gets an invite of their own.
func (s *authService) Register(req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if !domain.ValidUsername(username) {
		return nil, common.NewBadRequest("Username deve conter apenas letras, números e underscore")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	inviteCode := NormalizeInviteCode(req.InviteCode)

	status, err := s.settings.RegistrationStatus()
	if err != nil {
		return nil, err
	}
	if status.RequireInviteCode && inviteCode == "" {
		return nil, common.NewBadRequest("Código de convite é obrigatório para registro")
	}
	if inviteCode != "" {
		if _, err := s.invites.Validate(inviteCode); err != nil {
			return nil, err
		}
	}

	if exists, err := s.users.ExistsByUsername(username); err != nil {
		return nil, common.NewInternal("Falha ao verificar username", err)
	} else if exists {
		return nil, common.NewConflict("Username já está em uso")
	}
	if exists, err := s.users.ExistsByEmail(email); err != nil {
		return nil, common.NewInternal("Falha ao verificar email", err)
	} else if exists {
		return nil, common.NewConflict("Email já está em uso")
	}

	hash, err := HashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, common.NewInternal("Falha ao processar senha", err)
	}
	newCode, err := s.invites.NewCode()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
	}
	if inviteCode != "" {
		user.InviteCodeUsed = &inviteCode
	}
	profile := &domain.Profile{
		AvatarURL: s.defaults.AvatarURL,
		BannerURL: s.defaults.BannerURL,
		Role:      domain.RoleUsuario,
	}

	reg := &repository.Registration{
		User:       user,
		Profile:    profile,
		InviteCode: inviteCode,
		NewInvite:  &domain.InviteCode{Code: newCode, IsActive: true},
	}
	if err := s.users.Register(reg); err != nil {
		switch {
		case errors.Is(err, repository.ErrInviteUnavailable):
			return nil, common.NewBadRequest("Código de convite inválido ou já utilizado")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, common.NewConflict("Username ou email já está em uso")
		}
		return nil, common.NewInternal("Falha ao registrar usuário", err)
	}

	return s.issue(user, profile)
}

func (s *authService) Login(req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.users.FindByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewUnauthorized("Credenciais inválidas")
		}
		return nil, common.NewInternal("Falha ao buscar usuário", err)
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		return nil, common.NewUnauthorized("Credenciais inválidas")
	}

	profile, err := s.profiles.FindByUserID(user.ID)
	if err != nil {
		return nil, common.NewInternal("Perfil não encontrado", err)
	}
	if profile.IsBanned {
		return nil, common.NewForbidden("Sua conta está banida")
	}

	return s.issue(user, profile)
}

// Logout revokes the token until the moment it would have expired anyway
func (s *authService) Logout(ctx context.Context, token, userID string) error {
	expiresAt, err := s.jwtManager.ExpiresAt(token)
	if err != nil {
		return common.NewUnauthorized("Token inválido")
	}
	if err := s.blacklist.Revoke(ctx, token, userID, expiresAt); err != nil {
		return common.NewInternal("Falha ao realizar logout", err)
	}
	return nil
}

func (s *authService) Me(userID string) (*domain.ProfileView, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Usuário não encontrado")
		}
		return nil, common.NewInternal("Falha ao buscar usuário", err)
	}
	profile, err := s.profiles.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Usuário não encontrado")
		}
		return nil, common.NewInternal("Falha ao buscar perfil", err)
	}
	return &domain.ProfileView{User: user, Profile: profile}, nil
}

func (s *authService) issue(user *domain.User, profile *domain.Profile) (*domain.AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, common.NewInternal("Falha ao gerar token", err)
	}
	return &domain.AuthResponse{User: user, Profile: profile, Token: token}, nil
}
