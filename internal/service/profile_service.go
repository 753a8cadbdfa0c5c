package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"github.com/gtracker/forum-backend/pkg/mailer"
	"github.com/gtracker/forum-backend/pkg/storage"
	"gorm.io/gorm"
)

const (
	// MaxImageSize upper bound for profile media uploads
	MaxImageSize = 10 << 20

	verificationCodeTTL = 15 * time.Minute
	verificationDigits  = 6
)

// ImageUpload file received from a multipart form
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type mediaSlot string

const (
	slotAvatar    mediaSlot = "avatars"
	slotBanner    mediaSlot = "banners"
	slotSignature mediaSlot = "signatures"
)

// ProfileService self-service profile edits and verified credential changes
type ProfileService interface {
	Get(userID string) (*domain.ProfileView, error)
	Update(userID string, req *domain.UpdateProfileRequest) (*domain.UpdateProfileResult, error)
	UpdateAvatar(ctx context.Context, userID string, file *ImageUpload) (*domain.Profile, error)
	UpdateBanner(ctx context.Context, userID string, file *ImageUpload) (*domain.Profile, error)
	UpdateSignature(ctx context.Context, userID string, file *ImageUpload) (*domain.Profile, error)
	RemoveSignature(ctx context.Context, userID string) (*domain.Profile, error)

	RequestEmailChange(userID string, req *domain.RequestEmailChangeRequest) error
	ConfirmEmailChange(userID, code string) (*domain.User, error)
	RequestPasswordChange(userID string, req *domain.RequestPasswordChangeRequest) error
	ConfirmPasswordChange(userID, code string) error
}

type profileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	codes    repository.VerificationCodeRepository
	media    storage.MediaStore
	mail     mailer.Sender
	defaults ProfileDefaults
	hashCost int
	now      func() time.Time
}

// NewProfileService creates a new ProfileService
func NewProfileService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	codes repository.VerificationCodeRepository,
	media storage.MediaStore,
	mail mailer.Sender,
	defaults ProfileDefaults,
) ProfileService {
	return &profileService{
		users:    users,
		profiles: profiles,
		codes:    codes,
		media:    media,
		mail:     mail,
		defaults: defaults,
		hashCost: defaultHashCost,
		now:      time.Now,
	}
}

func (s *profileService) Get(userID string) (*domain.ProfileView, error) {
	user, appErr := s.findUser(userID)
	if appErr != nil {
		return nil, appErr
	}
	profile, appErr := s.findProfile(userID)
	if appErr != nil {
		return nil, appErr
	}
	return &domain.ProfileView{User: user, Profile: profile}, nil
}

// Update only the parts present in req appear in the result
func (s *profileService) Update(userID string, req *domain.UpdateProfileRequest) (*domain.UpdateProfileResult, error) {
	result := &domain.UpdateProfileResult{}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user, err := s.users.UpdateName(userID, strings.TrimSpace(*req.Name))
		if err != nil {
			return nil, notFoundOr(err, "Usuário não encontrado", "Falha ao atualizar nome")
		}
		result.User = user
	}
	if req.Bio != nil {
		profile, err := s.profiles.UpdateBio(userID, *req.Bio)
		if err != nil {
			return nil, notFoundOr(err, "Perfil não encontrado", "Falha ao atualizar bio")
		}
		result.Profile = profile
	}
	return result, nil
}

func (s *profileService) UpdateAvatar(ctx context.Context, userID string, file *ImageUpload) (*domain.Profile, error) {
	return s.replaceMedia(ctx, userID, slotAvatar, file)
}

func (s *profileService) UpdateBanner(ctx context.Context, userID string, file *ImageUpload) (*domain.Profile, error) {
	return s.replaceMedia(ctx, userID, slotBanner, file)
}

func (s *profileService) UpdateSignature(ctx context.Context, userID string, file *ImageUpload) (*domain.Profile, error) {
	return s.replaceMedia(ctx, userID, slotSignature, file)
}

func (s *profileService) RemoveSignature(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, appErr := s.findProfile(userID)
	if appErr != nil {
		return nil, appErr
	}
	s.deleteMedia(ctx, profile.Signature)

	updated, err := s.profiles.UpdateSignature(userID, "")
	if err != nil {
		return nil, notFoundOr(err, "Perfil não encontrado", "Falha ao remover assinatura")
	}
	return updated, nil
}

// replaceMedia uploads first, then points the profile at the new object and
// drops the previous one. Default media is never deleted.
func (s *profileService) replaceMedia(ctx context.Context, userID string, slot mediaSlot, file *ImageUpload) (*domain.Profile, error) {
	if appErr := validateImage(file); appErr != nil {
		return nil, appErr
	}
	if s.media == nil {
		return nil, common.NewInternal("Armazenamento de mídia não configurado", nil)
	}
	profile, appErr := s.findProfile(userID)
	if appErr != nil {
		return nil, appErr
	}

	url, err := s.media.Upload(ctx, string(slot), userID, file.Filename, file.ContentType, file.Body, file.Size)
	if err != nil {
		return nil, common.NewInternal("Falha ao enviar imagem", err)
	}

	var (
		updated *domain.Profile
		old     string
	)
	switch slot {
	case slotAvatar:
		old = profile.AvatarURL
		updated, err = s.profiles.UpdateAvatar(userID, url)
	case slotBanner:
		old = profile.BannerURL
		updated, err = s.profiles.UpdateBanner(userID, url)
	default:
		old = profile.Signature
		updated, err = s.profiles.UpdateSignature(userID, url)
	}
	if err != nil {
		s.deleteMedia(ctx, url)
		return nil, notFoundOr(err, "Perfil não encontrado", "Falha ao atualizar perfil")
	}

	s.deleteMedia(ctx, old)
	return updated, nil
}

// deleteMedia best effort; objects outside the store and defaults are kept
func (s *profileService) deleteMedia(ctx context.Context, url string) {
	if s.media == nil || url == "" || url == s.defaults.AvatarURL || url == s.defaults.BannerURL {
		return
	}
	if err := s.media.DeleteByURL(ctx, url); err != nil && !errors.Is(err, storage.ErrForeignURL) {
		pkglogger.GetLogger().Warn().Err(err).Str("url", url).Msg("failed to delete old profile media")
	}
}

func validateImage(file *ImageUpload) *common.AppError {
	if file == nil || file.Body == nil {
		return common.NewBadRequest("Nenhum arquivo enviado")
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return common.NewBadRequest("Apenas imagens são permitidas")
	}
	if file.Size > MaxImageSize {
		return common.NewBadRequest("Arquivo excede o tamanho máximo de 10MB")
	}
	return nil
}

// RequestEmailChange mails a code to the new address; pending codes of the
// same kind are discarded first
func (s *profileService) RequestEmailChange(userID string, req *domain.RequestEmailChangeRequest) error {
	user, appErr := s.findUser(userID)
	if appErr != nil {
		return appErr
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		return common.NewUnauthorized("Senha incorreta")
	}

	newEmail := strings.ToLower(strings.TrimSpace(req.NewEmail))
	exists, err := s.users.ExistsByEmail(newEmail)
	if err != nil {
		return common.NewInternal("Falha ao verificar email", err)
	}
	if exists {
		return common.NewConflict("Este email já está em uso")
	}

	code, appErr := s.issueCode(userID, domain.VerificationEmailChange, newEmail)
	if appErr != nil {
		return appErr
	}
	if err := s.mail.SendEmailChangeCode(newEmail, user.Username, code); err != nil {
		return common.NewInternal("Falha ao enviar email de verificação", err)
	}
	return nil
}

func (s *profileService) ConfirmEmailChange(userID, code string) (*domain.User, error) {
	vc, appErr := s.consumeCode(userID, code, domain.VerificationEmailChange)
	if appErr != nil {
		return nil, appErr
	}
	user, err := s.users.UpdateEmail(userID, vc.NewValue)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.NewConflict("Este email já está em uso")
		}
		return nil, notFoundOr(err, "Usuário não encontrado", "Falha ao atualizar email")
	}
	return user, nil
}

// RequestPasswordChange the new password is hashed now; only the hash is
// held with the pending code
func (s *profileService) RequestPasswordChange(userID string, req *domain.RequestPasswordChangeRequest) error {
	user, appErr := s.findUser(userID)
	if appErr != nil {
		return appErr
	}
	if !CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return common.NewUnauthorized("Senha atual incorreta")
	}

	hash, err := HashPassword(req.NewPassword, s.hashCost)
	if err != nil {
		return common.NewInternal("Falha ao processar senha", err)
	}
	code, appErr := s.issueCode(userID, domain.VerificationPasswordChange, hash)
	if appErr != nil {
		return appErr
	}
	if err := s.mail.SendPasswordChangeCode(user.Email, user.Username, code); err != nil {
		return common.NewInternal("Falha ao enviar email de verificação", err)
	}
	return nil
}

func (s *profileService) ConfirmPasswordChange(userID, code string) error {
	vc, appErr := s.consumeCode(userID, code, domain.VerificationPasswordChange)
	if appErr != nil {
		return appErr
	}
	if err := s.users.UpdatePassword(userID, vc.NewValue); err != nil {
		return notFoundOr(err, "Usuário não encontrado", "Falha ao atualizar senha")
	}
	return nil
}

func (s *profileService) issueCode(userID string, t domain.VerificationType, value string) (string, *common.AppError) {
	if err := s.codes.DeletePending(userID, t); err != nil {
		return "", common.NewInternal("Falha ao gerar código", err)
	}
	code, err := randomDigits(verificationDigits)
	if err != nil {
		return "", common.NewInternal("Falha ao gerar código", err)
	}
	vc := &domain.VerificationCode{
		UserID:    userID,
		Code:      code,
		Type:      t,
		NewValue:  value,
		ExpiresAt: s.now().Add(verificationCodeTTL),
	}
	if err := s.codes.Create(vc); err != nil {
		return "", common.NewInternal("Falha ao gerar código", err)
	}
	return code, nil
}

// consumeCode marks the code used before applying it so it works only once
func (s *profileService) consumeCode(userID, code string, t domain.VerificationType) (*domain.VerificationCode, *common.AppError) {
	now := s.now()
	vc, err := s.codes.FindValid(userID, code, t, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewBadRequest("Código inválido ou expirado")
		}
		return nil, common.NewInternal("Falha ao verificar código", err)
	}
	ok, err := s.codes.MarkUsed(vc.ID, now)
	if err != nil {
		return nil, common.NewInternal("Falha ao verificar código", err)
	}
	if !ok {
		return nil, common.NewBadRequest("Código inválido ou expirado")
	}
	return vc, nil
}

func (s *profileService) findUser(userID string) (*domain.User, *common.AppError) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, notFoundOr(err, "Usuário não encontrado", "Falha ao buscar usuário")
	}
	return user, nil
}

func (s *profileService) findProfile(userID string) (*domain.Profile, *common.AppError) {
	profile, err := s.profiles.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, "Perfil não encontrado", "Falha ao buscar perfil")
	}
	return profile, nil
}

func notFoundOr(err error, notFound, internal string) *common.AppError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NewNotFound(notFound)
	}
	return common.NewInternal(internal, err)
}

func randomDigits(n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("random digit: %w", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
