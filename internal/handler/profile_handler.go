package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// ProfileHandler the caller's own profile
type ProfileHandler struct {
	service service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type mediaUpdater func(ctx context.Context, userID string, file *service.ImageUpload) (*domain.Profile, error)

// upload reads the multipart "file" field and hands it to update
func (h *ProfileHandler) upload(c *gin.Context, update mediaUpdater, message string) {
	header, err := c.FormFile("file")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Arquivo é obrigatório", nil)
		return
	}
	f, err := header.Open()
	if err != nil {
		common.HandleError(c, common.NewInternal("Falha ao ler arquivo", err))
		return
	}
	defer f.Close()

	profile, err := update(c.Request.Context(), middleware.GetUserID(c), &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	})
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, profile, message)
}

// Get godoc
// @Summary      Meu perfil
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=domain.ProfileView}
// @Router       /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	view, err := h.service.Get(middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, view)
}

// Update godoc
// @Summary      Atualizar nome e bio
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.UpdateProfileRequest  true  "Campos"
// @Success      200  {object}  common.Response{data=domain.UpdateProfileResult}
// @Router       /profile [patch]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req domain.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Update(middleware.GetUserID(c), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, res, "Perfil atualizado com sucesso")
}

// UpdateAvatar godoc
// @Summary      Enviar avatar
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Imagem (máx 10MB)"
// @Success      200  {object}  common.Response{data=domain.Profile}
// @Router       /profile/avatar [post]
func (h *ProfileHandler) UpdateAvatar(c *gin.Context) {
	h.upload(c, h.service.UpdateAvatar, "Avatar atualizado com sucesso")
}

// UpdateBanner godoc
// @Summary      Enviar banner
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Imagem (máx 10MB)"
// @Success      200  {object}  common.Response{data=domain.Profile}
// @Router       /profile/banner [post]
func (h *ProfileHandler) UpdateBanner(c *gin.Context) {
	h.upload(c, h.service.UpdateBanner, "Banner atualizado com sucesso")
}

// UpdateSignature godoc
// @Summary      Enviar assinatura
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Imagem (máx 10MB)"
// @Success      200  {object}  common.Response{data=domain.Profile}
// @Router       /profile/signature [post]
func (h *ProfileHandler) UpdateSignature(c *gin.Context) {
	h.upload(c, h.service.UpdateSignature, "Assinatura atualizada com sucesso")
}

// RemoveSignature godoc
// @Summary      Remover assinatura
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=domain.Profile}
// @Router       /profile/signature [delete]
func (h *ProfileHandler) RemoveSignature(c *gin.Context) {
	profile, err := h.service.RemoveSignature(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, profile, "Assinatura removida com sucesso")
}

// RequestEmailChange godoc
// @Summary      Solicitar troca de email
// @Description  Envia um código de 6 dígitos para o novo endereço
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.RequestEmailChangeRequest  true  "Novo email"
// @Success      200  {object}  common.Response
// @Router       /profile/email/request [post]
func (h *ProfileHandler) RequestEmailChange(c *gin.Context) {
	var req domain.RequestEmailChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.RequestEmailChange(middleware.GetUserID(c), &req); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Código de verificação enviado para o novo email")
}

// ConfirmEmailChange godoc
// @Summary      Confirmar troca de email
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.ConfirmCodeRequest  true  "Código"
// @Success      200  {object}  common.Response{data=domain.User}
// @Router       /profile/email/confirm [post]
func (h *ProfileHandler) ConfirmEmailChange(c *gin.Context) {
	var req domain.ConfirmCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.ConfirmEmailChange(middleware.GetUserID(c), req.Code)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, user, "Email alterado com sucesso")
}

// RequestPasswordChange godoc
// @Summary      Solicitar troca de senha
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.RequestPasswordChangeRequest  true  "Senhas"
// @Success      200  {object}  common.Response
// @Router       /profile/password/request [post]
func (h *ProfileHandler) RequestPasswordChange(c *gin.Context) {
	var req domain.RequestPasswordChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.RequestPasswordChange(middleware.GetUserID(c), &req); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Código de verificação enviado para o seu email")
}

// ConfirmPasswordChange godoc
// @Summary      Confirmar troca de senha
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.ConfirmCodeRequest  true  "Código"
// @Success      200  {object}  common.Response
// @Router       /profile/password/confirm [post]
func (h *ProfileHandler) ConfirmPasswordChange(c *gin.Context) {
	var req domain.ConfirmCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ConfirmPasswordChange(middleware.GetUserID(c), req.Code); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Senha alterada com sucesso")
}
