package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// AdminHandler system settings
type AdminHandler struct {
	settings service.SettingsService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(settings service.SettingsService) *AdminHandler {
	return &AdminHandler{settings: settings}
}

// Settings godoc
// @Summary      Todas as configurações
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=[]domain.SystemSetting}
// @Router       /admin/settings [get]
func (h *AdminHandler) Settings(c *gin.Context) {
	all, err := h.settings.All()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, all)
}

// RegistrationStatus godoc
// @Summary      Status do registro
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=domain.RegistrationStatus}
// @Router       /admin/settings/registration [get]
func (h *AdminHandler) RegistrationStatus(c *gin.Context) {
	status, err := h.settings.RegistrationStatus()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, status)
}

// ToggleRegistration godoc
// @Summary      Exigir ou não código de convite
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.ToggleRegistrationRequest  true  "required"
// @Success      200  {object}  common.Response{data=domain.RegistrationStatus}
// @Router       /admin/settings/registration [put]
func (h *AdminHandler) ToggleRegistration(c *gin.Context) {
	var req domain.ToggleRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := h.settings.SetInviteRequired(*req.Required, middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	msg := "Registro aberto"
	if status.RequireInviteCode {
		msg = "Registro restrito a convites"
	}
	common.SuccessWithMessage(c, status, msg)
}
