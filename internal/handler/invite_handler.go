package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// InviteHandler invite code lookups
type InviteHandler struct {
	invites  service.InviteService
	settings service.SettingsService
}

// NewInviteHandler creates a new InviteHandler
func NewInviteHandler(invites service.InviteService, settings service.SettingsService) *InviteHandler {
	return &InviteHandler{invites: invites, settings: settings}
}

// Status godoc
// @Summary      Registro exige convite?
// @Tags         invites
// @Produce      json
// @Success      200  {object}  common.Response{data=domain.RegistrationStatus}
// @Router       /invites/status [get]
func (h *InviteHandler) Status(c *gin.Context) {
	status, err := h.settings.RegistrationStatus()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, status)
}

// Validate godoc
// @Summary      Validar código de convite
// @Tags         invites
// @Produce      json
// @Param        code  path  string  true  "Código"
// @Success      200  {object}  common.Response{data=domain.InviteValidation}
// @Failure      400  {object}  common.Response
// @Router       /invites/validate/{code} [get]
func (h *InviteHandler) Validate(c *gin.Context) {
	invite, err := h.invites.Validate(c.Param("code"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, &domain.InviteValidation{Valid: true, Code: invite.Code, IsActive: invite.IsActive})
}

// Mine godoc
// @Summary      Meus convites
// @Tags         invites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=domain.MyInvites}
// @Router       /invites/my [get]
func (h *InviteHandler) Mine(c *gin.Context) {
	mine, err := h.invites.MyInvites(middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, mine)
}
