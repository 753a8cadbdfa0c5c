package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// ModerationHandler bans, unbans and role changes
type ModerationHandler struct {
	service service.ModerationService
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(service service.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Ban godoc
// @Summary      Banir usuário
// @Description  Permanente por padrão; isPermanent=false exige expiresInDays
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string                 true  "User ID"
// @Param        body    body  domain.BanUserRequest  true  "Banimento"
// @Success      201  {object}  common.Response{data=domain.Ban}
// @Failure      403  {object}  common.Response
// @Router       /moderation/bans/{userId} [post]
func (h *ModerationHandler) Ban(c *gin.Context) {
	var req domain.BanUserRequest
	if !bindJSON(c, &req) {
		return
	}
	ban, err := h.service.Ban(c.Param("userId"), middleware.GetUserID(c), middleware.GetUserRole(c), &req, auditMeta(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Created(c, ban, "Usuário banido com sucesso")
}

// Unban godoc
// @Summary      Desbanir usuário
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string                   true   "User ID"
// @Param        body    body  domain.UnbanUserRequest  false  "Motivo"
// @Success      200  {object}  common.Response{data=domain.Unban}
// @Router       /moderation/bans/{userId} [delete]
func (h *ModerationHandler) Unban(c *gin.Context) {
	var req domain.UnbanUserRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	unban, err := h.service.Unban(c.Param("userId"), middleware.GetUserID(c), middleware.GetUserRole(c), &req, auditMeta(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, unban, "Usuário desbanido com sucesso")
}

// ListBans godoc
// @Summary      Banimentos ativos
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Limite"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  common.Response{data=domain.BanList}
// @Router       /moderation/bans [get]
func (h *ModerationHandler) ListBans(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := h.service.ListActiveBans(limit, offset)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, list)
}

// BanHistory godoc
// @Summary      Histórico de banimentos do usuário
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string  true  "User ID"
// @Success      200  {object}  common.Response{data=domain.BanHistory}
// @Router       /moderation/bans/history/{userId} [get]
func (h *ModerationHandler) BanHistory(c *gin.Context) {
	history, err := h.service.BanHistory(c.Param("userId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, history)
}

// ChangeRole godoc
// @Summary      Alterar cargo
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string                    true  "User ID"
// @Param        body    body  domain.ChangeRoleRequest  true  "Novo cargo"
// @Success      200  {object}  common.Response{data=domain.RoleChange}
// @Failure      403  {object}  common.Response
// @Router       /moderation/roles/{userId} [patch]
func (h *ModerationHandler) ChangeRole(c *gin.Context) {
	var req domain.ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	change, err := h.service.ChangeRole(c.Param("userId"), middleware.GetUserID(c), middleware.GetUserRole(c), &req, auditMeta(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, change, "Cargo alterado com sucesso")
}

// RoleHistory godoc
// @Summary      Histórico de cargos do usuário
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path   string  true   "User ID"
// @Param        limit   query  int     false  "Limite"
// @Success      200  {object}  common.Response{data=domain.RoleHistory}
// @Router       /moderation/roles/history/{userId} [get]
func (h *ModerationHandler) RoleHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.service.RoleHistory(c.Param("userId"), limit)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, history)
}

// RecentRoleChanges godoc
// @Summary      Mudanças de cargo recentes
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Limite"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  common.Response{data=domain.RoleChangeList}
// @Router       /moderation/roles/changes [get]
func (h *ModerationHandler) RecentRoleChanges(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := h.service.RecentRoleChanges(limit, offset)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, list)
}

// Stats godoc
// @Summary      Estatísticas de moderação
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=domain.ModerationStats}
// @Router       /moderation/stats [get]
func (h *ModerationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, stats)
}
