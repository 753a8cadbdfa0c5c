package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register godoc
// @Summary      Criar conta
// @Description  Exige código de convite quando o registro está fechado
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  domain.RegisterRequest  true  "Dados de cadastro"
// @Success      201  {object}  common.Response{data=domain.AuthResponse}
// @Failure      400  {object}  common.Response
// @Failure      409  {object}  common.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Register(&req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Created(c, res, "Usuário registrado com sucesso")
}

// Login godoc
// @Summary      Entrar
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  domain.LoginRequest  true  "Credenciais"
// @Success      200  {object}  common.Response{data=domain.AuthResponse}
// @Failure      401  {object}  common.Response
// @Failure      403  {object}  common.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Login(&req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, res, "Login realizado com sucesso")
}

// Logout godoc
// @Summary      Sair
// @Description  Revoga o token atual até a sua expiração
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.GetToken(c), middleware.GetUserID(c)); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Logout realizado com sucesso")
}

// Me godoc
// @Summary      Usuário autenticado
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response{data=domain.ProfileView}
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	view, err := h.service.Me(middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, view)
}
