package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// ThreadHandler handles thread requests
type ThreadHandler struct {
	service service.ThreadService
}

// NewThreadHandler creates a new ThreadHandler
func NewThreadHandler(service service.ThreadService) *ThreadHandler {
	return &ThreadHandler{service: service}
}

// List godoc
// @Summary      Listar threads
// @Tags         threads
// @Produce      json
// @Param        categoryId  query  string  false  "Categoria"
// @Param        authorId    query  string  false  "Autor"
// @Param        template    query  string  false  "midia|jogos|software|torrent|postagem"
// @Param        status      query  string  false  "active|locked|pinned|archived"
// @Param        isPinned    query  bool    false  "Somente fixadas"
// @Param        sortBy      query  string  false  "recent|popular|replies|views"
// @Param        limit       query  int     false  "Limite (máx 100)"
// @Param        offset      query  int     false  "Offset"
// @Success      200  {object}  common.Response{data=domain.ThreadList}
// @Router       /threads [get]
func (h *ThreadHandler) List(c *gin.Context) {
	var filter domain.ThreadFilter
	if !bindQuery(c, &filter) {
		return
	}
	list, err := h.service.List(filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, list)
}

// Search godoc
// @Summary      Buscar threads
// @Tags         threads
// @Produce      json
// @Param        q       query  string  true   "Termo"
// @Param        limit   query  int     false  "Limite"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  common.Response{data=domain.ThreadList}
// @Router       /threads/search [get]
func (h *ThreadHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Parâmetro q é obrigatório", nil)
		return
	}
	limit, offset := pageParams(c)
	list, err := h.service.Search(c.Request.Context(), q, limit, offset)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, list)
}

// GetByID godoc
// @Summary      Detalhe da thread
// @Description  Conta uma visualização
// @Tags         threads
// @Produce      json
// @Param        id  path  string  true  "Thread ID"
// @Success      200  {object}  common.Response{data=domain.ThreadWithContent}
// @Failure      404  {object}  common.Response
// @Router       /threads/{id} [get]
func (h *ThreadHandler) GetByID(c *gin.Context) {
	thread, err := h.service.GetByID(c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, thread)
}

// GetBySlug godoc
// @Summary      Thread por slug dentro da categoria
// @Tags         threads
// @Produce      json
// @Param        categoryId  path  string  true  "Category ID"
// @Param        slug        path  string  true  "Slug"
// @Success      200  {object}  common.Response{data=domain.ThreadWithContent}
// @Router       /threads/category/{categoryId}/slug/{slug} [get]
func (h *ThreadHandler) GetBySlug(c *gin.Context) {
	thread, err := h.service.GetBySlug(c.Param("categoryId"), c.Param("slug"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, thread)
}

// Create godoc
// @Summary      Criar thread
// @Description  O conteúdo é validado conforme o template; cada template exige um cargo mínimo
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.CreateThreadRequest  true  "Thread"
// @Success      201  {object}  common.Response{data=domain.ThreadWithContent}
// @Failure      400  {object}  common.Response
// @Failure      403  {object}  common.Response
// @Router       /threads [post]
func (h *ThreadHandler) Create(c *gin.Context) {
	var req domain.CreateThreadRequest
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.service.Create(c.Request.Context(), middleware.GetUserID(c), middleware.GetUserRole(c), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Created(c, thread, "Thread criada com sucesso")
}

// Update godoc
// @Summary      Atualizar thread
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                      true  "Thread ID"
// @Param        body  body  domain.UpdateThreadRequest  true  "Campos"
// @Success      200  {object}  common.Response{data=domain.ThreadWithContent}
// @Router       /threads/{id} [patch]
func (h *ThreadHandler) Update(c *gin.Context) {
	var req domain.UpdateThreadRequest
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.service.Update(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), middleware.GetUserRole(c), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, thread, "Thread atualizada com sucesso")
}

// Delete godoc
// @Summary      Remover thread
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Thread ID"
// @Success      200  {object}  common.Response
// @Router       /threads/{id} [delete]
func (h *ThreadHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), middleware.GetUserRole(c)); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Thread removida com sucesso")
}

// TogglePin godoc
// @Summary      Fixar/desafixar thread
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Thread ID"
// @Success      200  {object}  common.Response{data=domain.Thread}
// @Router       /threads/{id}/toggle-pin [patch]
func (h *ThreadHandler) TogglePin(c *gin.Context) {
	thread, err := h.service.TogglePin(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	msg := "Thread desafixada"
	if thread.IsPinned {
		msg = "Thread fixada"
	}
	common.SuccessWithMessage(c, thread, msg)
}

// ToggleLock godoc
// @Summary      Travar/destravar thread
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Thread ID"
// @Success      200  {object}  common.Response{data=domain.Thread}
// @Router       /threads/{id}/toggle-lock [patch]
func (h *ThreadHandler) ToggleLock(c *gin.Context) {
	thread, err := h.service.ToggleLock(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	msg := "Thread destravada"
	if thread.IsLocked {
		msg = "Thread travada"
	}
	common.SuccessWithMessage(c, thread, msg)
}

// Archive godoc
// @Summary      Arquivar thread
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Thread ID"
// @Success      200  {object}  common.Response{data=domain.Thread}
// @Router       /threads/{id}/archive [patch]
func (h *ThreadHandler) Archive(c *gin.Context) {
	thread, err := h.service.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, thread, "Thread arquivada")
}
