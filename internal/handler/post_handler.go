package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// PostHandler handles post (reply) requests
type PostHandler struct {
	service service.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// List godoc
// @Summary      Listar posts de uma thread
// @Tags         posts
// @Produce      json
// @Param        threadId      query  string  true   "Thread ID"
// @Param        parentPostId  query  string  false  "Somente respostas deste post"
// @Param        topLevel      query  bool    false  "Somente posts sem pai"
// @Param        sortBy        query  string  false  "asc|desc"
// @Param        limit         query  int     false  "Limite"
// @Param        offset        query  int     false  "Offset"
// @Success      200  {object}  common.Response{data=domain.PostList}
// @Router       /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	var filter domain.PostFilter
	if !bindQuery(c, &filter) {
		return
	}
	list, err := h.service.List(filter, middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, list)
}

// GetByID godoc
// @Summary      Detalhe do post
// @Tags         posts
// @Produce      json
// @Param        id  path  string  true  "Post ID"
// @Success      200  {object}  common.Response{data=domain.Post}
// @Failure      404  {object}  common.Response
// @Router       /posts/{id} [get]
func (h *PostHandler) GetByID(c *gin.Context) {
	post, err := h.service.GetByID(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, post)
}

// Replies godoc
// @Summary      Respostas diretas de um post
// @Tags         posts
// @Produce      json
// @Param        id      path   string  true   "Post ID"
// @Param        limit   query  int     false  "Limite"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  common.Response{data=domain.ReplyList}
// @Router       /posts/{id}/replies [get]
func (h *PostHandler) Replies(c *gin.Context) {
	limit, offset := pageParams(c)
	replies, err := h.service.GetReplies(c.Param("id"), limit, offset, middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, replies)
}

// Create godoc
// @Summary      Responder thread ou post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.CreatePostRequest  true  "Post"
// @Success      201  {object}  common.Response{data=domain.Post}
// @Failure      400  {object}  common.Response
// @Failure      403  {object}  common.Response
// @Router       /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	var req domain.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.service.Create(middleware.GetUserID(c), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Created(c, post, "Post criado com sucesso")
}

// Update godoc
// @Summary      Editar post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "Post ID"
// @Param        body  body  domain.UpdatePostRequest  true  "Conteúdo"
// @Success      200  {object}  common.Response{data=domain.Post}
// @Router       /posts/{id} [patch]
func (h *PostHandler) Update(c *gin.Context) {
	var req domain.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.service.Update(c.Param("id"), middleware.GetUserID(c), middleware.GetUserRole(c), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, post, "Post atualizado com sucesso")
}

// Delete godoc
// @Summary      Remover post
// @Description  Remove também todas as respostas abaixo dele
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Post ID"
// @Success      200  {object}  common.Response
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id"), middleware.GetUserID(c), middleware.GetUserRole(c)); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Post removido com sucesso")
}
