package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// LikeHandler serves likes for both threads and posts; the subject is bound
// per route
type LikeHandler struct {
	service service.LikeService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(service service.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

// Toggle returns the handler that likes or unlikes the subject in :id
//
// @Summary      Curtir/descurtir
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Thread ou Post ID"
// @Success      200  {object}  common.Response{data=service.LikeToggleResult}
// @Router       /likes/threads/{id} [post]
// @Router       /likes/posts/{id} [post]
func (h *LikeHandler) Toggle(subject domain.LikeSubject) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.service.Toggle(subject, c.Param("id"), middleware.GetUserID(c))
		if err != nil {
			common.HandleError(c, err)
			return
		}
		common.SuccessWithMessage(c, res, res.Message)
	}
}

// Status like count plus whether the caller liked it
//
// @Summary      Status de curtida
// @Tags         likes
// @Produce      json
// @Param        id  path  string  true  "Thread ou Post ID"
// @Success      200  {object}  common.Response{data=domain.LikeStatus}
// @Router       /likes/threads/{id}/status [get]
// @Router       /likes/posts/{id}/status [get]
func (h *LikeHandler) Status(subject domain.LikeSubject) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.service.Status(subject, c.Param("id"), middleware.GetUserID(c))
		if err != nil {
			common.HandleError(c, err)
			return
		}
		common.Success(c, status)
	}
}

// Likers newest-first page of users who liked the subject
//
// @Summary      Quem curtiu
// @Tags         likes
// @Produce      json
// @Param        id      path   string  true   "Thread ou Post ID"
// @Param        limit   query  int     false  "Limite"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  common.Response{data=domain.LikerList}
// @Router       /likes/threads/{id} [get]
// @Router       /likes/posts/{id} [get]
func (h *LikeHandler) Likers(subject domain.LikeSubject) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		list, err := h.service.ListLikers(subject, c.Param("id"), limit, offset)
		if err != nil {
			common.HandleError(c, err)
			return
		}
		common.Success(c, list)
	}
}
