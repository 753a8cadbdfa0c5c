package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/service"
)

// CategoryHandler handles category tree requests
type CategoryHandler struct {
	service service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(service service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// Tree godoc
// @Summary      Árvore de categorias
// @Tags         categories
// @Produce      json
// @Success      200  {object}  common.Response{data=[]domain.CategoryNode}
// @Router       /categories/tree [get]
func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.service.GetTree(c.Request.Context())
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, tree)
}

// Roots godoc
// @Summary      Categorias raiz
// @Tags         categories
// @Produce      json
// @Success      200  {object}  common.Response{data=[]domain.Category}
// @Router       /categories/root [get]
func (h *CategoryHandler) Roots(c *gin.Context) {
	roots, err := h.service.ListRoots()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, roots)
}

// List godoc
// @Summary      Todas as categorias
// @Tags         categories
// @Produce      json
// @Success      200  {object}  common.Response{data=[]domain.Category}
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	all, err := h.service.ListAll()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, all)
}

// GetBySlug godoc
// @Summary      Categoria por slug
// @Tags         categories
// @Produce      json
// @Param        slug  path  string  true  "Slug"
// @Success      200  {object}  common.Response{data=domain.CategoryWithChildren}
// @Failure      404  {object}  common.Response
// @Router       /categories/slug/{slug} [get]
func (h *CategoryHandler) GetBySlug(c *gin.Context) {
	category, err := h.service.GetBySlug(c.Param("slug"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, category)
}

// GetByID godoc
// @Summary      Categoria por ID
// @Tags         categories
// @Produce      json
// @Param        categoryId  path  string  true  "Category ID"
// @Success      200  {object}  common.Response{data=domain.CategoryWithChildren}
// @Failure      404  {object}  common.Response
// @Router       /categories/{categoryId} [get]
func (h *CategoryHandler) GetByID(c *gin.Context) {
	category, err := h.service.GetByID(c.Param("categoryId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, category)
}

// Breadcrumbs godoc
// @Summary      Caminho da raiz até a categoria
// @Tags         categories
// @Produce      json
// @Param        categoryId  path  string  true  "Category ID"
// @Success      200  {object}  common.Response{data=[]domain.Category}
// @Router       /categories/{categoryId}/breadcrumbs [get]
func (h *CategoryHandler) Breadcrumbs(c *gin.Context) {
	path, err := h.service.Breadcrumbs(c.Param("categoryId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, path)
}

// Create godoc
// @Summary      Criar categoria
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.CreateCategoryRequest  true  "Categoria"
// @Success      201  {object}  common.Response{data=domain.Category}
// @Failure      400  {object}  common.Response
// @Failure      409  {object}  common.Response
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req domain.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Created(c, category, "Categoria criada com sucesso")
}

// Update godoc
// @Summary      Atualizar categoria
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId  path  string                        true  "Category ID"
// @Param        body        body  domain.UpdateCategoryRequest  true  "Campos"
// @Success      200  {object}  common.Response{data=domain.Category}
// @Router       /categories/{categoryId} [patch]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req domain.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.service.Update(c.Request.Context(), c.Param("categoryId"), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, category, "Categoria atualizada com sucesso")
}

// Reorder godoc
// @Summary      Reordenar categorias
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  domain.ReorderCategoriesRequest  true  "Nova ordem"
// @Success      200  {object}  common.Response
// @Router       /categories/reorder [put]
func (h *CategoryHandler) Reorder(c *gin.Context) {
	var req domain.ReorderCategoriesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.Reorder(c.Request.Context(), &req); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Categorias reordenadas com sucesso")
}

// ToggleLock godoc
// @Summary      Travar/destravar categoria
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId  path  string  true  "Category ID"
// @Success      200  {object}  common.Response{data=domain.Category}
// @Router       /categories/{categoryId}/toggle-lock [patch]
func (h *CategoryHandler) ToggleLock(c *gin.Context) {
	category, err := h.service.ToggleLock(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	msg := "Categoria destravada"
	if category.IsLocked {
		msg = "Categoria travada"
	}
	common.SuccessWithMessage(c, category, msg)
}

// Delete godoc
// @Summary      Remover categoria
// @Description  Somente categorias sem subcategorias e sem threads
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId  path  string  true  "Category ID"
// @Success      200  {object}  common.Response
// @Failure      400  {object}  common.Response
// @Router       /categories/{categoryId} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("categoryId")); err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, nil, "Categoria removida com sucesso")
}
