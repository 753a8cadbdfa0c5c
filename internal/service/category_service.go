package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/cache"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"gorm.io/gorm"
)

// CategoryService forum category tree
type CategoryService interface {
	Create(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error)
	Update(ctx context.Context, id string, req *domain.UpdateCategoryRequest) (*domain.Category, error)
	Reorder(ctx context.Context, req *domain.ReorderCategoriesRequest) error
	ToggleLock(ctx context.Context, id string) (*domain.Category, error)
	Delete(ctx context.Context, id string) error

	IsLeaf(id string) (bool, error)
	GetTree(ctx context.Context) ([]*domain.CategoryNode, error)
	GetByID(id string) (*domain.CategoryWithChildren, error)
	GetBySlug(slug string) (*domain.CategoryWithChildren, error)
	ListRoots() ([]*domain.Category, error)
	ListAll() ([]*domain.Category, error)
	Breadcrumbs(id string) ([]*domain.Category, error)
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache cache.Service
}

// NewCategoryService creates a new CategoryService; cacheService may be nil
func NewCategoryService(repo repository.CategoryRepository, cacheService cache.Service) CategoryService {
	return &categoryService{repo: repo, cache: cacheService}
}

func (s *categoryService) Create(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	exists, err := s.repo.SlugExists(req.Slug, "")
	if err != nil {
		return nil, common.NewInternal("Falha ao verificar slug", err)
	}
	if exists {
		return nil, common.NewConflict("Slug já está em uso")
	}

	level := 0
	if req.ParentID != nil && *req.ParentID != "" {
		parent, appErr := s.findParent(*req.ParentID)
		if appErr != nil {
			return nil, appErr
		}
		if parent.Level >= domain.MaxCategoryLevel {
			return nil, common.NewBadRequest("Nível máximo de categorias atingido (3 níveis)")
		}
		level = parent.Level + 1
	} else {
		req.ParentID = nil
	}

	category := &domain.Category{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Icon:         req.Icon,
		ParentID:     req.ParentID,
		DisplayOrder: req.DisplayOrder,
		IsLocked:     req.IsLocked,
		Level:        level,
	}
	if err := s.repo.Create(category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.NewConflict("Slug já está em uso")
		}
		return nil, common.NewInternal("Falha ao criar categoria", err)
	}

	s.invalidate(ctx)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id string, req *domain.UpdateCategoryRequest) (*domain.Category, error) {
	current, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Slug != nil && *req.Slug != current.Slug {
		exists, err := s.repo.SlugExists(*req.Slug, id)
		if err != nil {
			return nil, common.NewInternal("Falha ao verificar slug", err)
		}
		if exists {
			return nil, common.NewConflict("Slug já está em uso")
		}
		fields["slug"] = *req.Slug
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Icon != nil {
		fields["icon"] = *req.Icon
	}
	if req.DisplayOrder != nil {
		fields["display_order"] = *req.DisplayOrder
	}
	if req.IsLocked != nil {
		fields["is_locked"] = *req.IsLocked
	}

	var descendantLevels map[string]int
	if req.ParentID != nil && !sameParent(current.ParentID, *req.ParentID) {
		level, levels, appErr := s.planMove(current, *req.ParentID)
		if appErr != nil {
			return nil, appErr
		}
		if *req.ParentID == "" {
			fields["parent_id"] = nil
		} else {
			fields["parent_id"] = *req.ParentID
		}
		fields["level"] = level
		descendantLevels = levels
	}

	if len(fields) == 0 {
		return current, nil
	}
	if err := s.repo.Update(id, fields, descendantLevels); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Categoria não encontrada")
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.NewConflict("Slug já está em uso")
		}
		return nil, common.NewInternal("Falha ao atualizar categoria", err)
	}

	s.invalidate(ctx)
	updated, err := s.repo.FindByID(id)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar categoria", err)
	}
	return updated, nil
}

// planMove validates moving category under newParentID ("" for root) and
// returns its new level plus the new level of every descendant
func (s *categoryService) planMove(category *domain.Category, newParentID string) (int, map[string]int, *common.AppError) {
	if newParentID == category.ID {
		return 0, nil, common.NewBadRequest("Uma categoria não pode ser pai de si mesma")
	}

	all, err := s.repo.ListAll()
	if err != nil {
		return 0, nil, common.NewInternal("Falha ao carregar categorias", err)
	}
	children := childrenIndex(all)

	// depth of the subtree below category, and its members
	descendants := map[string]int{}
	var walk func(id string, depth int) int
	walk = func(id string, depth int) int {
		deepest := depth
		for _, c := range children[id] {
			descendants[c.ID] = depth + 1
			if d := walk(c.ID, depth+1); d > deepest {
				deepest = d
			}
		}
		return deepest
	}
	height := walk(category.ID, 0)

	level := 0
	if newParentID != "" {
		if _, ok := descendants[newParentID]; ok {
			return 0, nil, common.NewBadRequest("Uma categoria não pode ser movida para dentro de suas subcategorias")
		}
		parent, appErr := s.findParent(newParentID)
		if appErr != nil {
			return 0, nil, appErr
		}
		level = parent.Level + 1
	}
	if level+height > domain.MaxCategoryLevel {
		return 0, nil, common.NewBadRequest("Nível máximo de categorias atingido (3 níveis)")
	}

	levels := make(map[string]int, len(descendants))
	for id, depth := range descendants {
		levels[id] = level + depth
	}
	return level, levels, nil
}

func (s *categoryService) Reorder(ctx context.Context, req *domain.ReorderCategoriesRequest) error {
	if err := s.repo.UpdateDisplayOrders(req.Categories); err != nil {
		return common.NewInternal("Falha ao reordenar categorias", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *categoryService) ToggleLock(ctx context.Context, id string) (*domain.Category, error) {
	category, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}
	if err := s.repo.Update(id, map[string]interface{}{"is_locked": !category.IsLocked}, nil); err != nil {
		return nil, common.NewInternal("Falha ao atualizar categoria", err)
	}
	category.IsLocked = !category.IsLocked
	s.invalidate(ctx)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	if _, appErr := s.find(id); appErr != nil {
		return appErr
	}

	children, err := s.repo.CountChildren(id)
	if err != nil {
		return common.NewInternal("Falha ao verificar subcategorias", err)
	}
	if children > 0 {
		return common.NewBadRequest("Não é possível deletar categoria com subcategorias")
	}

	threads, err := s.repo.CountThreads(id)
	if err != nil {
		return common.NewInternal("Falha ao verificar threads", err)
	}
	if threads > 0 {
		return common.NewBadRequest(fmt.Sprintf("Não é possível deletar categoria com %d thread(s) existente(s)", threads))
	}

	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NewNotFound("Categoria não encontrada")
		}
		return common.NewInternal("Falha ao deletar categoria", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *categoryService) IsLeaf(id string) (bool, error) {
	n, err := s.repo.CountChildren(id)
	if err != nil {
		return false, common.NewInternal("Falha ao verificar subcategorias", err)
	}
	return n == 0, nil
}

// GetTree every root with its children sorted by (display_order, name)
func (s *categoryService) GetTree(ctx context.Context) ([]*domain.CategoryNode, error) {
	if s.cache != nil && s.cache.IsAvailable() {
		var cached []*domain.CategoryNode
		if err := s.cache.GetCategoryTree(ctx, &cached); err == nil {
			return cached, nil
		}
	}

	all, err := s.repo.ListAll()
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar categorias", err)
	}
	tree := BuildCategoryTree(all)

	if s.cache != nil {
		if err := s.cache.SetCategoryTree(ctx, tree); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Msg("failed to cache category tree")
		}
	}
	return tree, nil
}

// BuildCategoryTree assembles a forest from a flat list. Categories whose
// parent is missing are treated as roots.
func BuildCategoryTree(categories []*domain.Category) []*domain.CategoryNode {
	nodes := make(map[string]*domain.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &domain.CategoryNode{Category: *c, Children: []*domain.CategoryNode{}}
	}

	roots := []*domain.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var sortNodes func([]*domain.CategoryNode)
	sortNodes = func(list []*domain.CategoryNode) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].DisplayOrder != list[j].DisplayOrder {
				return list[i].DisplayOrder < list[j].DisplayOrder
			}
			return list[i].Name < list[j].Name
		})
		for _, n := range list {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	return roots
}

func (s *categoryService) GetByID(id string) (*domain.CategoryWithChildren, error) {
	category, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}
	return s.withChildren(category)
}

func (s *categoryService) GetBySlug(slug string) (*domain.CategoryWithChildren, error) {
	category, err := s.repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Categoria não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar categoria", err)
	}
	return s.withChildren(category)
}

func (s *categoryService) withChildren(category *domain.Category) (*domain.CategoryWithChildren, error) {
	children, err := s.repo.ListChildren(category.ID)
	if err != nil {
		return nil, common.NewInternal("Falha ao buscar subcategorias", err)
	}
	if children == nil {
		children = []*domain.Category{}
	}
	return &domain.CategoryWithChildren{Category: *category, Subcategories: children}, nil
}

func (s *categoryService) ListRoots() ([]*domain.Category, error) {
	roots, err := s.repo.ListRoots()
	if err != nil {
		return nil, common.NewInternal("Falha ao listar categorias", err)
	}
	return roots, nil
}

func (s *categoryService) ListAll() ([]*domain.Category, error) {
	all, err := s.repo.ListAll()
	if err != nil {
		return nil, common.NewInternal("Falha ao listar categorias", err)
	}
	return all, nil
}

// Breadcrumbs path from the root down to id
func (s *categoryService) Breadcrumbs(id string) ([]*domain.Category, error) {
	var path []*domain.Category
	seen := map[string]bool{}
	next := id
	for next != "" && !seen[next] {
		seen[next] = true
		category, appErr := s.find(next)
		if appErr != nil {
			if len(path) > 0 && appErr.Kind == common.KindNotFound {
				break
			}
			return nil, appErr
		}
		path = append(path, category)
		next = ""
		if category.ParentID != nil {
			next = *category.ParentID
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (s *categoryService) find(id string) (*domain.Category, *common.AppError) {
	category, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Categoria não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar categoria", err)
	}
	return category, nil
}

func (s *categoryService) findParent(id string) (*domain.Category, *common.AppError) {
	parent, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Categoria pai não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar categoria pai", err)
	}
	return parent, nil
}

func (s *categoryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCategories(ctx); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("failed to invalidate category cache")
	}
}

func childrenIndex(categories []*domain.Category) map[string][]*domain.Category {
	index := make(map[string][]*domain.Category)
	for _, c := range categories {
		if c.ParentID != nil {
			index[*c.ParentID] = append(index[*c.ParentID], c)
		}
	}
	return index
}

func sameParent(current *string, next string) bool {
	if current == nil {
		return next == ""
	}
	return *current == next
}
