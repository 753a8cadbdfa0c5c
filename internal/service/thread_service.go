package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/elasticsearch"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"github.com/gtracker/forum-backend/pkg/metrics"
	"github.com/gtracker/forum-backend/pkg/slug"
	"gorm.io/gorm"
)

// maxSlugProbes numbered suffixes tried before giving up on a title
const maxSlugProbes = 1000

const indexTimeout = 5 * time.Second

// ThreadSearchIndex full-text index of threads (implemented by
// elasticsearch.ThreadIndex)
type ThreadSearchIndex interface {
	Index(ctx context.Context, doc elasticsearch.ThreadDocument) error
	IndexAll(ctx context.Context, docs []elasticsearch.ThreadDocument) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, from, size int) ([]string, int64, error)
}

// ThreadService threads and their template content
type ThreadService interface {
	Create(ctx context.Context, authorID string, authorRole domain.Role, req *domain.CreateThreadRequest) (*domain.ThreadWithContent, error)
	Update(ctx context.Context, id, actorID string, actorRole domain.Role, req *domain.UpdateThreadRequest) (*domain.ThreadWithContent, error)
	TogglePin(ctx context.Context, id string) (*domain.Thread, error)
	ToggleLock(ctx context.Context, id string) (*domain.Thread, error)
	Archive(ctx context.Context, id string) (*domain.Thread, error)
	Delete(ctx context.Context, id, actorID string, actorRole domain.Role) error

	GetByID(id string) (*domain.ThreadWithContent, error)
	GetBySlug(categoryID, slug string) (*domain.ThreadWithContent, error)
	List(filter domain.ThreadFilter) (*domain.ThreadList, error)
	Search(ctx context.Context, q string, limit, offset int) (*domain.ThreadList, error)
	Reindex(ctx context.Context) (int, error)
}

type threadService struct {
	repo       repository.ThreadRepository
	categories repository.CategoryRepository
	index      ThreadSearchIndex
	async      func(func())
}

// NewThreadService creates a new ThreadService; index may be nil
func NewThreadService(repo repository.ThreadRepository, categories repository.CategoryRepository, index ThreadSearchIndex) ThreadService {
	return &threadService{
		repo:       repo,
		categories: categories,
		index:      index,
		async:      func(f func()) { go f() },
	}
}

// Create checks the category, the template permission and the content
// before writing the thread and its content row together
func (s *threadService) Create(ctx context.Context, authorID string, authorRole domain.Role, req *domain.CreateThreadRequest) (*domain.ThreadWithContent, error) {
	// 1. Category must exist, be a leaf and be open
	category, err := s.categories.FindByID(req.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Categoria não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar categoria", err)
	}
	children, err := s.categories.CountChildren(category.ID)
	if err != nil {
		return nil, common.NewInternal("Falha ao verificar subcategorias", err)
	}
	if children > 0 {
		return nil, common.NewBadRequest("Threads só podem ser criadas em categorias sem subcategorias")
	}
	if category.IsLocked {
		return nil, common.NewForbidden("Esta categoria está bloqueada para novos threads")
	}

	// 2. Template permission
	if _, ok := domain.ParseTemplate(string(req.Template)); !ok {
		return nil, common.NewBadRequest(fmt.Sprintf("Template inválido: %s", req.Template))
	}
	if !req.Template.CanCreate(authorRole) {
		return nil, common.NewForbidden(fmt.Sprintf(
			"Seu cargo (%s) não tem permissão para criar threads do tipo \"%s\". Cargos permitidos: %s",
			authorRole, req.Template, req.Template.AllowedRolesText()))
	}

	// 3. Content
	content, err := domain.DecodeThreadContent(req.Template, req.Content)
	if err != nil {
		return nil, contentError(err)
	}

	// 4. Slug
	threadSlug, appErr := s.uniqueSlug(category.ID, req.Title, "")
	if appErr != nil {
		return nil, appErr
	}

	// 5. Thread and content in one transaction
	thread := &domain.Thread{
		CategoryID: category.ID,
		AuthorID:   authorID,
		Template:   req.Template,
		Title:      req.Title,
		Slug:       threadSlug,
		Status:     domain.ThreadStatusActive,
	}
	if err := s.repo.CreateWithContent(thread, content); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.NewConflict("Já existe uma thread com este título nesta categoria")
		}
		return nil, common.NewInternal("Falha ao criar thread", err)
	}

	metrics.ThreadsCreated.WithLabelValues(string(thread.Template)).Inc()
	s.indexAsync(thread, content)
	return &domain.ThreadWithContent{Thread: *thread, Content: content}, nil
}

// uniqueSlug probes title, title-1, title-2, ... within the category
func (s *threadService) uniqueSlug(categoryID, title, excludeID string) (string, *common.AppError) {
	base := slug.MakeOrFallback(title)
	candidate := base
	for n := 1; ; n++ {
		exists, err := s.repo.SlugExists(categoryID, candidate, excludeID)
		if err != nil {
			return "", common.NewInternal("Falha ao verificar slug", err)
		}
		if !exists {
			return candidate, nil
		}
		if n > maxSlugProbes {
			return "", common.NewConflict("Não foi possível gerar um slug único para este título")
		}
		candidate = slug.WithSuffix(base, n)
	}
}

func (s *threadService) Update(ctx context.Context, id, actorID string, actorRole domain.Role, req *domain.UpdateThreadRequest) (*domain.ThreadWithContent, error) {
	thread, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}

	if thread.AuthorID != actorID && !domain.IsModerator(actorRole) {
		return nil, common.NewForbidden("Você não tem permissão para editar esta thread")
	}
	if req.Status != nil && !domain.IsModerator(actorRole) {
		return nil, common.NewForbidden("Apenas moderadores podem alterar o status da thread")
	}

	fields := map[string]interface{}{}
	if req.Title != nil && *req.Title != thread.Title {
		threadSlug, appErr := s.uniqueSlug(thread.CategoryID, *req.Title, thread.ID)
		if appErr != nil {
			return nil, appErr
		}
		fields["title"] = *req.Title
		fields["slug"] = threadSlug
	}
	if req.Status != nil {
		if _, ok := domain.ParseThreadStatus(string(*req.Status)); !ok {
			return nil, common.NewBadRequest("Status inválido")
		}
		fields["status"] = *req.Status
	}

	var content domain.ThreadContent
	if len(req.Content) > 0 {
		current, err := s.repo.FindContent(thread)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewInternal("Falha ao carregar conteúdo", err)
		}
		if current == nil {
			if current, err = domain.NewThreadContent(thread.Template); err != nil {
				return nil, common.NewInternal("Template desconhecido", err)
			}
		}
		if err := domain.MergeThreadContent(current, req.Content); err != nil {
			return nil, contentError(err)
		}
		content = current
	}

	if len(fields) > 0 || content != nil {
		if err := s.repo.Update(thread.ID, fields, content); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, common.NewConflict("Já existe uma thread com este título nesta categoria")
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.NewNotFound("Thread não encontrada")
			}
			return nil, common.NewInternal("Falha ao atualizar thread", err)
		}
	}

	updated, err := s.load(thread.ID)
	if err != nil {
		return nil, err
	}
	s.indexAsync(&updated.Thread, updated.Content)
	return updated, nil
}

func (s *threadService) TogglePin(ctx context.Context, id string) (*domain.Thread, error) {
	return s.toggle(id, "is_pinned", func(t *domain.Thread) *bool { return &t.IsPinned })
}

func (s *threadService) ToggleLock(ctx context.Context, id string) (*domain.Thread, error) {
	return s.toggle(id, "is_locked", func(t *domain.Thread) *bool { return &t.IsLocked })
}

func (s *threadService) toggle(id, column string, field func(*domain.Thread) *bool) (*domain.Thread, error) {
	thread, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}
	flag := field(thread)
	if err := s.repo.Update(thread.ID, map[string]interface{}{column: !*flag}, nil); err != nil {
		return nil, common.NewInternal("Falha ao atualizar thread", err)
	}
	*flag = !*flag
	return thread, nil
}

func (s *threadService) Archive(ctx context.Context, id string) (*domain.Thread, error) {
	thread, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}
	if err := s.repo.Update(thread.ID, map[string]interface{}{"status": domain.ThreadStatusArchived}, nil); err != nil {
		return nil, common.NewInternal("Falha ao arquivar thread", err)
	}
	thread.Status = domain.ThreadStatusArchived
	if s.index != nil {
		content, _ := s.repo.FindContent(thread)
		s.indexAsync(thread, content)
	}
	return thread, nil
}

func (s *threadService) Delete(ctx context.Context, id, actorID string, actorRole domain.Role) error {
	thread, appErr := s.find(id)
	if appErr != nil {
		return appErr
	}
	if thread.AuthorID != actorID && !domain.IsModerator(actorRole) {
		return common.NewForbidden("Você não tem permissão para deletar esta thread")
	}
	if err := s.repo.Delete(thread); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NewNotFound("Thread não encontrada")
		}
		return common.NewInternal("Falha ao deletar thread", err)
	}

	if s.index != nil {
		s.async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
			defer cancel()
			if err := s.index.Delete(ctx, thread.ID); err != nil {
				pkglogger.GetLogger().Warn().Err(err).Str("thread_id", thread.ID).Msg("failed to remove thread from search index")
			}
		})
	}
	return nil
}

// GetByID thread plus content; the view counter is bumped in the background
func (s *threadService) GetByID(id string) (*domain.ThreadWithContent, error) {
	result, err := s.load(id)
	if err != nil {
		return nil, err
	}
	s.countView(id)
	return result, nil
}

func (s *threadService) GetBySlug(categoryID, threadSlug string) (*domain.ThreadWithContent, error) {
	thread, err := s.repo.FindBySlug(categoryID, threadSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Thread não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar thread", err)
	}
	result, err := s.withContent(thread)
	if err != nil {
		return nil, err
	}
	s.countView(thread.ID)
	return result, nil
}

func (s *threadService) List(filter domain.ThreadFilter) (*domain.ThreadList, error) {
	filter.Normalize()
	threads, total, err := s.repo.List(filter)
	if err != nil {
		return nil, common.NewInternal("Falha ao listar threads", err)
	}
	return s.page(threads, total, filter.Limit, filter.Offset)
}

// Search uses the search index when configured and falls back to a title
// match when it is absent or failing
func (s *threadService) Search(ctx context.Context, q string, limit, offset int) (*domain.ThreadList, error) {
	limit, offset = domain.ClampPage(limit, offset)

	if s.index != nil {
		ids, total, err := s.index.Search(ctx, q, offset, limit)
		if err == nil {
			threads, err := s.repo.FindByIDs(ids)
			if err != nil {
				return nil, common.NewInternal("Falha ao buscar threads", err)
			}
			return s.page(orderByIDs(threads, ids), total, limit, offset)
		}
		pkglogger.GetLogger().Warn().Err(err).Msg("search index unavailable, falling back to title search")
	}

	threads, total, err := s.repo.SearchTitles(q, limit, offset)
	if err != nil {
		return nil, common.NewInternal("Falha ao buscar threads", err)
	}
	return s.page(threads, total, limit, offset)
}

// Reindex pushes every thread into the search index
func (s *threadService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, errors.New("search index not configured")
	}
	indexed := 0
	err := s.repo.EachBatch(200, func(threads []*domain.Thread) error {
		docs := make([]elasticsearch.ThreadDocument, 0, len(threads))
		for _, t := range threads {
			content, err := s.repo.FindContent(t)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			docs = append(docs, threadDocument(t, content))
		}
		if err := s.index.IndexAll(ctx, docs); err != nil {
			return err
		}
		indexed += len(docs)
		return nil
	})
	return indexed, err
}

func (s *threadService) page(threads []*domain.Thread, total int64, limit, offset int) (*domain.ThreadList, error) {
	if threads == nil {
		threads = []*domain.Thread{}
	}
	if err := s.repo.AttachAuthors(threads); err != nil {
		return nil, common.NewInternal("Falha ao carregar autores", err)
	}
	return &domain.ThreadList{
		Threads:    threads,
		Pagination: domain.NewPagination(total, limit, offset),
	}, nil
}

func (s *threadService) find(id string) (*domain.Thread, *common.AppError) {
	thread, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Thread não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar thread", err)
	}
	return thread, nil
}

func (s *threadService) load(id string) (*domain.ThreadWithContent, error) {
	thread, appErr := s.find(id)
	if appErr != nil {
		return nil, appErr
	}
	return s.withContent(thread)
}

func (s *threadService) withContent(thread *domain.Thread) (*domain.ThreadWithContent, error) {
	content, err := s.repo.FindContent(thread)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewInternal("Falha ao carregar conteúdo", err)
	}
	if err := s.repo.AttachAuthors([]*domain.Thread{thread}); err != nil {
		return nil, common.NewInternal("Falha ao carregar autor", err)
	}
	return &domain.ThreadWithContent{Thread: *thread, Content: content}, nil
}

func (s *threadService) countView(id string) {
	s.async(func() {
		if err := s.repo.IncrementViews(id); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Str("thread_id", id).Msg("failed to increment views")
		}
	})
}

func (s *threadService) indexAsync(thread *domain.Thread, content domain.ThreadContent) {
	if s.index == nil {
		return
	}
	doc := threadDocument(thread, content)
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := s.index.Index(ctx, doc); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Str("thread_id", doc.ID).Msg("failed to index thread")
		}
	})
}

func threadDocument(t *domain.Thread, content domain.ThreadContent) elasticsearch.ThreadDocument {
	doc := elasticsearch.ThreadDocument{
		ID:         t.ID,
		CategoryID: t.CategoryID,
		AuthorID:   t.AuthorID,
		Template:   string(t.Template),
		Title:      t.Title,
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt,
	}
	if content != nil {
		doc.Body = domain.ContentSearchText(content)
	}
	return doc
}

func orderByIDs(threads []*domain.Thread, ids []string) []*domain.Thread {
	byID := make(map[string]*domain.Thread, len(threads))
	for _, t := range threads {
		byID[t.ID] = t
	}
	ordered := make([]*domain.Thread, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

// contentError maps template validation failures to a 400 with field details
func contentError(err error) error {
	var cve *domain.ContentValidationError
	if errors.As(err, &cve) {
		return common.NewValidationError(fmt.Sprintf("Conteúdo inválido para o template %s", cve.Template), cve.Fields)
	}
	return common.NewBadRequest(err.Error())
}
