package service

import (
	"errors"
	"time"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/metrics"
	"gorm.io/gorm"
)

// PostService replies inside threads
type PostService interface {
	Create(authorID string, req *domain.CreatePostRequest) (*domain.Post, error)
	Update(id, actorID string, actorRole domain.Role, req *domain.UpdatePostRequest) (*domain.Post, error)
	Delete(id, actorID string, actorRole domain.Role) error

	GetByID(id, viewerID string) (*domain.Post, error)
	List(filter domain.PostFilter, viewerID string) (*domain.PostList, error)
	GetReplies(id string, limit, offset int, viewerID string) (*domain.ReplyList, error)
}

type postService struct {
	repo    repository.PostRepository
	threads repository.ThreadRepository
	now     func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(repo repository.PostRepository, threads repository.ThreadRepository) PostService {
	return &postService{repo: repo, threads: threads, now: time.Now}
}

func (s *postService) Create(authorID string, req *domain.CreatePostRequest) (*domain.Post, error) {
	thread, err := s.threads.FindByID(req.ThreadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Thread não encontrada")
		}
		return nil, common.NewInternal("Falha ao buscar thread", err)
	}
	if thread.IsLocked || thread.Status == domain.ThreadStatusLocked {
		return nil, common.NewForbidden("Esta thread está bloqueada para novas respostas")
	}

	var parentID *string
	if req.ParentPostID != nil && *req.ParentPostID != "" {
		parent, appErr := s.find(*req.ParentPostID, "Post pai não encontrado")
		if appErr != nil {
			return nil, appErr
		}
		if parent.ThreadID != thread.ID {
			return nil, common.NewBadRequest("Post pai não pertence a esta thread")
		}
		parentID = &parent.ID
	}

	post := &domain.Post{
		ThreadID:     thread.ID,
		AuthorID:     authorID,
		ParentPostID: parentID,
		Content:      req.Content,
	}
	if err := s.repo.Create(post); err != nil {
		return nil, common.NewInternal("Falha ao criar post", err)
	}
	metrics.PostsCreated.Inc()

	if err := s.repo.AttachAuthors([]*domain.Post{post}); err != nil {
		return nil, common.NewInternal("Falha ao carregar autor", err)
	}
	return post, nil
}

func (s *postService) Update(id, actorID string, actorRole domain.Role, req *domain.UpdatePostRequest) (*domain.Post, error) {
	post, appErr := s.find(id, "Post não encontrado")
	if appErr != nil {
		return nil, appErr
	}
	if post.AuthorID != actorID && !domain.IsModerator(actorRole) {
		return nil, common.NewForbidden("Você não tem permissão para editar este post")
	}

	updated, err := s.repo.UpdateContent(post.ID, req.Content, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("Post não encontrado")
		}
		return nil, common.NewInternal("Falha ao atualizar post", err)
	}
	if err := s.repo.AttachAuthors([]*domain.Post{updated}); err != nil {
		return nil, common.NewInternal("Falha ao carregar autor", err)
	}
	return updated, nil
}

// Delete removes the post and every reply below it
func (s *postService) Delete(id, actorID string, actorRole domain.Role) error {
	post, appErr := s.find(id, "Post não encontrado")
	if appErr != nil {
		return appErr
	}
	if post.AuthorID != actorID && !domain.IsModerator(actorRole) {
		return common.NewForbidden("Você não tem permissão para deletar este post")
	}
	if _, err := s.repo.DeleteTree(post); err != nil {
		return common.NewInternal("Falha ao deletar post", err)
	}
	return nil
}

func (s *postService) GetByID(id, viewerID string) (*domain.Post, error) {
	post, appErr := s.find(id, "Post não encontrado")
	if appErr != nil {
		return nil, appErr
	}
	if err := s.decorate([]*domain.Post{post}, viewerID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) List(filter domain.PostFilter, viewerID string) (*domain.PostList, error) {
	filter.Normalize()
	posts, total, err := s.repo.List(filter)
	if err != nil {
		return nil, common.NewInternal("Falha ao listar posts", err)
	}
	if posts == nil {
		posts = []*domain.Post{}
	}
	if err := s.decorate(posts, viewerID); err != nil {
		return nil, err
	}
	return &domain.PostList{
		Posts:      posts,
		Pagination: domain.NewPagination(total, filter.Limit, filter.Offset),
	}, nil
}

// GetReplies direct replies of a post, oldest first
func (s *postService) GetReplies(id string, limit, offset int, viewerID string) (*domain.ReplyList, error) {
	parent, appErr := s.find(id, "Post não encontrado")
	if appErr != nil {
		return nil, appErr
	}
	list, err := s.List(domain.PostFilter{
		ThreadID:     parent.ThreadID,
		ParentPostID: parent.ID,
		Limit:        limit,
		Offset:       offset,
	}, viewerID)
	if err != nil {
		return nil, err
	}
	return &domain.ReplyList{Replies: list.Posts, Pagination: list.Pagination}, nil
}

func (s *postService) decorate(posts []*domain.Post, viewerID string) error {
	if err := s.repo.AttachAuthors(posts); err != nil {
		return common.NewInternal("Falha ao carregar autores", err)
	}
	if err := s.repo.MarkLiked(posts, viewerID); err != nil {
		return common.NewInternal("Falha ao carregar curtidas", err)
	}
	return nil
}

func (s *postService) find(id, notFound string) (*domain.Post, *common.AppError) {
	post, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound(notFound)
		}
		return nil, common.NewInternal("Falha ao buscar post", err)
	}
	return post, nil
}
