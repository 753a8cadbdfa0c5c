package service

import (
	"errors"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"gorm.io/gorm"
)

// LikeToggleResult state after a toggle
type LikeToggleResult struct {
	HasLiked  bool   `json:"hasLiked"`
	LikeCount int64  `json:"likeCount"`
	Message   string `json:"message"`
}

// LikeService thread and post likes
type LikeService interface {
	Toggle(subject domain.LikeSubject, subjectID, userID string) (*LikeToggleResult, error)
	Status(subject domain.LikeSubject, subjectID, userID string) (*domain.LikeStatus, error)
	ListLikers(subject domain.LikeSubject, subjectID string, limit, offset int) (*domain.LikerList, error)
}

type likeService struct {
	repo repository.LikeRepository
}

// NewLikeService creates a new LikeService
func NewLikeService(repo repository.LikeRepository) LikeService {
	return &likeService{repo: repo}
}

// Toggle likes the subject, or removes the like when it already exists
func (s *likeService) Toggle(subject domain.LikeSubject, subjectID, userID string) (*LikeToggleResult, error) {
	liked, err := s.repo.Toggle(subject, subjectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subjectNotFound(subject)
		}
		return nil, common.NewInternal("Falha ao processar like", err)
	}

	status, err := s.repo.Status(subject, subjectID, userID)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar likes", err)
	}

	result := &LikeToggleResult{HasLiked: liked, LikeCount: status.LikeCount, Message: "Like removido"}
	if liked {
		result.Message = "Post curtido"
		if subject == domain.LikeSubjectThread {
			result.Message = "Thread curtida"
		}
	}
	return result, nil
}

func (s *likeService) Status(subject domain.LikeSubject, subjectID, userID string) (*domain.LikeStatus, error) {
	status, err := s.repo.Status(subject, subjectID, userID)
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar likes", err)
	}
	return status, nil
}

func (s *likeService) ListLikers(subject domain.LikeSubject, subjectID string, limit, offset int) (*domain.LikerList, error) {
	limit, offset = domain.ClampPage(limit, offset)
	likers, total, err := s.repo.ListLikers(subject, subjectID, limit, offset)
	if err != nil {
		return nil, common.NewInternal("Falha ao listar likes", err)
	}
	if likers == nil {
		likers = []*domain.Liker{}
	}
	return &domain.LikerList{
		Likes:      likers,
		Pagination: domain.NewPagination(total, limit, offset),
	}, nil
}

func subjectNotFound(subject domain.LikeSubject) *common.AppError {
	if subject == domain.LikeSubjectThread {
		return common.NewNotFound("Thread não encontrada")
	}
	return common.NewNotFound("Post não encontrado")
}
