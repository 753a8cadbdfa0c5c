package repository

import (
	"errors"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// LikeRepository thread and post likes with their denormalized counters
type LikeRepository interface {
	Toggle(subject domain.LikeSubject, subjectID, userID string) (bool, error)
	Status(subject domain.LikeSubject, subjectID, userID string) (*domain.LikeStatus, error)
	ListLikers(subject domain.LikeSubject, subjectID string, limit, offset int) ([]*domain.Liker, int64, error)
}

type likeTable struct {
	table        string
	subjectCol   string
	subjectTable string
	model        func() interface{}
	newRow       func(subjectID, userID string) interface{}
}

var likeTables = map[domain.LikeSubject]likeTable{
	domain.LikeSubjectThread: {
		table:        "thread_likes",
		subjectCol:   "thread_id",
		subjectTable: "threads",
		model:        func() interface{} { return &domain.ThreadLike{} },
		newRow: func(subjectID, userID string) interface{} {
			return &domain.ThreadLike{ThreadID: subjectID, UserID: userID}
		},
	},
	domain.LikeSubjectPost: {
		table:        "post_likes",
		subjectCol:   "post_id",
		subjectTable: "posts",
		model:        func() interface{} { return &domain.PostLike{} },
		newRow: func(subjectID, userID string) interface{} {
			return &domain.PostLike{PostID: subjectID, UserID: userID}
		},
	},
}

var errUnknownSubject = errors.New("unknown like subject")

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle removes an existing like or adds a new one and returns whether the
// user likes the subject afterwards. When the insert loses a race to a
// concurrent request of the same user the stored state is re-read.
func (r *likeRepository) Toggle(subject domain.LikeSubject, subjectID, userID string) (bool, error) {
	lt, ok := likeTables[subject]
	if !ok {
		return false, errUnknownSubject
	}

	var liked bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var authors []string
		if err := tx.Table(lt.subjectTable).Where("id = ?", subjectID).Pluck("author_id", &authors).Error; err != nil {
			return err
		}
		if len(authors) == 0 {
			return gorm.ErrRecordNotFound
		}
		authorID := authors[0]

		removed := tx.Where(lt.subjectCol+" = ? AND user_id = ?", subjectID, userID).Delete(lt.model())
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			liked = false
			return adjustLikeCounters(tx, lt.subjectTable, subjectID, authorID, -1)
		}

		inserted := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(lt.newRow(subjectID, userID)).Error
		})
		if errors.Is(inserted, gorm.ErrDuplicatedKey) {
			// a concurrent request of the same user inserted first; its
			// transaction owns the counters
			var n int64
			if err := tx.Table(lt.table).Where(lt.subjectCol+" = ? AND user_id = ?", subjectID, userID).Count(&n).Error; err != nil {
				return err
			}
			liked = n > 0
			return nil
		}
		if inserted != nil {
			return inserted
		}
		liked = true
		return adjustLikeCounters(tx, lt.subjectTable, subjectID, authorID, 1)
	})
	return liked, err
}

func adjustLikeCounters(tx *gorm.DB, subjectTable, subjectID, authorID string, delta int) error {
	likeExpr, totalExpr := gorm.Expr("like_count + 1"), gorm.Expr("total_likes + 1")
	if delta < 0 {
		likeExpr, totalExpr = decrementExpr("like_count", 1), decrementExpr("total_likes", 1)
	}
	if err := tx.Table(subjectTable).Where("id = ?", subjectID).UpdateColumn("like_count", likeExpr).Error; err != nil {
		return err
	}
	return tx.Model(&domain.Profile{}).Where("user_id = ?", authorID).UpdateColumn("total_likes", totalExpr).Error
}

// Status counts like rows; userID may be empty for anonymous viewers
func (r *likeRepository) Status(subject domain.LikeSubject, subjectID, userID string) (*domain.LikeStatus, error) {
	lt, ok := likeTables[subject]
	if !ok {
		return nil, errUnknownSubject
	}

	status := &domain.LikeStatus{}
	if err := r.db.Table(lt.table).Where(lt.subjectCol+" = ?", subjectID).Count(&status.LikeCount).Error; err != nil {
		return nil, err
	}
	if userID != "" {
		var mine int64
		if err := r.db.Table(lt.table).Where(lt.subjectCol+" = ? AND user_id = ?", subjectID, userID).Count(&mine).Error; err != nil {
			return nil, err
		}
		status.HasLiked = mine > 0
	}
	return status, nil
}

type likerRow struct {
	UserID    string
	Username  string
	AvatarURL string
	Role      string
	CreatedAt time.Time
}

// ListLikers newest likes first
func (r *likeRepository) ListLikers(subject domain.LikeSubject, subjectID string, limit, offset int) ([]*domain.Liker, int64, error) {
	lt, ok := likeTables[subject]
	if !ok {
		return nil, 0, errUnknownSubject
	}

	var total int64
	if err := r.db.Table(lt.table).Where(lt.subjectCol+" = ?", subjectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []likerRow
	err := r.db.Table(lt.table).
		Select(lt.table+".user_id, users.username, profiles.avatar_url, profiles.role, "+lt.table+".created_at").
		Joins("JOIN users ON users.id = "+lt.table+".user_id").
		Joins("JOIN profiles ON profiles.user_id = "+lt.table+".user_id").
		Where(lt.table+"."+lt.subjectCol+" = ?", subjectID).
		Order(lt.table + ".created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	likers := make([]*domain.Liker, len(rows))
	for i, row := range rows {
		likers[i] = &domain.Liker{
			UserID:    row.UserID,
			Username:  row.Username,
			AvatarURL: row.AvatarURL,
			Role:      domain.Role(row.Role),
			CreatedAt: row.CreatedAt,
		}
	}
	return likers, total, nil
}
