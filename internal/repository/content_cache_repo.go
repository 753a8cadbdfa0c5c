package repository

import (
	"encoding/json"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentCacheRepository time-boxed cache of provider payloads
type ContentCacheRepository interface {
	Lookup(source domain.ContentSource, externalID string, now time.Time) (*domain.ContentCache, error)
	Upsert(source domain.ContentSource, externalID, query string, data json.RawMessage, ttlDays int, now time.Time) error
	Delete(source domain.ContentSource, externalID string) (int64, error)
	CleanupExpired(now time.Time) (int64, error)
	Stats() ([]*domain.CacheSourceStats, error)
	MostAccessed(limit int, now time.Time) ([]*domain.ContentCache, error)
	Count(source domain.ContentSource, now time.Time) (int64, error)
}

type contentCacheRepository struct {
	db *gorm.DB
}

// NewContentCacheRepository creates a new ContentCacheRepository
func NewContentCacheRepository(db *gorm.DB) ContentCacheRepository {
	return &contentCacheRepository{db: db}
}

// Lookup returns only unexpired rows and counts the hit
func (r *contentCacheRepository) Lookup(source domain.ContentSource, externalID string, now time.Time) (*domain.ContentCache, error) {
	var entry domain.ContentCache
	err := r.db.Where("source = ? AND external_id = ? AND expires_at > ?", source, externalID, now).
		First(&entry).Error
	if err != nil {
		return nil, err
	}

	if err := r.db.Model(&domain.ContentCache{}).
		Where("id = ?", entry.ID).
		UpdateColumn("hits", gorm.Expr("hits + 1")).Error; err != nil {
		return nil, err
	}
	entry.Hits++
	return &entry, nil
}

// Upsert inserts or overwrites the row for (source, externalID), renewing
// its expiry; hits are kept
func (r *contentCacheRepository) Upsert(source domain.ContentSource, externalID, query string, data json.RawMessage, ttlDays int, now time.Time) error {
	if ttlDays <= 0 {
		ttlDays = domain.DefaultCacheTTLDays
	}
	entry := &domain.ContentCache{
		Source:      source,
		ExternalID:  externalID,
		SearchQuery: query,
		ContentData: data,
		ExpiresAt:   now.AddDate(0, 0, ttlDays),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"search_query", "content_data", "expires_at", "updated_at"}),
	}).Create(entry).Error
}

func (r *contentCacheRepository) Delete(source domain.ContentSource, externalID string) (int64, error) {
	result := r.db.Where("source = ? AND external_id = ?", source, externalID).Delete(&domain.ContentCache{})
	return result.RowsAffected, result.Error
}

// CleanupExpired deletes rows whose expiry has passed
func (r *contentCacheRepository) CleanupExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&domain.ContentCache{})
	return result.RowsAffected, result.Error
}

// Stats per-source counters over every stored row
func (r *contentCacheRepository) Stats() ([]*domain.CacheSourceStats, error) {
	var stats []*domain.CacheSourceStats
	err := r.db.Model(&domain.ContentCache{}).
		Select("source, COUNT(*) AS total_entries, COALESCE(SUM(hits), 0) AS total_hits, COALESCE(AVG(hits), 0) AS avg_hits").
		Group("source").
		Order("source").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	for _, s := range stats {
		var oldest, newest domain.ContentCache
		if err := r.db.Select("created_at").Where("source = ?", s.Source).Order("created_at ASC").First(&oldest).Error; err != nil {
			return nil, err
		}
		if err := r.db.Select("created_at").Where("source = ?", s.Source).Order("created_at DESC").First(&newest).Error; err != nil {
			return nil, err
		}
		s.OldestEntry = &oldest.CreatedAt
		s.NewestEntry = &newest.CreatedAt
	}
	return stats, nil
}

func (r *contentCacheRepository) MostAccessed(limit int, now time.Time) ([]*domain.ContentCache, error) {
	var entries []*domain.ContentCache
	err := r.db.Where("expires_at > ?", now).Order("hits DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// Count unexpired rows of a source
func (r *contentCacheRepository) Count(source domain.ContentSource, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&domain.ContentCache{}).Where("source = ? AND expires_at > ?", source, now).Count(&count).Error
	return count, err
}
