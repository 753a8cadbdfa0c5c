package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ContentSource external catalog a cache row came from
type ContentSource string

const (
	SourceTMDB  ContentSource = "tmdb"
	SourceSteam ContentSource = "steam"
)

// DefaultCacheTTLDays lifetime of a cache row
const DefaultCacheTTLDays = 30

// ParseContentSource validates a raw source name
func ParseContentSource(s string) (ContentSource, bool) {
	switch src := ContentSource(s); src {
	case SourceTMDB, SourceSteam:
		return src, true
	}
	return "", false
}

// ContentCache cached provider payload; expired rows linger until cleanup
type ContentCache struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Source      ContentSource   `gorm:"column:source;type:varchar(10);uniqueIndex:idx_content_cache_source_external,priority:1" json:"source"`
	ExternalID  string          `gorm:"column:external_id;type:varchar(50);uniqueIndex:idx_content_cache_source_external,priority:2" json:"external_id"`
	SearchQuery string          `gorm:"column:search_query;type:varchar(255)" json:"search_query"`
	ContentData json.RawMessage `gorm:"column:content_data;type:text" json:"content_data"`
	Hits        int             `gorm:"column:hits;default:0" json:"hits"`
	ExpiresAt   time.Time       `gorm:"column:expires_at;index" json:"expires_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ContentCache) TableName() string { return "content_cache" }

func (c *ContentCache) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CacheSourceStats aggregate counters per source
type CacheSourceStats struct {
	Source       ContentSource `json:"source"`
	TotalEntries int64         `json:"total_entries"`
	TotalHits    int64         `json:"total_hits"`
	AvgHits      float64       `json:"avg_hits"`
	OldestEntry  *time.Time    `json:"oldest_entry"`
	NewestEntry  *time.Time    `json:"newest_entry"`
}
