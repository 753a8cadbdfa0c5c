package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestContentCacheRepository_LookupCountsHits(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentCacheRepository(db)
	now := time.Now()

	require.NoError(t, repo.Upsert(domain.SourceTMDB, "603", "matrix", json.RawMessage(`{"title":"Matrix"}`), 30, now))

	entry, err := repo.Lookup(domain.SourceTMDB, "603", now)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Hits)
	assert.JSONEq(t, `{"title":"Matrix"}`, string(entry.ContentData))

	entry, err = repo.Lookup(domain.SourceTMDB, "603", now)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Hits)

	_, err = repo.Lookup(domain.SourceSteam, "603", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContentCacheRepository_ExpiredRowsMissUntilRenewed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentCacheRepository(db)
	past := time.Now().AddDate(0, 0, -40)
	now := time.Now()

	require.NoError(t, repo.Upsert(domain.SourceSteam, "400", "portal", json.RawMessage(`{"v":1}`), 30, past))

	_, err := repo.Lookup(domain.SourceSteam, "400", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.Count(domain.SourceSteam, now)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.Upsert(domain.SourceSteam, "400", "portal", json.RawMessage(`{"v":2}`), 30, now))

	entry, err := repo.Lookup(domain.SourceSteam, "400", now)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(entry.ContentData))

	var rows int64
	require.NoError(t, db.Model(&domain.ContentCache{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestContentCacheRepository_CleanupAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentCacheRepository(db)
	now := time.Now()

	require.NoError(t, repo.Upsert(domain.SourceTMDB, "old", "", json.RawMessage(`{}`), 1, now.AddDate(0, 0, -5)))
	require.NoError(t, repo.Upsert(domain.SourceTMDB, "new", "", json.RawMessage(`{}`), 30, now))

	removed, err := repo.CleanupExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.Delete(domain.SourceTMDB, "new")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.Delete(domain.SourceTMDB, "new")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestContentCacheRepository_StatsAndMostAccessed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentCacheRepository(db)
	now := time.Now()

	require.NoError(t, repo.Upsert(domain.SourceTMDB, "1", "", json.RawMessage(`{}`), 30, now))
	require.NoError(t, repo.Upsert(domain.SourceTMDB, "2", "", json.RawMessage(`{}`), 30, now))
	require.NoError(t, repo.Upsert(domain.SourceSteam, "3", "", json.RawMessage(`{}`), 30, now))

	for i := 0; i < 3; i++ {
		_, err := repo.Lookup(domain.SourceTMDB, "2", now)
		require.NoError(t, err)
	}
	_, err := repo.Lookup(domain.SourceTMDB, "1", now)
	require.NoError(t, err)

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, domain.SourceSteam, stats[0].Source)
	assert.Equal(t, int64(1), stats[0].TotalEntries)
	assert.Equal(t, domain.SourceTMDB, stats[1].Source)
	assert.Equal(t, int64(2), stats[1].TotalEntries)
	assert.Equal(t, int64(4), stats[1].TotalHits)
	assert.InDelta(t, 2.0, stats[1].AvgHits, 0.001)
	assert.NotNil(t, stats[1].OldestEntry)
	assert.NotNil(t, stats[1].NewestEntry)

	top, err := repo.MostAccessed(2, now)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "2", top[0].ExternalID)
	assert.Equal(t, "1", top[1].ExternalID)
}
