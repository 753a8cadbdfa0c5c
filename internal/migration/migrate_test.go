package migration

import (
	"testing"

	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRunAndSeed_Idempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Run(db))
	require.NoError(t, Seed(db))
	require.NoError(t, Run(db))
	require.NoError(t, Seed(db))

	var categories []domain.Category
	require.NoError(t, db.Find(&categories).Error)
	assert.Len(t, categories, 9)

	for _, c := range categories {
		if c.ParentID == nil {
			assert.Equal(t, 0, c.Level)
		} else {
			assert.Equal(t, 1, c.Level)
		}
	}

	var setting domain.SystemSetting
	require.NoError(t, db.Where("setting_key = ?", domain.SettingRequireInviteCode).First(&setting).Error)
	assert.Equal(t, "false", setting.Value)

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&domain.Ban{}, activeBanIndex))
}
