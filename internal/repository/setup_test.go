package repository

import (
	"encoding/json"
	"testing"

	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/migration"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Run(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Name: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&domain.Profile{UserID: user.ID, Role: role, AvatarURL: "https://cdn/" + username + ".png"}).Error)
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, slug string, parent *domain.Category) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: slug, Slug: slug}
	if parent != nil {
		c.ParentID = &parent.ID
		c.Level = parent.Level + 1
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedThread(t *testing.T, db *gorm.DB, category *domain.Category, author *domain.User, slug string) *domain.Thread {
	t.Helper()
	content, err := domain.DecodeThreadContent(domain.TemplatePostagem, json.RawMessage(`{"conteudo":"conteúdo de teste longo"}`))
	require.NoError(t, err)

	thread := &domain.Thread{
		CategoryID: category.ID,
		AuthorID:   author.ID,
		Template:   domain.TemplatePostagem,
		Title:      "Thread " + slug,
		Slug:       slug,
	}
	require.NoError(t, NewThreadRepository(db).CreateWithContent(thread, content))
	return thread
}

func reloadProfile(t *testing.T, db *gorm.DB, userID string) *domain.Profile {
	t.Helper()
	var p domain.Profile
	require.NoError(t, db.Where("user_id = ?", userID).First(&p).Error)
	return &p
}
