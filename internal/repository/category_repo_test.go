package repository

import (
	"testing"

	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoryRepository_SlugExistsExcludesSelf(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	c := seedCategory(t, db, "games", nil)

	exists, err := repo.SlugExists("games", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists("games", c.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCategoryRepository_CountsAndChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	root := seedCategory(t, db, "root", nil)
	leaf := seedCategory(t, db, "leaf", root)
	seedCategory(t, db, "another", root)
	author := seedUser(t, db, "author", domain.RoleUsuario)
	seedThread(t, db, leaf, author, "hello")

	children, err := repo.CountChildren(root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), children)

	threads, err := repo.CountThreads(leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), threads)

	list, err := repo.ListChildren(root.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "another", list[0].Slug)

	roots, err := repo.ListRoots()
	require.NoError(t, err)
	assert.Len(t, roots, 1)

	reloaded, err := repo.FindByID(leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ThreadCount)
}

func TestCategoryRepository_UpdateMovesSubtreeLevels(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	a := seedCategory(t, db, "a", nil)
	b := seedCategory(t, db, "b", nil)
	child := seedCategory(t, db, "b-child", b)

	err := repo.Update(b.ID, map[string]interface{}{"parent_id": a.ID, "level": 1}, map[string]int{child.ID: 2})
	require.NoError(t, err)

	moved, err := repo.FindByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Level)
	assert.Equal(t, a.ID, *moved.ParentID)

	c, err := repo.FindByID(child.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Level)

	err = repo.Update("missing", map[string]interface{}{"name": "x"}, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRepository_ReorderAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	a := seedCategory(t, db, "a", nil)
	b := seedCategory(t, db, "b", nil)

	require.NoError(t, repo.UpdateDisplayOrders([]domain.CategoryOrder{{ID: a.ID, DisplayOrder: 2}, {ID: b.ID, DisplayOrder: 1}}))

	all, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Slug)

	require.NoError(t, repo.Delete(a.ID))
	assert.ErrorIs(t, repo.Delete(a.ID), gorm.ErrRecordNotFound)
}
