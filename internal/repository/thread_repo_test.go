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

func TestThreadRepository_CreateWithContentAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	cat := seedCategory(t, db, "movies", nil)
	author := seedUser(t, db, "uploader", domain.RoleUploader)

	content, err := domain.DecodeThreadContent(domain.TemplateMidia, json.RawMessage(`{
		"nome_conteudo": "Matrix",
		"genero": ["Ação"],
		"sinopse": "Um hacker descobre a verdade.",
		"tamanho": "2 GB",
		"formato": ["MKV"],
		"link_download": "https://example.com/matrix",
		"idiomas": ["Português"]
	}`))
	require.NoError(t, err)

	thread := &domain.Thread{CategoryID: cat.ID, AuthorID: author.ID, Template: domain.TemplateMidia, Title: "Matrix 1999", Slug: "matrix-1999"}
	require.NoError(t, repo.CreateWithContent(thread, content))
	assert.Equal(t, domain.ThreadStatusActive, thread.Status)

	found, err := repo.FindBySlug(cat.ID, "matrix-1999")
	require.NoError(t, err)

	loaded, err := repo.FindContent(found)
	require.NoError(t, err)
	midia, ok := loaded.(*domain.MidiaContent)
	require.True(t, ok)
	assert.Equal(t, "Matrix", midia.NomeConteudo)
	assert.Equal(t, []string{"Ação"}, midia.Genero)
	assert.Equal(t, []string{}, midia.Elenco)
}

func TestThreadRepository_DuplicateSlugRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	cat := seedCategory(t, db, "general", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)
	seedThread(t, db, cat, author, "same")

	content, err := domain.DecodeThreadContent(domain.TemplatePostagem, json.RawMessage(`{"conteudo":"mais um texto aqui"}`))
	require.NoError(t, err)
	err = repo.CreateWithContent(&domain.Thread{CategoryID: cat.ID, AuthorID: author.ID, Template: domain.TemplatePostagem, Title: "Same", Slug: "same"}, content)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var count int64
	require.NoError(t, db.Model(&domain.PostagemContent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	reloaded, err := NewCategoryRepository(db).FindByID(cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ThreadCount)
}

func TestThreadRepository_SlugExistsPerCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	a := seedCategory(t, db, "a", nil)
	b := seedCategory(t, db, "b", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)
	th := seedThread(t, db, a, author, "hello")

	exists, err := repo.SlugExists(a.ID, "hello", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(a.ID, "hello", th.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.SlugExists(b.ID, "hello", "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestThreadRepository_ListPinnedFirstAndFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	cat := seedCategory(t, db, "general", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)

	old := seedThread(t, db, cat, author, "old")
	newer := seedThread(t, db, cat, author, "newer")
	archived := seedThread(t, db, cat, author, "archived")
	require.NoError(t, db.Model(&domain.Thread{}).Where("id = ?", old.ID).Updates(map[string]interface{}{"is_pinned": true, "created_at": time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, db.Model(&domain.Thread{}).Where("id = ?", archived.ID).Update("status", domain.ThreadStatusArchived).Error)

	threads, total, err := repo.List(domain.ThreadFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, threads, 2)
	assert.Equal(t, old.ID, threads[0].ID)
	assert.Equal(t, newer.ID, threads[1].ID)

	pinned := false
	threads, total, err = repo.List(domain.ThreadFilter{CategoryID: cat.ID, IsPinned: &pinned})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, newer.ID, threads[0].ID)

	threads, _, err = repo.List(domain.ThreadFilter{Status: domain.ThreadStatusArchived})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, archived.ID, threads[0].ID)

	require.NoError(t, repo.AttachAuthors(threads))
	require.NotNil(t, threads[0].Author)
	assert.Equal(t, "someone", threads[0].Author.Username)
}

func TestThreadRepository_UpdateAndViews(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	cat := seedCategory(t, db, "general", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)
	th := seedThread(t, db, cat, author, "hello")

	content, err := repo.FindContent(th)
	require.NoError(t, err)
	require.NoError(t, domain.MergeThreadContent(content, json.RawMessage(`{"tags":["go"]}`)))

	require.NoError(t, repo.Update(th.ID, map[string]interface{}{"title": "Renamed", "slug": "renamed"}, content))
	require.NoError(t, repo.IncrementViews(th.ID))
	require.NoError(t, repo.IncrementViews(th.ID))

	reloaded, err := repo.FindByID(th.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", reloaded.Slug)
	assert.Equal(t, 2, reloaded.ViewCount)

	loaded, err := repo.FindContent(reloaded)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, loaded.(*domain.PostagemContent).Tags)
	assert.Equal(t, "conteúdo de teste longo", loaded.(*domain.PostagemContent).Conteudo)
}

func TestThreadRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	posts := NewPostRepository(db)
	likes := NewLikeRepository(db)
	cat := seedCategory(t, db, "general", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)
	replier := seedUser(t, db, "replier", domain.RoleUsuario)
	th := seedThread(t, db, cat, author, "hello")

	p := &domain.Post{ThreadID: th.ID, AuthorID: replier.ID, Content: "hi"}
	require.NoError(t, posts.Create(p))
	_, err := likes.Toggle(domain.LikeSubjectPost, p.ID, author.ID)
	require.NoError(t, err)
	_, err = likes.Toggle(domain.LikeSubjectThread, th.ID, replier.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(th))

	for _, model := range []interface{}{&domain.Thread{}, &domain.PostagemContent{}, &domain.Post{}, &domain.PostLike{}, &domain.ThreadLike{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	reloaded, err := NewCategoryRepository(db).FindByID(cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.ThreadCount)
	assert.Equal(t, 0, reloaded.PostCount)
	assert.Equal(t, 0, reloadProfile(t, db, replier.ID).TotalPosts)

	assert.ErrorIs(t, repo.Delete(th), gorm.ErrRecordNotFound)
}

func TestThreadRepository_SearchTitlesSkipsArchived(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	cat := seedCategory(t, db, "general", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)
	seedThread(t, db, cat, author, "golang")
	archived := seedThread(t, db, cat, author, "golang-old")
	require.NoError(t, db.Model(&domain.Thread{}).Where("id = ?", archived.ID).Update("status", domain.ThreadStatusArchived).Error)

	threads, total, err := repo.SearchTitles("GOLANG", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, threads, 1)
}

func TestThreadRepository_EachBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepository(db)
	cat := seedCategory(t, db, "general", nil)
	author := seedUser(t, db, "someone", domain.RoleUsuario)
	for _, s := range []string{"a", "b", "c"} {
		seedThread(t, db, cat, author, s)
	}

	var seen int
	var batches int
	require.NoError(t, repo.EachBatch(2, func(threads []*domain.Thread) error {
		batches++
		seen += len(threads)
		return nil
	}))
	assert.Equal(t, 3, seen)
	assert.Equal(t, 2, batches)
}
