package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const validMidia = `{"nome_conteudo":"Matrix","genero":["Ação"],"sinopse":"Um hacker descobre a verdade.","tamanho":"2 GB","formato":["MKV"],"link_download":"https://example.com/m","idiomas":["PT"]}`

// --- Mock ThreadSearchIndex ---

type mockSearchIndex struct {
	mock.Mock
}

func (m *mockSearchIndex) Index(ctx context.Context, doc elasticsearch.ThreadDocument) error {
	return m.Called(doc).Error(0)
}

func (m *mockSearchIndex) IndexAll(ctx context.Context, docs []elasticsearch.ThreadDocument) error {
	return m.Called(docs).Error(0)
}

func (m *mockSearchIndex) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *mockSearchIndex) Search(ctx context.Context, q string, from, size int) ([]string, int64, error) {
	args := m.Called(q, from, size)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]string), args.Get(1).(int64), args.Error(2)
}

type threadFixture struct {
	db       *gorm.DB
	svc      ThreadService
	category *domain.Category
	author   *domain.User
}

func newThreadFixture(t *testing.T, index ThreadSearchIndex) *threadFixture {
	db := setupTestDB(t)
	var svc ThreadService
	if index == nil {
		svc = NewThreadService(repository.NewThreadRepository(db), repository.NewCategoryRepository(db), nil)
	} else {
		svc = NewThreadService(repository.NewThreadRepository(db), repository.NewCategoryRepository(db), index)
	}
	svc.(*threadService).async = func(f func()) { f() }

	root := seedCategory(t, db, "downloads", nil)
	return &threadFixture{
		db:       db,
		svc:      svc,
		category: seedCategory(t, db, "filmes", root),
		author:   seedUser(t, db, "uploader1", domain.RoleUploader),
	}
}

func (f *threadFixture) create(t *testing.T, title string) *domain.ThreadWithContent {
	t.Helper()
	thread, err := f.svc.Create(context.Background(), f.author.ID, domain.RoleUploader, &domain.CreateThreadRequest{
		CategoryID: f.category.ID,
		Template:   domain.TemplateMidia,
		Title:      title,
		Content:    rawJSON(validMidia),
	})
	require.NoError(t, err)
	return thread
}

func TestThreadCreate_Success(t *testing.T) {
	f := newThreadFixture(t, nil)

	thread := f.create(t, "Matrix (1999) Dublado")
	assert.Equal(t, "matrix-1999-dublado", thread.Slug)
	assert.Equal(t, domain.ThreadStatusActive, thread.Status)
	require.NotNil(t, thread.Content)
	assert.Equal(t, domain.TemplateMidia, thread.Content.Template())

	var category domain.Category
	require.NoError(t, f.db.First(&category, "id = ?", f.category.ID).Error)
	assert.Equal(t, 1, category.ThreadCount)
}

func TestThreadCreate_SlugCollisionsGetSuffixes(t *testing.T) {
	f := newThreadFixture(t, nil)

	assert.Equal(t, "ola-mundo", f.create(t, "Olá Mundo").Slug)
	assert.Equal(t, "ola-mundo-1", f.create(t, "Olá, mundo!").Slug)
	assert.Equal(t, "ola-mundo-2", f.create(t, "OLÁ MUNDO").Slug)

	// other categories keep their own namespace
	other := seedCategory(t, f.db, "series", nil)
	thread, err := f.svc.Create(context.Background(), f.author.ID, domain.RoleUploader, &domain.CreateThreadRequest{
		CategoryID: other.ID,
		Template:   domain.TemplateMidia,
		Title:      "Olá Mundo",
		Content:    rawJSON(validMidia),
	})
	require.NoError(t, err)
	assert.Equal(t, "ola-mundo", thread.Slug)
}

func TestThreadCreate_EmptySlugFallsBack(t *testing.T) {
	f := newThreadFixture(t, nil)
	assert.Equal(t, "thread", f.create(t, "!!!!!").Slug)
}

func TestThreadCreate_CategoryChecks(t *testing.T) {
	f := newThreadFixture(t, nil)
	ctx := context.Background()
	req := func(categoryID string) *domain.CreateThreadRequest {
		return &domain.CreateThreadRequest{
			CategoryID: categoryID,
			Template:   domain.TemplatePostagem,
			Title:      "Uma postagem",
			Content:    rawJSON(`{"conteudo":"Olá a todos do fórum!"}`),
		}
	}

	_, err := f.svc.Create(ctx, f.author.ID, domain.RoleUploader, req("00000000-0000-0000-0000-000000000000"))
	assertKind(t, err, common.KindNotFound)

	// "downloads" has a child, so it is not a leaf
	var parent domain.Category
	require.NoError(t, f.db.First(&parent, "slug = ?", "downloads").Error)
	_, err = f.svc.Create(ctx, f.author.ID, domain.RoleUploader, req(parent.ID))
	assertKind(t, err, common.KindBadRequest)

	require.NoError(t, f.db.Model(&domain.Category{}).Where("id = ?", f.category.ID).Update("is_locked", true).Error)
	_, err = f.svc.Create(ctx, f.author.ID, domain.RoleUploader, req(f.category.ID))
	assertKind(t, err, common.KindForbidden)
}

func TestThreadCreate_TemplatePermission(t *testing.T) {
	f := newThreadFixture(t, nil)
	user := seedUser(t, f.db, "comum", domain.RoleUsuario)

	_, err := f.svc.Create(context.Background(), user.ID, domain.RoleUsuario, &domain.CreateThreadRequest{
		CategoryID: f.category.ID,
		Template:   domain.TemplateMidia,
		Title:      "Filme novo",
		Content:    rawJSON(validMidia),
	})
	assertKind(t, err, common.KindForbidden)
	assert.Contains(t, err.Error(), "uploader, suporte, moderador, admin, master")

	var count int64
	require.NoError(t, f.db.Model(&domain.Thread{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestThreadCreate_InvalidContentHasFieldDetails(t *testing.T) {
	f := newThreadFixture(t, nil)

	_, err := f.svc.Create(context.Background(), f.author.ID, domain.RoleUploader, &domain.CreateThreadRequest{
		CategoryID: f.category.ID,
		Template:   domain.TemplateMidia,
		Title:      "Filme sem dados",
		Content:    rawJSON(`{"nome_conteudo":"X"}`),
	})
	assertKind(t, err, common.KindBadRequest)

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.NotNil(t, appErr.Details)
	assert.Contains(t, appErr.Message, "midia")
}

func TestThreadUpdate_Permissions(t *testing.T) {
	f := newThreadFixture(t, nil)
	thread := f.create(t, "Matrix Reloaded")
	stranger := seedUser(t, f.db, "estranho", domain.RoleUsuario)
	ctx := context.Background()
	title := "Matrix Revolutions"

	_, err := f.svc.Update(ctx, thread.ID, stranger.ID, domain.RoleUsuario, &domain.UpdateThreadRequest{Title: &title})
	assertKind(t, err, common.KindForbidden)

	status := domain.ThreadStatusArchived
	_, err = f.svc.Update(ctx, thread.ID, f.author.ID, domain.RoleUploader, &domain.UpdateThreadRequest{Status: &status})
	assertKind(t, err, common.KindForbidden)

	updated, err := f.svc.Update(ctx, thread.ID, f.author.ID, domain.RoleUploader, &domain.UpdateThreadRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "matrix-revolutions", updated.Slug)

	updated, err = f.svc.Update(ctx, thread.ID, stranger.ID, domain.RoleModerador, &domain.UpdateThreadRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadStatusArchived, updated.Status)
}

func TestThreadUpdate_RetitleSlug(t *testing.T) {
	f := newThreadFixture(t, nil)
	ctx := context.Background()
	thread := f.create(t, "Hello World!")
	require.Equal(t, "hello-world", thread.Slug)

	// the thread's own slug does not count as a collision
	title := "Hello, World"
	updated, err := f.svc.Update(ctx, thread.ID, f.author.ID, domain.RoleUploader, &domain.UpdateThreadRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World", updated.Title)
	assert.Equal(t, "hello-world", updated.Slug)

	sibling := f.create(t, "Outra thread")
	require.Equal(t, "outra-thread", sibling.Slug)

	title = "hello world"
	updated, err = f.svc.Update(ctx, sibling.ID, f.author.ID, domain.RoleUploader, &domain.UpdateThreadRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", updated.Slug)
}

func TestThreadUpdate_ContentMergesOverStoredFields(t *testing.T) {
	f := newThreadFixture(t, nil)
	thread := f.create(t, "Matrix")

	updated, err := f.svc.Update(context.Background(), thread.ID, f.author.ID, domain.RoleUploader, &domain.UpdateThreadRequest{
		Content: rawJSON(`{"sinopse":"Neo aprende a verdade sobre a Matrix."}`),
	})
	require.NoError(t, err)

	text := domain.ContentSearchText(updated.Content)
	assert.Contains(t, text, "Matrix")
	assert.Contains(t, text, "Neo aprende")

	_, err = f.svc.Update(context.Background(), thread.ID, f.author.ID, domain.RoleUploader, &domain.UpdateThreadRequest{
		Content: rawJSON(`{"link_download":"sem-url"}`),
	})
	assertKind(t, err, common.KindBadRequest)
}

func TestThreadModeration_Toggles(t *testing.T) {
	f := newThreadFixture(t, nil)
	thread := f.create(t, "Fixado")
	ctx := context.Background()

	pinned, err := f.svc.TogglePin(ctx, thread.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	pinned, err = f.svc.TogglePin(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, pinned.IsPinned)

	locked, err := f.svc.ToggleLock(ctx, thread.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)

	archived, err := f.svc.Archive(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadStatusArchived, archived.Status)

	_, err = f.svc.TogglePin(ctx, "00000000-0000-0000-0000-000000000000")
	assertKind(t, err, common.KindNotFound)
}

func TestThreadDelete_AuthorOrModerator(t *testing.T) {
	f := newThreadFixture(t, nil)
	ctx := context.Background()
	first := f.create(t, "Primeira")
	second := f.create(t, "Segunda")
	stranger := seedUser(t, f.db, "estranho", domain.RoleVIP)

	assertKind(t, f.svc.Delete(ctx, first.ID, stranger.ID, domain.RoleVIP), common.KindForbidden)
	require.NoError(t, f.svc.Delete(ctx, first.ID, f.author.ID, domain.RoleUploader))
	require.NoError(t, f.svc.Delete(ctx, second.ID, stranger.ID, domain.RoleModerador))

	_, err := f.svc.GetByID(first.ID)
	assertKind(t, err, common.KindNotFound)
}

func TestThreadGet_CountsViews(t *testing.T) {
	f := newThreadFixture(t, nil)
	created := f.create(t, "Visto")

	_, err := f.svc.GetByID(created.ID)
	require.NoError(t, err)
	got, err := f.svc.GetBySlug(f.category.ID, created.Slug)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "uploader1", got.Author.Username)

	var thread domain.Thread
	require.NoError(t, f.db.First(&thread, "id = ?", created.ID).Error)
	assert.Equal(t, 2, thread.ViewCount)
}

func TestThreadIndexing(t *testing.T) {
	index := new(mockSearchIndex)
	index.On("Index", mock.MatchedBy(func(doc elasticsearch.ThreadDocument) bool {
		return doc.Title == "Matrix" && doc.Template == "midia"
	})).Return(nil).Once()
	f := newThreadFixture(t, index)

	thread := f.create(t, "Matrix")

	index.On("Delete", thread.ID).Return(nil).Once()
	require.NoError(t, f.svc.Delete(context.Background(), thread.ID, f.author.ID, domain.RoleUploader))
	index.AssertExpectations(t)
}

func TestThreadSearch_UsesIndexOrder(t *testing.T) {
	index := new(mockSearchIndex)
	index.On("Index", mock.Anything).Return(nil)
	f := newThreadFixture(t, index)
	a := f.create(t, "Alpha")
	b := f.create(t, "Beta")

	index.On("Search", "filme", 0, 10).Return([]string{b.ID, a.ID}, int64(2), nil).Once()
	list, err := f.svc.Search(context.Background(), "filme", 10, 0)
	require.NoError(t, err)
	require.Len(t, list.Threads, 2)
	assert.Equal(t, b.ID, list.Threads[0].ID)
	assert.Equal(t, a.ID, list.Threads[1].ID)
	assert.Equal(t, int64(2), list.Pagination.Total)
}

func TestThreadSearch_FallsBackToTitles(t *testing.T) {
	index := new(mockSearchIndex)
	index.On("Index", mock.Anything).Return(nil)
	index.On("Search", "alp", 0, 10).Return(nil, int64(0), errors.New("connection refused"))
	f := newThreadFixture(t, index)
	f.create(t, "Alpha")
	f.create(t, "Beta")

	list, err := f.svc.Search(context.Background(), "alp", 10, 0)
	require.NoError(t, err)
	require.Len(t, list.Threads, 1)
	assert.Equal(t, "Alpha", list.Threads[0].Title)
}

func TestThreadReindex(t *testing.T) {
	f := newThreadFixture(t, nil)
	f.create(t, "Um")
	f.create(t, "Dois")

	_, err := f.svc.Reindex(context.Background())
	assert.Error(t, err)

	index := new(mockSearchIndex)
	index.On("IndexAll", mock.MatchedBy(func(docs []elasticsearch.ThreadDocument) bool {
		return len(docs) == 2 && docs[0].Body != ""
	})).Return(nil).Once()
	svc := NewThreadService(repository.NewThreadRepository(f.db), repository.NewCategoryRepository(f.db), index)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	index.AssertExpectations(t)
}
