package service

import (
	"testing"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeToggle_ThreadRoundTrip(t *testing.T) {
	f := newPostFixture(t)
	fan := seedUser(t, f.db, "fa", domain.RoleUsuario)

	res, err := f.likes.Toggle(domain.LikeSubjectThread, f.thread.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, res.HasLiked)
	assert.EqualValues(t, 1, res.LikeCount)
	assert.Equal(t, "Thread curtida", res.Message)
	assert.Equal(t, 1, loadProfile(t, f.db, f.author.ID).TotalLikes)

	res, err = f.likes.Toggle(domain.LikeSubjectThread, f.thread.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, res.HasLiked)
	assert.EqualValues(t, 0, res.LikeCount)
	assert.Equal(t, "Like removido", res.Message)
	assert.Equal(t, 0, loadProfile(t, f.db, f.author.ID).TotalLikes)
}

func TestLikeToggle_PostMessage(t *testing.T) {
	f := newPostFixture(t)
	post := f.reply(t, f.author.ID, "Uma resposta", nil)

	res, err := f.likes.Toggle(domain.LikeSubjectPost, post.ID, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Post curtido", res.Message)

	status, err := f.likes.Status(domain.LikeSubjectPost, post.ID, f.author.ID)
	require.NoError(t, err)
	assert.True(t, status.HasLiked)
	assert.EqualValues(t, 1, status.LikeCount)

	anon, err := f.likes.Status(domain.LikeSubjectPost, post.ID, "")
	require.NoError(t, err)
	assert.False(t, anon.HasLiked)
	assert.EqualValues(t, 1, anon.LikeCount)
}

func TestLikeToggle_MissingSubject(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.likes.Toggle(domain.LikeSubjectThread, "00000000-0000-0000-0000-000000000000", f.author.ID)
	assertKind(t, err, common.KindNotFound)
	assert.Contains(t, err.Error(), "Thread não encontrada")

	_, err = f.likes.Toggle(domain.LikeSubjectPost, "00000000-0000-0000-0000-000000000000", f.author.ID)
	assertKind(t, err, common.KindNotFound)
	assert.Contains(t, err.Error(), "Post não encontrado")
}

func TestLikeListLikers(t *testing.T) {
	f := newPostFixture(t)
	for _, name := range []string{"ana", "bia", "caio"} {
		u := seedUser(t, f.db, name, domain.RoleVIP)
		_, err := f.likes.Toggle(domain.LikeSubjectThread, f.thread.ID, u.ID)
		require.NoError(t, err)
	}

	list, err := f.likes.ListLikers(domain.LikeSubjectThread, f.thread.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, list.Likes, 2)
	assert.EqualValues(t, 3, list.Pagination.Total)
	assert.True(t, list.Pagination.HasMore)
	assert.Equal(t, domain.RoleVIP, list.Likes[0].Role)

	empty, err := f.likes.ListLikers(domain.LikeSubjectPost, "00000000-0000-0000-0000-000000000000", 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty.Likes)
	assert.Empty(t, empty.Likes)
}
