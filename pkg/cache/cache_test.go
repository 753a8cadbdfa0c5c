package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client), mr
}

func TestCategoryTree_SetGetInvalidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tree := []map[string]string{{"slug": "filmes"}}
	require.NoError(t, svc.SetCategoryTree(ctx, tree))

	var got []map[string]string
	require.NoError(t, svc.GetCategoryTree(ctx, &got))
	assert.Equal(t, tree, got)

	require.NoError(t, svc.InvalidateCategories(ctx))
	assert.ErrorIs(t, svc.GetCategoryTree(ctx, &got), redis.Nil)
}

func TestBlacklist_ExpiresWithToken(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RevokeToken(ctx, "tok", time.Now().Add(time.Minute)))

	listed, err := svc.IsTokenRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, listed)

	mr.FastForward(2 * time.Minute)

	listed, err = svc.IsTokenRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestBlacklist_AlreadyExpiredIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RevokeToken(ctx, "old", time.Now().Add(-time.Minute)))
	listed, err := svc.IsTokenRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestNilClient(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	assert.False(t, svc.IsAvailable())
	assert.NoError(t, svc.SetCategoryTree(ctx, "x"))
	assert.NoError(t, svc.InvalidateCategories(ctx))

	var dest string
	assert.ErrorIs(t, svc.GetCategoryTree(ctx, &dest), ErrUnavailable)

	_, err := svc.IsTokenRevoked(ctx, "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestInvalidateCategories_OnlyCategoryKeys(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetCategoryTree(ctx, []string{"jogos"}))
	require.NoError(t, mr.Set("forum:categories:roots", "[]"))
	require.NoError(t, svc.RevokeToken(ctx, "tok", time.Now().Add(time.Hour)))

	require.NoError(t, svc.InvalidateCategories(ctx))
	assert.False(t, mr.Exists("forum:categories:tree"))
	assert.False(t, mr.Exists("forum:categories:roots"))
	assert.True(t, mr.Exists("forum:revoked:tok"))
	assert.NoError(t, svc.Ping(ctx))
}
