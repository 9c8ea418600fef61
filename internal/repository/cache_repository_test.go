package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

type cachedSummary struct {
	TotalCases int `json:"totalCases"`
}

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client), srv
}

func TestCacheRepositorySetGetExpire(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "dash:user:u1", cachedSummary{TotalCases: 4}, time.Minute))

	var got cachedSummary
	require.NoError(t, repo.Get(ctx, "dash:user:u1", &got))
	assert.Equal(t, 4, got.TotalCases)

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "dash:user:u1", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "dash:user:u1", cachedSummary{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "dash:user:u2", cachedSummary{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "other:key", cachedSummary{}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "dash:user:u1*"))
	assert.False(t, srv.Exists("dash:user:u1"))
	assert.True(t, srv.Exists("dash:user:u2"))
	assert.True(t, srv.Exists("other:key"))

	require.NoError(t, repo.DeleteByPattern(ctx, "nothing:*"))
}

func TestCacheRepositoryDisabled(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()
	var got cachedSummary

	assert.False(t, repo.Enabled())
	assert.NoError(t, repo.Set(ctx, "k", got, time.Minute))
	assert.ErrorIs(t, repo.Get(ctx, "k", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Close())
}
