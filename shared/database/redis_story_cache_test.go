package database

import (
	"context"
	"testing"
	"time"

	"story-organizer/shared/database/memory"
	"story-organizer/shared/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func newTestStory() *models.Story {
	story := &models.Story{ID: models.NewID(), UserID: uuid.New(), Title: "S", Type: models.StoryTypeLinear}
	story.Touch(time.Now().UTC().Truncate(time.Millisecond))
	return story
}

func TestRedisStoryCache(t *testing.T) {
	ctx := context.Background()
	s, client := setupTestCache(t)
	cache := NewRedisStoryCache(client, time.Minute, zap.NewNop())
	story := newTestStory()

	miss, err := cache.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.Set(ctx, story))
	assert.True(t, s.Exists("story:"+story.ID.String()))
	assert.Equal(t, time.Minute, s.TTL("story:"+story.ID.String()))

	hit, err := cache.Get(ctx, story.ID)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, story.UserID, hit.UserID)
	assert.Equal(t, story.Type, hit.Type)

	require.NoError(t, cache.Invalidate(ctx, story.ID))
	miss, err = cache.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	t.Run("Corrupted entry is dropped", func(t *testing.T) {
		require.NoError(t, s.Set("story:"+story.ID.String(), "{broken"))
		got, err := cache.Get(ctx, story.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, s.Exists("story:"+story.ID.String()))
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, story))
		s.FastForward(2 * time.Minute)
		got, err := cache.Get(ctx, story.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCachedStoryStore(t *testing.T) {
	ctx := context.Background()
	s, client := setupTestCache(t)
	backing := memory.NewStores().Stories
	store := NewCachedStoryStore(backing, NewRedisStoryCache(client, time.Minute, zap.NewNop()), zap.NewNop())

	story := newTestStory()
	require.NoError(t, store.Save(ctx, story))

	t.Run("Read fills the cache", func(t *testing.T) {
		got, err := store.FindByID(ctx, story.ID)
		require.NoError(t, err)
		assert.Equal(t, story.ID, got.ID)
		assert.True(t, s.Exists("story:"+story.ID.String()))
	})

	t.Run("Update invalidates", func(t *testing.T) {
		other := uuid.New()
		story.UserID = other
		require.NoError(t, store.Update(ctx, story))
		assert.False(t, s.Exists("story:"+story.ID.String()))

		got, err := store.FindByID(ctx, story.ID)
		require.NoError(t, err)
		assert.Equal(t, other, got.UserID)
	})

	t.Run("Delete invalidates and misses propagate", func(t *testing.T) {
		_, err := store.FindByID(ctx, story.ID)
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, story.ID))
		assert.False(t, s.Exists("story:"+story.ID.String()))

		_, err = store.FindByID(ctx, story.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Redis outage falls back to the store", func(t *testing.T) {
		fresh := newTestStory()
		require.NoError(t, store.Save(ctx, fresh))
		s.Close()

		got, err := store.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, got.ID)
	})
}
