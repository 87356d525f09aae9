package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const storyCacheKeyPrefix = "story:"

var _ interfaces.StoryCache = (*redisStoryCache)(nil)

type redisStoryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStoryCache creates a Redis-backed cache of story records.
func NewRedisStoryCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.StoryCache {
	return &redisStoryCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisStoryCache"),
	}
}

func storyCacheKey(id uuid.UUID) string {
	return storyCacheKeyPrefix + id.String()
}

func (c *redisStoryCache) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	data, err := c.client.Get(ctx, storyCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get story %s: %w", id, err)
	}
	var story models.Story
	if err := json.Unmarshal(data, &story); err != nil {
		// Битая запись: удаляем и считаем промахом
		c.logger.Warn("Corrupted story cache entry, dropping", zap.Stringer("storyID", id), zap.Error(err))
		_ = c.client.Del(ctx, storyCacheKey(id)).Err()
		return nil, nil
	}
	return &story, nil
}

func (c *redisStoryCache) Set(ctx context.Context, story *models.Story) error {
	data, err := json.Marshal(story)
	if err != nil {
		return fmt.Errorf("marshal story %s: %w", story.ID, err)
	}
	if err := c.client.Set(ctx, storyCacheKey(story.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set story %s: %w", story.ID, err)
	}
	return nil
}

func (c *redisStoryCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, storyCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del story %s: %w", id, err)
	}
	return nil
}

// cachedStoryStore читает истории через кэш; любые изменения сбрасывают запись.
// Ошибки кэша не фатальны: запрос уходит в хранилище.
type cachedStoryStore struct {
	interfaces.StoryStore
	cache  interfaces.StoryCache
	logger *zap.Logger
}

// NewCachedStoryStore оборачивает хранилище историй кэшем.
func NewCachedStoryStore(store interfaces.StoryStore, cache interfaces.StoryCache, logger *zap.Logger) interfaces.StoryStore {
	return &cachedStoryStore{
		StoryStore: store,
		cache:      cache,
		logger:     logger.Named("CachedStoryStore"),
	}
}

func (s *cachedStoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn("Story cache get failed", zap.Stringer("storyID", id), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	story, err := s.StoryStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, story); err != nil {
		s.logger.Warn("Story cache set failed", zap.Stringer("storyID", id), zap.Error(err))
	}
	return story, nil
}

func (s *cachedStoryStore) Update(ctx context.Context, story *models.Story) error {
	err := s.StoryStore.Update(ctx, story)
	s.invalidate(ctx, story.ID)
	return err
}

func (s *cachedStoryStore) UpdateMany(ctx context.Context, stories []*models.Story) error {
	err := s.StoryStore.UpdateMany(ctx, stories)
	for _, st := range stories {
		s.invalidate(ctx, st.ID)
	}
	return err
}

func (s *cachedStoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.StoryStore.Delete(ctx, id)
	s.invalidate(ctx, id)
	return err
}

func (s *cachedStoryStore) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("Story cache invalidation failed", zap.Stringer("storyID", id), zap.Error(err))
	}
}
