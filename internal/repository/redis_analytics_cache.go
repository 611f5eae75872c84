package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check
var _ AnalyticsCache = (*redisAnalyticsCache)(nil)

// Ключи аналитики держим под одним набором на историю, чтобы
// инвалидация завершением игры снимала все агрегаты разом:
// analytics_keys:{storyID} -> { "analytics:endings:...", "analytics:paths:...", ... }
type redisAnalyticsCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisAnalyticsCache creates a new Redis-backed AnalyticsCache.
func NewRedisAnalyticsCache(client *redis.Client, logger *zap.Logger) AnalyticsCache {
	return &redisAnalyticsCache{
		client: client,
		logger: logger.Named("RedisAnalyticsCache"),
	}
}

func storySetKey(storyID uuid.UUID) string {
	return fmt.Sprintf("analytics_keys:%s", storyID)
}

func (c *redisAnalyticsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

// Set сохраняет значение и регистрирует ключ в наборе истории.
// storyID извлекается вызывающей стороной и передается через контекстный
// суффикс ключа ("analytics:<kind>:<storyID>[:...]").
func (c *redisAnalyticsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	storyID, ok := storyIDFromKey(key)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, value, ttl)
	if ok {
		setKey := storySetKey(storyID)
		pipe.SAdd(ctx, setKey, key)
		pipe.Expire(ctx, setKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalyticsCache) InvalidateStory(ctx context.Context, storyID uuid.UUID) error {
	setKey := storySetKey(storyID)
	keys, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis smembers failed: %w", err)
	}
	keys = append(keys, setKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	c.logger.Debug("Invalidated analytics cache", zap.String("storyID", storyID.String()), zap.Int("keys", len(keys)))
	return nil
}

// storyIDFromKey достает storyID из ключа вида "analytics:<kind>:<uuid>[:<suffix>]".
func storyIDFromKey(key string) (uuid.UUID, bool) {
	parts := strings.Split(key, ":")
	if len(parts) < 3 || parts[0] != "analytics" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
