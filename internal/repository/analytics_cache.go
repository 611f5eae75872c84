package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnalyticsCache - кэш для ответов аналитики (read-through).
// Значения хранятся сериализованными; ключи строит вызывающая сторона.
// Кэш best-effort: его недоступность не должна ломать аналитику.
type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// InvalidateStory сбрасывает все ключи аналитики истории.
	InvalidateStory(ctx context.Context, storyID uuid.UUID) error
}
