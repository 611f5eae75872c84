package repository

import (
	"context"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository определяет интерфейс для работы с историями.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	Update(ctx context.Context, story *models.Story) error
	ListByStatus(ctx context.Context, status models.StoryStatus, limit, offset int) ([]models.Story, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Story, error)

	// Атомарные инкременты счетчиков (UPDATE ... SET x = x + 1).
	// Read-modify-write здесь запрещен: счетчики обновляются из многих
	// параллельных сессий.
	IncrementTotalPlays(ctx context.Context, id uuid.UUID) error
	IncrementTotalCompletions(ctx context.Context, id uuid.UUID) error
}
