package repository

import (
	"context"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
)

// PageRepository определяет интерфейс для работы со страницами.
type PageRepository interface {
	Create(ctx context.Context, page *models.Page) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Page, error)
	Update(ctx context.Context, page *models.Page) error
	// Delete удаляет страницу; выборы, у которых она источник или цель,
	// удаляются каскадом на уровне БД.
	Delete(ctx context.Context, id uuid.UUID) error
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Page, error)
	ListEndingsByStory(ctx context.Context, storyID uuid.UUID) ([]models.Page, error)

	// Атомарные инкременты счетчиков посещений/завершений.
	IncrementTimesVisited(ctx context.Context, id uuid.UUID) error
	IncrementTimesCompleted(ctx context.Context, id uuid.UUID) error
}
