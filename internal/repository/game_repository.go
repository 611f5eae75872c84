package repository

import (
	"context"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
)

// GameRepository определяет интерфейс для работы с игровыми сессиями.
type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	Update(ctx context.Context, game *models.Game) error

	// ListCompletedByStory возвращает завершенные НЕ-превью сессии истории.
	// Именно эта выборка - вход всех агрегатов аналитики.
	ListCompletedByStory(ctx context.Context, storyID uuid.UUID) ([]models.Game, error)

	// CountInProgressOnPage считает активные сессии, стоящие на странице.
	// Страница с такими сессиями не может быть удалена.
	CountInProgressOnPage(ctx context.Context, pageID uuid.UUID) (int, error)
}
