package repository

import (
	"context"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
)

// ChoiceRepository определяет интерфейс для работы с выборами (ребрами графа).
type ChoiceRepository interface {
	Create(ctx context.Context, choice *models.Choice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Choice, error)
	Update(ctx context.Context, choice *models.Choice) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySourcePage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error)
	CountBySourcePage(ctx context.Context, pageID uuid.UUID) (int, error)

	// Атомарный инкремент счетчика использования выбора.
	IncrementTimesChosen(ctx context.Context, id uuid.UUID) error
}
