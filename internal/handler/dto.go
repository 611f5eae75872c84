package handler

import (
	"time"

	"gamebook-server/internal/models"
)

// --- Запросы --- //

// CreateStoryRequest - тело запроса на создание истории.
type CreateStoryRequest struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Description string               `json:"description" validate:"max=2000"`
	Combat      *models.CombatConfig `json:"combat,omitempty"`
}

// CreatePageRequest - тело запроса на создание страницы.
type CreatePageRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdatePageRequest - тело запроса на обновление страницы.
type UpdatePageRequest struct {
	Content  string           `json:"content" validate:"required"`
	Hotspots []models.Hotspot `json:"hotspots"`
}

// SetEndingRequest - тело запроса на назначение страницы концовкой.
// Label и Type обязательны оба: концовка без метаданных невалидна.
type SetEndingRequest struct {
	EndingLabel string `json:"endingLabel" validate:"required"`
	EndingType  string `json:"endingType" validate:"required"`
}

// DiceGateRequest - опциональный dice-гейт выбора.
type DiceGateRequest struct {
	DiceType string `json:"diceType" validate:"required"`
	MinValue int    `json:"minValue" validate:"min=1"`
	MaxValue int    `json:"maxValue" validate:"min=1"`
}

// ChoiceRequest - тело запроса на создание/обновление выбора.
type ChoiceRequest struct {
	TargetPageID     string            `json:"targetPageId" validate:"required,uuid"`
	Text             string            `json:"text" validate:"required,max=500"`
	DiceGate         *DiceGateRequest  `json:"diceGate,omitempty"`
	ItemRequired     *string           `json:"itemRequired,omitempty"`
	ItemGranted      *string           `json:"itemGranted,omitempty"`
	StatDelta        *models.StatBlock `json:"statDelta,omitempty"`
	TimeLimitSeconds *int              `json:"timeLimitSeconds,omitempty" validate:"omitempty,min=1"`
}

// SetStartPageRequest - тело запроса на назначение стартовой страницы.
type SetStartPageRequest struct {
	PageID string `json:"pageId" validate:"required,uuid"`
}

// StartGameRequest - тело запроса на старт сессии.
type StartGameRequest struct {
	IsPreview bool `json:"isPreview"`
}

// MakeChoiceRequest - тело запроса на ход. DiceRoll опционален: если он
// не передан, а выбор гейтится кубиком, бросок делает движок.
type MakeChoiceRequest struct {
	ChoiceID string `json:"choiceId" validate:"required,uuid"`
	DiceRoll *int   `json:"diceRoll,omitempty" validate:"omitempty,min=1"`
}

// --- Ответы --- //

// GameResponse - представление сессии для клиента.
type GameResponse struct {
	ID              string            `json:"id"`
	StoryID         string            `json:"storyId"`
	PlayerID        string            `json:"playerId"`
	Status          string            `json:"status"`
	CurrentPageID   string            `json:"currentPageId"`
	Path            []models.PathStep `json:"path"`
	EndingPageID    *string           `json:"endingPageId,omitempty"`
	Inventory       []string          `json:"inventory"`
	Stats           models.StatBlock  `json:"stats"`
	IsPreview       bool              `json:"isPreview"`
	PagesVisited    int               `json:"pagesVisited"`
	StartedAt       time.Time         `json:"startedAt"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	DurationSeconds *int64            `json:"durationSeconds,omitempty"`
}

// ChooseResponse - исход хода: результат разрешения выбора плюс сессия.
// При Success=false сессия возвращается неизменной.
type ChooseResponse struct {
	Outcome *models.ChoiceOutcome `json:"outcome"`
	Game    *GameResponse         `json:"game"`
}

func toGameResponse(game *models.Game) *GameResponse {
	resp := &GameResponse{
		ID:              game.ID.String(),
		StoryID:         game.StoryID.String(),
		PlayerID:        game.PlayerID.String(),
		Status:          string(game.Status),
		CurrentPageID:   game.CurrentPageID.String(),
		Path:            game.Path,
		Inventory:       game.Inventory,
		Stats:           game.Stats,
		IsPreview:       game.IsPreview,
		PagesVisited:    game.PagesVisited(),
		StartedAt:       game.StartedAt,
		CompletedAt:     game.CompletedAt,
		DurationSeconds: game.DurationSeconds,
	}
	if game.EndingPageID != nil {
		id := game.EndingPageID.String()
		resp.EndingPageID = &id
	}
	return resp
}

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}
