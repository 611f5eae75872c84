package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus определяет возможные статусы игровой сессии.
// Совпадает с типом ENUM 'game_status' в БД.
type GameStatus string

const (
	GameStatusInProgress GameStatus = "in_progress" // Игрок проходит историю.
	GameStatusCompleted  GameStatus = "completed"   // Достигнута концовка (терминальный).
	GameStatusAbandoned  GameStatus = "abandoned"   // Игрок бросил игру (терминальный).
)

// PathStep - одна запись в логе прохождения. Первый шаг сессии содержит
// только стартовую страницу, последующие - страницу, выбор и бросок (если был).
type PathStep struct {
	PageID    uuid.UUID  `json:"pageId"`
	ChoiceID  *uuid.UUID `json:"choiceId,omitempty"`
	DiceRoll  *int       `json:"diceRoll,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Game представляет прохождение одной истории одним игроком.
// Path append-only; после терминального статуса запись не мутирует,
// кроме перехода in_progress -> abandoned.
type Game struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	StoryID       uuid.UUID  `json:"storyId" db:"story_id"`
	PlayerID      uuid.UUID  `json:"playerId" db:"player_id"`
	Status        GameStatus `json:"status" db:"status"`
	CurrentPageID uuid.UUID  `json:"currentPageId" db:"current_page_id"`
	Path          []PathStep `json:"path" db:"path"`
	// EndingPageID заполняется только при завершении.
	EndingPageID *uuid.UUID `json:"endingPageId,omitempty" db:"ending_page_id"`
	// Inventory и Stats - состояние игрока, которым владеет движок сессии.
	// Оно восстановимо сверткой дельт вдоль Path (см. ReplayState).
	Inventory []string  `json:"inventory" db:"inventory"`
	Stats     StatBlock `json:"stats" db:"stats"`
	// IsPreview: превью-сессии автора исключаются из всех агрегатов.
	IsPreview       bool       `json:"isPreview" db:"is_preview"`
	StartedAt       time.Time  `json:"startedAt" db:"started_at"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	DurationSeconds *int64     `json:"durationSeconds,omitempty" db:"duration_seconds"`
}

// PagesVisited возвращает число посещенных страниц (длина пути).
func (g *Game) PagesVisited() int {
	return len(g.Path)
}

// VisitedPageSet возвращает множество id посещенных страниц.
// Путь может повторно посещать узлы (граф допускает обратные ребра),
// дубликаты схлопываются.
func (g *Game) VisitedPageSet() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(g.Path))
	for _, step := range g.Path {
		set[step.PageID] = struct{}{}
	}
	return set
}

// HasItem сообщает, есть ли предмет в инвентаре.
func (g *Game) HasItem(item string) bool {
	for _, it := range g.Inventory {
		if it == item {
			return true
		}
	}
	return false
}
