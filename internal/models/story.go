package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryStatus определяет статус жизненного цикла истории.
// Совпадает с типом ENUM 'story_status' в БД.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"     // Черновик, играть нельзя.
	StoryStatusPublished StoryStatus = "published" // Опубликована и доступна игрокам.
	StoryStatusSuspended StoryStatus = "suspended" // Снята с публикации модерацией.
)

// CombatConfig задает правила применения дельт статов в истории.
type CombatConfig struct {
	// AllowDeath разрешает опускание здоровья до нуля и ниже порога.
	AllowDeath bool `json:"allowDeath"`
	// MinHealthOnNoDeath - нижняя граница здоровья, когда смерть запрещена.
	// Наблюдаемое поведение исходной системы - 1, но значение настраиваемое.
	MinHealthOnNoDeath int `json:"minHealthOnNoDeath"`
	// Границы, в которые зажимаются все статы после применения дельты.
	StatMin int `json:"statMin"`
	StatMax int `json:"statMax"`
	// InitialStats - статы игрока на старте сессии.
	InitialStats StatBlock `json:"initialStats"`
}

// DefaultCombatConfig возвращает конфигурацию боя по умолчанию.
func DefaultCombatConfig() CombatConfig {
	return CombatConfig{
		AllowDeath:         false,
		MinHealthOnNoDeath: 1,
		StatMin:            0,
		StatMax:            100,
		InitialStats:       StatBlock{Health: 100, Attack: 10, Defense: 10, Magic: 10},
	}
}

// Story представляет историю - контейнер графа страниц.
type Story struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	AuthorID    uuid.UUID   `json:"authorId" db:"author_id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	Status      StoryStatus `json:"status" db:"status"`
	// StartPageID - стартовая страница; nil, пока автор ее не назначил.
	// История не может быть опубликована без стартовой страницы.
	StartPageID      *uuid.UUID   `json:"startPageId,omitempty" db:"start_page_id"`
	Combat           CombatConfig `json:"combat" db:"combat"`
	TotalPlays       int64        `json:"totalPlays" db:"total_plays"`
	TotalCompletions int64        `json:"totalCompletions" db:"total_completions"`
	// Rating пишется хост-приложением (UI оценок), здесь только читается.
	Rating    float64   `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsPlayable сообщает, можно ли начать игру по этой истории.
func (s *Story) IsPlayable() bool {
	return s.Status == StoryStatusPublished && s.StartPageID != nil
}
