package models

import (
	"time"

	"github.com/google/uuid"
)

// StatBlock - вектор статов игрока. Используется и как абсолютное
// состояние, и как дельта на выборе.
type StatBlock struct {
	Health  int `json:"health"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Magic   int `json:"magic"`
}

// Add возвращает покомпонентную сумму двух блоков.
func (s StatBlock) Add(d StatBlock) StatBlock {
	return StatBlock{
		Health:  s.Health + d.Health,
		Attack:  s.Attack + d.Attack,
		Defense: s.Defense + d.Defense,
		Magic:   s.Magic + d.Magic,
	}
}

// Clamp зажимает каждый стат в [min, max].
func (s StatBlock) Clamp(min, max int) StatBlock {
	clamp := func(v int) int {
		if v < min {
			return min
		}
		if v > max {
			return max
		}
		return v
	}
	return StatBlock{
		Health:  clamp(s.Health),
		Attack:  clamp(s.Attack),
		Defense: clamp(s.Defense),
		Magic:   clamp(s.Magic),
	}
}

// Choice представляет направленное ребро графа между двумя страницами.
// Целевая страница обязана принадлежать той же истории, что и исходная.
type Choice struct {
	ID           uuid.UUID `json:"id" db:"id"`
	StoryID      uuid.UUID `json:"storyId" db:"story_id"`
	SourcePageID uuid.UUID `json:"sourcePageId" db:"source_page_id"`
	TargetPageID uuid.UUID `json:"targetPageId" db:"target_page_id"`
	Text         string    `json:"text" db:"text"`
	// DiceGate - опциональная проверка броском кубика.
	DiceGate *DiceGate `json:"diceGate,omitempty" db:"dice_gate"`
	// ItemRequired - предмет, без которого выбор недоступен (advisory-гейт).
	ItemRequired *string `json:"itemRequired,omitempty" db:"item_required"`
	// ItemGranted - предмет, выдаваемый при успешном выборе.
	ItemGranted *string `json:"itemGranted,omitempty" db:"item_granted"`
	// StatDelta применяется к статам игрока при успешном выборе.
	StatDelta *StatBlock `json:"statDelta,omitempty" db:"stat_delta"`
	// TimeLimitSeconds - advisory-лимит; отсчет ведет презентационный слой.
	TimeLimitSeconds *int      `json:"timeLimitSeconds,omitempty" db:"time_limit_seconds"`
	TimesChosen      int64     `json:"timesChosen" db:"times_chosen"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}
