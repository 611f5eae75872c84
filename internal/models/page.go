package models

import (
	"time"

	"github.com/google/uuid"
)

// Hotspot - интерактивная область на странице (форма + целевая страница).
// Порядок хотспотов значим и сохраняется как есть.
type Hotspot struct {
	Shape        string    `json:"shape"` // Произвольное описание формы (rect, circle, polygon...)
	TargetPageID uuid.UUID `json:"targetPageId"`
}

// Page представляет узел графа истории.
type Page struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StoryID uuid.UUID `json:"storyId" db:"story_id"`
	Content string    `json:"content" db:"content"`
	// IsEnding: у концовки нет исходящих выборов и хотспотов,
	// и обязательно заполнены EndingLabel и EndingType.
	IsEnding    bool      `json:"isEnding" db:"is_ending"`
	EndingLabel *string   `json:"endingLabel,omitempty" db:"ending_label"`
	EndingType  *string   `json:"endingType,omitempty" db:"ending_type"`
	Hotspots    []Hotspot `json:"hotspots" db:"hotspots"`
	// Счетчики инкрементируются только атомарно на уровне хранилища.
	TimesVisited   int64     `json:"timesVisited" db:"times_visited"`
	TimesCompleted int64     `json:"timesCompleted" db:"times_completed"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
