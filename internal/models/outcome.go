package models

import "github.com/google/uuid"

// OutcomeReason - причина неуспешного исхода выбора.
// Это ожидаемые игровые исходы, а не ошибки (игрок может повторить попытку).
type OutcomeReason string

const (
	OutcomeReasonDiceFailed  OutcomeReason = "dice_failed"
	OutcomeReasonMissingItem OutcomeReason = "missing_item"
)

// DiceRange - требуемый диапазон броска, возвращается при неудаче гейта.
type DiceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ChoiceOutcome - результат разрешения выбора движком.
// При Success=false состояние сессии не меняется вообще.
type ChoiceOutcome struct {
	Success bool          `json:"success"`
	Reason  OutcomeReason `json:"reason,omitempty"`

	// DiceRoll заполняется, если бросок был (и при успехе, и при неудаче).
	DiceRoll *int       `json:"diceRoll,omitempty"`
	Required *DiceRange `json:"required,omitempty"`

	// ItemRequired заполняется при Reason=missing_item.
	ItemRequired string `json:"itemRequired,omitempty"`

	// Поля ниже заполняются только при успехе.
	TargetPageID  uuid.UUID `json:"targetPageId,omitempty"`
	NewStats      StatBlock `json:"newStats,omitempty"`
	ItemGranted   *string   `json:"itemGranted,omitempty"`
	EndingReached bool      `json:"endingReached"`
}
