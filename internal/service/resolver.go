package service

import (
	"math/rand/v2"

	"gamebook-server/internal/models"
)

// DiceRoller возвращает равномерное целое в [1, faces] включительно.
// В проде используется DefaultDiceRoller; тесты и клиенты, которым нужна
// воспроизводимость, передают бросок явно (suppliedRoll).
type DiceRoller func(faces int) int

// DefaultDiceRoller - равномерный бросок стандартным генератором.
func DefaultDiceRoller(faces int) int {
	return rand.IntN(faces) + 1
}

// ResolveChoice - чистая функция разрешения выбора. Никаких побочных
// эффектов: сессию мутирует вызывающая сторона (GameService) и только
// при Success=true.
//
// Порядок проверок:
//  1. выбор должен исходить из текущей страницы сессии;
//  2. item-гейт: отсутствие предмета - игровой исход, не ошибка;
//  3. dice-гейт: бросок берется из suppliedRoll или у roller;
//  4. при успехе считаются новые статы с зажимом в границы истории.
func ResolveChoice(game *models.Game, choice *models.Choice, suppliedRoll *int, roller DiceRoller, combat models.CombatConfig) (*models.ChoiceOutcome, error) {
	if choice.SourcePageID != game.CurrentPageID {
		return nil, models.ErrChoiceNotOnCurrentPage
	}

	if choice.ItemRequired != nil && !game.HasItem(*choice.ItemRequired) {
		return &models.ChoiceOutcome{
			Success:      false,
			Reason:       models.OutcomeReasonMissingItem,
			ItemRequired: *choice.ItemRequired,
		}, nil
	}

	outcome := &models.ChoiceOutcome{Success: true}

	if gate := choice.DiceGate; gate != nil {
		if err := gate.Validate(); err != nil {
			return nil, err
		}
		faces, _ := gate.DiceType.Faces()
		var roll int
		if suppliedRoll != nil {
			roll = *suppliedRoll
		} else {
			if roller == nil {
				roller = DefaultDiceRoller
			}
			roll = roller(faces)
		}
		outcome.DiceRoll = &roll
		if !gate.Contains(roll) {
			// Неудача броска - не ошибка: сессия остается где была,
			// игрок может бросить снова.
			return &models.ChoiceOutcome{
				Success:  false,
				Reason:   models.OutcomeReasonDiceFailed,
				DiceRoll: &roll,
				Required: &models.DiceRange{Min: gate.MinValue, Max: gate.MaxValue},
			}, nil
		}
	}

	outcome.TargetPageID = choice.TargetPageID
	outcome.NewStats = applyStatDelta(game.Stats, choice.StatDelta, combat)
	outcome.ItemGranted = choice.ItemGranted
	return outcome, nil
}

// applyStatDelta применяет дельту и зажимает результат в границы истории.
// Когда смерть запрещена, здоровье не опускается ниже MinHealthOnNoDeath
// (наблюдаемое поведение исходной системы; порог настраиваемый).
func applyStatDelta(stats models.StatBlock, delta *models.StatBlock, combat models.CombatConfig) models.StatBlock {
	if delta == nil {
		return stats
	}
	result := stats.Add(*delta).Clamp(combat.StatMin, combat.StatMax)
	if !combat.AllowDeath && result.Health <= 0 {
		result.Health = combat.MinHealthOnNoDeath
	}
	return result
}

// ReplayState восстанавливает статы и инвентарь сверткой дельт вдоль пути.
// Каноническое состояние сессии ведется инкрементально, но оно обязано
// совпадать с результатом свертки - это защита от дрейфа между
// отображаемым и авторитетным состоянием.
func ReplayState(path []models.PathStep, choices map[string]*models.Choice, combat models.CombatConfig) (models.StatBlock, []string) {
	stats := combat.InitialStats
	inventory := []string{}
	for _, step := range path {
		if step.ChoiceID == nil {
			continue
		}
		choice, ok := choices[step.ChoiceID.String()]
		if !ok {
			continue
		}
		stats = applyStatDelta(stats, choice.StatDelta, combat)
		if choice.ItemGranted != nil && !containsItem(inventory, *choice.ItemGranted) {
			inventory = append(inventory, *choice.ItemGranted)
		}
	}
	return stats, inventory
}

func containsItem(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
