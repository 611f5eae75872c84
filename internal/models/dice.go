package models

// DiceType определяет именованный тип кубика.
// Совпадает со значениями, принимаемыми от клиента ("d4", "d6", ...).
type DiceType string

const (
	DiceD4  DiceType = "d4"
	DiceD6  DiceType = "d6"
	DiceD8  DiceType = "d8"
	DiceD10 DiceType = "d10"
	DiceD12 DiceType = "d12"
	DiceD20 DiceType = "d20"
)

// Количество граней фиксировано для каждого именованного типа.
var diceFaces = map[DiceType]int{
	DiceD4:  4,
	DiceD6:  6,
	DiceD8:  8,
	DiceD10: 10,
	DiceD12: 12,
	DiceD20: 20,
}

// Faces возвращает количество граней кубика.
func (d DiceType) Faces() (int, error) {
	faces, ok := diceFaces[d]
	if !ok {
		return 0, ErrInvalidDiceType
	}
	return faces, nil
}

// DiceGate описывает проверку броском кубика на выборе.
// Бросок успешен, если значение попадает в [MinValue, MaxValue] включительно.
type DiceGate struct {
	DiceType DiceType `json:"diceType" db:"dice_type"`
	MinValue int      `json:"minValue" db:"dice_min_value"`
	MaxValue int      `json:"maxValue" db:"dice_max_value"`
}

// Validate проверяет, что диапазон гейта лежит в пределах граней кубика.
func (g *DiceGate) Validate() error {
	faces, err := g.DiceType.Faces()
	if err != nil {
		return err
	}
	if g.MinValue < 1 || g.MaxValue > faces || g.MinValue > g.MaxValue {
		return ErrInvalidDiceRange
	}
	return nil
}

// Contains сообщает, попадает ли бросок в диапазон гейта.
func (g *DiceGate) Contains(roll int) bool {
	return roll >= g.MinValue && roll <= g.MaxValue
}
