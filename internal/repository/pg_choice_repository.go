package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	choiceFields = `id, story_id, source_page_id, target_page_id, text, dice_type, dice_min_value, dice_max_value, item_required, item_granted, stat_health, stat_attack, stat_defense, stat_magic, has_stat_delta, time_limit_seconds, times_chosen, created_at, updated_at`

	insertChoiceQuery = `
        INSERT INTO choices
            (id, story_id, source_page_id, target_page_id, text, dice_type, dice_min_value, dice_max_value,
             item_required, item_granted, stat_health, stat_attack, stat_defense, stat_magic, has_stat_delta,
             time_limit_seconds, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `
	updateChoiceQuery = `
        UPDATE choices SET
            target_page_id = $2,
            text = $3,
            dice_type = $4,
            dice_min_value = $5,
            dice_max_value = $6,
            item_required = $7,
            item_granted = $8,
            stat_health = $9,
            stat_attack = $10,
            stat_defense = $11,
            stat_magic = $12,
            has_stat_delta = $13,
            time_limit_seconds = $14,
            updated_at = $15
            -- story_id и source_page_id не меняются после создания
        WHERE id = $1
    `
	getChoiceByIDQuery       = `SELECT ` + choiceFields + ` FROM choices WHERE id = $1`
	deleteChoiceQuery        = `DELETE FROM choices WHERE id = $1`
	listChoicesBySourceQuery = `SELECT ` + choiceFields + ` FROM choices WHERE source_page_id = $1 ORDER BY created_at`
	countChoicesBySource     = `SELECT COUNT(*) FROM choices WHERE source_page_id = $1`

	incrementChoiceChosenQuery = `UPDATE choices SET times_chosen = times_chosen + 1 WHERE id = $1`
)

// PgChoiceRepository реализует ChoiceRepository поверх PostgreSQL.
type PgChoiceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgChoiceRepository создает новый PgChoiceRepository.
func NewPgChoiceRepository(db *pgxpool.Pool, logger *zap.Logger) *PgChoiceRepository {
	return &PgChoiceRepository{db: db, logger: logger.Named("PgChoiceRepository")}
}

func (r *PgChoiceRepository) Create(ctx context.Context, choice *models.Choice) error {
	args := choiceInsertArgs(choice)
	_, err := r.db.Exec(ctx, insertChoiceQuery, args...)
	if err != nil {
		r.logger.Error("failed to insert choice", zap.String("choiceID", choice.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert choice: %w", err)
	}
	return nil
}

func (r *PgChoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	row := r.db.QueryRow(ctx, getChoiceByIDQuery, id)
	choice, err := scanChoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("failed to get choice", zap.String("choiceID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}
	return choice, nil
}

func (r *PgChoiceRepository) Update(ctx context.Context, choice *models.Choice) error {
	choice.UpdatedAt = time.Now().UTC()
	var diceType *string
	var diceMin, diceMax *int
	if choice.DiceGate != nil {
		dt := string(choice.DiceGate.DiceType)
		diceType, diceMin, diceMax = &dt, &choice.DiceGate.MinValue, &choice.DiceGate.MaxValue
	}
	stats := statDeltaColumns(choice.StatDelta)
	tag, err := r.db.Exec(ctx, updateChoiceQuery,
		choice.ID, choice.TargetPageID, choice.Text, diceType, diceMin, diceMax,
		choice.ItemRequired, choice.ItemGranted,
		stats.health, stats.attack, stats.defense, stats.magic, stats.present,
		choice.TimeLimitSeconds, choice.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to update choice", zap.String("choiceID", choice.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update choice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PgChoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteChoiceQuery, id)
	if err != nil {
		r.logger.Error("failed to delete choice", zap.String("choiceID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete choice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PgChoiceRepository) ListBySourcePage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error) {
	rows, err := r.db.Query(ctx, listChoicesBySourceQuery, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}
	defer rows.Close()

	var choices []models.Choice
	for rows.Next() {
		choice, err := scanChoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan choice row: %w", err)
		}
		choices = append(choices, *choice)
	}
	return choices, rows.Err()
}

func (r *PgChoiceRepository) CountBySourcePage(ctx context.Context, pageID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countChoicesBySource, pageID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count choices: %w", err)
	}
	return count, nil
}

func (r *PgChoiceRepository) IncrementTimesChosen(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, incrementChoiceChosenQuery, id)
	if err != nil {
		r.logger.Error("failed to increment choice counter", zap.String("choiceID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to increment choice counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type statColumns struct {
	health, attack, defense, magic int
	present                        bool
}

func statDeltaColumns(delta *models.StatBlock) statColumns {
	if delta == nil {
		return statColumns{}
	}
	return statColumns{
		health:  delta.Health,
		attack:  delta.Attack,
		defense: delta.Defense,
		magic:   delta.Magic,
		present: true,
	}
}

func choiceInsertArgs(choice *models.Choice) []interface{} {
	var diceType *string
	var diceMin, diceMax *int
	if choice.DiceGate != nil {
		dt := string(choice.DiceGate.DiceType)
		diceType, diceMin, diceMax = &dt, &choice.DiceGate.MinValue, &choice.DiceGate.MaxValue
	}
	stats := statDeltaColumns(choice.StatDelta)
	return []interface{}{
		choice.ID, choice.StoryID, choice.SourcePageID, choice.TargetPageID, choice.Text,
		diceType, diceMin, diceMax,
		choice.ItemRequired, choice.ItemGranted,
		stats.health, stats.attack, stats.defense, stats.magic, stats.present,
		choice.TimeLimitSeconds, choice.CreatedAt, choice.UpdatedAt,
	}
}

// scanChoice читает одну строку choices в модель.
func scanChoice(row pgx.Row) (*models.Choice, error) {
	var choice models.Choice
	var diceType *string
	var diceMin, diceMax *int
	var statHealth, statAttack, statDefense, statMagic int
	var hasStatDelta bool
	err := row.Scan(
		&choice.ID, &choice.StoryID, &choice.SourcePageID, &choice.TargetPageID, &choice.Text,
		&diceType, &diceMin, &diceMax,
		&choice.ItemRequired, &choice.ItemGranted,
		&statHealth, &statAttack, &statDefense, &statMagic, &hasStatDelta,
		&choice.TimeLimitSeconds, &choice.TimesChosen, &choice.CreatedAt, &choice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if diceType != nil && diceMin != nil && diceMax != nil {
		choice.DiceGate = &models.DiceGate{
			DiceType: models.DiceType(*diceType),
			MinValue: *diceMin,
			MaxValue: *diceMax,
		}
	}
	if hasStatDelta {
		choice.StatDelta = &models.StatBlock{
			Health:  statHealth,
			Attack:  statAttack,
			Defense: statDefense,
			Magic:   statMagic,
		}
	}
	return &choice, nil
}
