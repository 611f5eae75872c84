package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	gameFields = `id, story_id, player_id, status, current_page_id, path, ending_page_id, inventory, stats, is_preview, started_at, completed_at, duration_seconds`

	insertGameQuery = `
        INSERT INTO games
            (id, story_id, player_id, status, current_page_id, path, ending_page_id, inventory, stats, is_preview, started_at, completed_at, duration_seconds)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	updateGameQuery = `
        UPDATE games SET
            status = $2,
            current_page_id = $3,
            path = $4,
            ending_page_id = $5,
            inventory = $6,
            stats = $7,
            completed_at = $8,
            duration_seconds = $9
            -- story_id, player_id, is_preview и started_at не меняются
        WHERE id = $1
    `
	getGameByIDQuery = `SELECT ` + gameFields + ` FROM games WHERE id = $1`

	// Вход всех агрегатов аналитики: завершенные не-превью сессии.
	listCompletedGamesQuery = `
        SELECT ` + gameFields + `
        FROM games
        WHERE story_id = $1 AND status = 'completed' AND is_preview = FALSE
        ORDER BY completed_at
    `
	countInProgressOnPageQuery = `
        SELECT COUNT(*) FROM games
        WHERE current_page_id = $1 AND status = 'in_progress'
    `
)

// PgGameRepository реализует GameRepository поверх PostgreSQL.
type PgGameRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgGameRepository создает новый PgGameRepository.
func NewPgGameRepository(db *pgxpool.Pool, logger *zap.Logger) *PgGameRepository {
	return &PgGameRepository{db: db, logger: logger.Named("PgGameRepository")}
}

func (r *PgGameRepository) Create(ctx context.Context, game *models.Game) error {
	pathJSON, inventoryJSON, statsJSON, err := marshalGameState(game)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, insertGameQuery,
		game.ID, game.StoryID, game.PlayerID, game.Status, game.CurrentPageID,
		pathJSON, game.EndingPageID, inventoryJSON, statsJSON, game.IsPreview,
		game.StartedAt, game.CompletedAt, game.DurationSeconds,
	)
	if err != nil {
		r.logger.Error("failed to insert game", zap.String("gameID", game.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *PgGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	row := r.db.QueryRow(ctx, getGameByIDQuery, id)
	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("failed to get game", zap.String("gameID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (r *PgGameRepository) Update(ctx context.Context, game *models.Game) error {
	pathJSON, inventoryJSON, statsJSON, err := marshalGameState(game)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, updateGameQuery,
		game.ID, game.Status, game.CurrentPageID, pathJSON, game.EndingPageID,
		inventoryJSON, statsJSON, game.CompletedAt, game.DurationSeconds,
	)
	if err != nil {
		r.logger.Error("failed to update game", zap.String("gameID", game.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PgGameRepository) ListCompletedByStory(ctx context.Context, storyID uuid.UUID) ([]models.Game, error) {
	rows, err := r.db.Query(ctx, listCompletedGamesQuery, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

func (r *PgGameRepository) CountInProgressOnPage(ctx context.Context, pageID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countInProgressOnPageQuery, pageID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count in-progress games on page: %w", err)
	}
	return count, nil
}

func marshalGameState(game *models.Game) (path, inventory, stats []byte, err error) {
	steps := game.Path
	if steps == nil {
		steps = []models.PathStep{}
	}
	path, err = json.Marshal(steps)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal path: %w", err)
	}
	items := game.Inventory
	if items == nil {
		items = []string{}
	}
	inventory, err = json.Marshal(items)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal inventory: %w", err)
	}
	stats, err = json.Marshal(game.Stats)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal stats: %w", err)
	}
	return path, inventory, stats, nil
}

// scanGame читает одну строку games в модель.
func scanGame(row pgx.Row) (*models.Game, error) {
	var game models.Game
	var pathJSON, inventoryJSON, statsJSON []byte
	err := row.Scan(
		&game.ID, &game.StoryID, &game.PlayerID, &game.Status, &game.CurrentPageID,
		&pathJSON, &game.EndingPageID, &inventoryJSON, &statsJSON, &game.IsPreview,
		&game.StartedAt, &game.CompletedAt, &game.DurationSeconds,
	)
	if err != nil {
		return nil, err
	}
	game.Path = []models.PathStep{}
	if len(pathJSON) > 0 {
		if err := json.Unmarshal(pathJSON, &game.Path); err != nil {
			return nil, fmt.Errorf("failed to unmarshal path: %w", err)
		}
	}
	game.Inventory = []string{}
	if len(inventoryJSON) > 0 {
		if err := json.Unmarshal(inventoryJSON, &game.Inventory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
		}
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &game.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
	}
	return &game, nil
}
