package repository

import (
	"context"
	"encoding/json"
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
	storyFields = `id, author_id, title, description, status, start_page_id, combat, total_plays, total_completions, rating, created_at, updated_at`

	insertStoryQuery = `
        INSERT INTO stories
            (id, author_id, title, description, status, start_page_id, combat, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	updateStoryQuery = `
        UPDATE stories SET
            title = $2,
            description = $3,
            status = $4,
            start_page_id = $5,
            combat = $6,
            updated_at = $7
            -- author_id не меняется после создания
        WHERE id = $1
    `
	getStoryByIDQuery = `SELECT ` + storyFields + ` FROM stories WHERE id = $1`

	listStoriesByStatusQuery = `
        SELECT ` + storyFields + `
        FROM stories
        WHERE status = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	listStoriesByAuthorQuery = `
        SELECT ` + storyFields + `
        FROM stories
        WHERE author_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `

	// Счетчики инкрементируются одним UPDATE, без чтения старого значения.
	incrementStoryPlaysQuery       = `UPDATE stories SET total_plays = total_plays + 1 WHERE id = $1`
	incrementStoryCompletionsQuery = `UPDATE stories SET total_completions = total_completions + 1 WHERE id = $1`
)

// PgStoryRepository реализует StoryRepository поверх PostgreSQL.
type PgStoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository создает новый PgStoryRepository.
func NewPgStoryRepository(db *pgxpool.Pool, logger *zap.Logger) *PgStoryRepository {
	return &PgStoryRepository{db: db, logger: logger.Named("PgStoryRepository")}
}

func (r *PgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	combatJSON, err := json.Marshal(story.Combat)
	if err != nil {
		return fmt.Errorf("failed to marshal combat config: %w", err)
	}
	_, err = r.db.Exec(ctx, insertStoryQuery,
		story.ID, story.AuthorID, story.Title, story.Description, story.Status,
		story.StartPageID, combatJSON, story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert story", zap.String("storyID", story.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

func (r *PgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	row := r.db.QueryRow(ctx, getStoryByIDQuery, id)
	story, err := scanStory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("failed to get story", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

func (r *PgStoryRepository) Update(ctx context.Context, story *models.Story) error {
	combatJSON, err := json.Marshal(story.Combat)
	if err != nil {
		return fmt.Errorf("failed to marshal combat config: %w", err)
	}
	story.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, updateStoryQuery,
		story.ID, story.Title, story.Description, story.Status,
		story.StartPageID, combatJSON, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to update story", zap.String("storyID", story.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PgStoryRepository) ListByStatus(ctx context.Context, status models.StoryStatus, limit, offset int) ([]models.Story, error) {
	return r.list(ctx, listStoriesByStatusQuery, status, limit, offset)
}

func (r *PgStoryRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Story, error) {
	return r.list(ctx, listStoriesByAuthorQuery, authorID, limit, offset)
}

func (r *PgStoryRepository) list(ctx context.Context, query string, arg interface{}, limit, offset int) ([]models.Story, error) {
	rows, err := r.db.Query(ctx, query, arg, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, *story)
	}
	return stories, rows.Err()
}

func (r *PgStoryRepository) IncrementTotalPlays(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, incrementStoryPlaysQuery, id)
}

func (r *PgStoryRepository) IncrementTotalCompletions(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, incrementStoryCompletionsQuery, id)
}

func (r *PgStoryRepository) increment(ctx context.Context, query string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to increment story counter", zap.String("storyID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to increment story counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// scanStory читает одну строку stories в модель.
func scanStory(row pgx.Row) (*models.Story, error) {
	var story models.Story
	var combatJSON []byte
	err := row.Scan(
		&story.ID, &story.AuthorID, &story.Title, &story.Description, &story.Status,
		&story.StartPageID, &combatJSON, &story.TotalPlays, &story.TotalCompletions,
		&story.Rating, &story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(combatJSON) > 0 {
		if err := json.Unmarshal(combatJSON, &story.Combat); err != nil {
			return nil, fmt.Errorf("failed to unmarshal combat config: %w", err)
		}
	}
	return &story, nil
}
