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
	pageFields = `id, story_id, content, is_ending, ending_label, ending_type, hotspots, times_visited, times_completed, created_at, updated_at`

	insertPageQuery = `
        INSERT INTO pages
            (id, story_id, content, is_ending, ending_label, ending_type, hotspots, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	updatePageQuery = `
        UPDATE pages SET
            content = $2,
            is_ending = $3,
            ending_label = $4,
            ending_type = $5,
            hotspots = $6,
            updated_at = $7
            -- story_id не меняется после создания
        WHERE id = $1
    `
	getPageByIDQuery   = `SELECT ` + pageFields + ` FROM pages WHERE id = $1`
	deletePageQuery    = `DELETE FROM pages WHERE id = $1`
	listPagesByStory   = `SELECT ` + pageFields + ` FROM pages WHERE story_id = $1 ORDER BY created_at`
	listEndingsByStory = `SELECT ` + pageFields + ` FROM pages WHERE story_id = $1 AND is_ending = TRUE ORDER BY created_at`

	incrementPageVisitedQuery   = `UPDATE pages SET times_visited = times_visited + 1 WHERE id = $1`
	incrementPageCompletedQuery = `UPDATE pages SET times_completed = times_completed + 1 WHERE id = $1`
)

// PgPageRepository реализует PageRepository поверх PostgreSQL.
type PgPageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgPageRepository создает новый PgPageRepository.
func NewPgPageRepository(db *pgxpool.Pool, logger *zap.Logger) *PgPageRepository {
	return &PgPageRepository{db: db, logger: logger.Named("PgPageRepository")}
}

func (r *PgPageRepository) Create(ctx context.Context, page *models.Page) error {
	hotspotsJSON, err := marshalHotspots(page.Hotspots)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, insertPageQuery,
		page.ID, page.StoryID, page.Content, page.IsEnding, page.EndingLabel,
		page.EndingType, hotspotsJSON, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert page", zap.String("pageID", page.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

func (r *PgPageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	row := r.db.QueryRow(ctx, getPageByIDQuery, id)
	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("failed to get page", zap.String("pageID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return page, nil
}

func (r *PgPageRepository) Update(ctx context.Context, page *models.Page) error {
	hotspotsJSON, err := marshalHotspots(page.Hotspots)
	if err != nil {
		return err
	}
	page.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, updatePageQuery,
		page.ID, page.Content, page.IsEnding, page.EndingLabel, page.EndingType,
		hotspotsJSON, page.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to update page", zap.String("pageID", page.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PgPageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deletePageQuery, id)
	if err != nil {
		r.logger.Error("failed to delete page", zap.String("pageID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PgPageRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Page, error) {
	return r.list(ctx, listPagesByStory, storyID)
}

func (r *PgPageRepository) ListEndingsByStory(ctx context.Context, storyID uuid.UUID) ([]models.Page, error) {
	return r.list(ctx, listEndingsByStory, storyID)
}

func (r *PgPageRepository) list(ctx context.Context, query string, storyID uuid.UUID) ([]models.Page, error) {
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

func (r *PgPageRepository) IncrementTimesVisited(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, incrementPageVisitedQuery, id)
}

func (r *PgPageRepository) IncrementTimesCompleted(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, incrementPageCompletedQuery, id)
}

func (r *PgPageRepository) increment(ctx context.Context, query string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to increment page counter", zap.String("pageID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to increment page counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func marshalHotspots(hotspots []models.Hotspot) ([]byte, error) {
	if hotspots == nil {
		hotspots = []models.Hotspot{}
	}
	data, err := json.Marshal(hotspots)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hotspots: %w", err)
	}
	return data, nil
}

// scanPage читает одну строку pages в модель.
func scanPage(row pgx.Row) (*models.Page, error) {
	var page models.Page
	var hotspotsJSON []byte
	err := row.Scan(
		&page.ID, &page.StoryID, &page.Content, &page.IsEnding, &page.EndingLabel,
		&page.EndingType, &hotspotsJSON, &page.TimesVisited, &page.TimesCompleted,
		&page.CreatedAt, &page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	page.Hotspots = []models.Hotspot{}
	if len(hotspotsJSON) > 0 {
		if err := json.Unmarshal(hotspotsJSON, &page.Hotspots); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hotspots: %w", err)
		}
	}
	return &page, nil
}
