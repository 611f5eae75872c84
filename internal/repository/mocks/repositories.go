package mocks

import (
	"context"
	"time"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) Update(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) ListByStatus(ctx context.Context, status models.StoryStatus, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, status, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, authorID, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) IncrementTotalPlays(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *StoryRepository) IncrementTotalCompletions(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock PageRepository
type PageRepository struct {
	mock.Mock
}

func (m *PageRepository) Create(ctx context.Context, page *models.Page) error {
	args := m.Called(ctx, page)
	return args.Error(0)
}
func (m *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	args := m.Called(ctx, id)
	page, _ := args.Get(0).(*models.Page)
	return page, args.Error(1)
}
func (m *PageRepository) Update(ctx context.Context, page *models.Page) error {
	args := m.Called(ctx, page)
	return args.Error(0)
}
func (m *PageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *PageRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Page, error) {
	args := m.Called(ctx, storyID)
	pages, _ := args.Get(0).([]models.Page)
	return pages, args.Error(1)
}
func (m *PageRepository) ListEndingsByStory(ctx context.Context, storyID uuid.UUID) ([]models.Page, error) {
	args := m.Called(ctx, storyID)
	pages, _ := args.Get(0).([]models.Page)
	return pages, args.Error(1)
}
func (m *PageRepository) IncrementTimesVisited(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *PageRepository) IncrementTimesCompleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock ChoiceRepository
type ChoiceRepository struct {
	mock.Mock
}

func (m *ChoiceRepository) Create(ctx context.Context, choice *models.Choice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}
func (m *ChoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, id)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *ChoiceRepository) Update(ctx context.Context, choice *models.Choice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}
func (m *ChoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *ChoiceRepository) ListBySourcePage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, pageID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}
func (m *ChoiceRepository) CountBySourcePage(ctx context.Context, pageID uuid.UUID) (int, error) {
	args := m.Called(ctx, pageID)
	return args.Int(0), args.Error(1)
}
func (m *ChoiceRepository) IncrementTimesChosen(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock GameRepository
type GameRepository struct {
	mock.Mock
}

func (m *GameRepository) Create(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}
func (m *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}
func (m *GameRepository) Update(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}
func (m *GameRepository) ListCompletedByStory(ctx context.Context, storyID uuid.UUID) ([]models.Game, error) {
	args := m.Called(ctx, storyID)
	games, _ := args.Get(0).([]models.Game)
	return games, args.Error(1)
}
func (m *GameRepository) CountInProgressOnPage(ctx context.Context, pageID uuid.UUID) (int, error) {
	args := m.Called(ctx, pageID)
	return args.Int(0), args.Error(1)
}

// Mock AnalyticsCache
type AnalyticsCache struct {
	mock.Mock
}

func (m *AnalyticsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Bool(1), args.Error(2)
}
func (m *AnalyticsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *AnalyticsCache) InvalidateStory(ctx context.Context, storyID uuid.UUID) error {
	args := m.Called(ctx, storyID)
	return args.Error(0)
}
