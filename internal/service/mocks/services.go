package mocks

import (
	"context"

	"gamebook-server/internal/models"
	"gamebook-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryService
type StoryService struct {
	mock.Mock
}

func (m *StoryService) CreateStory(ctx context.Context, authorID uuid.UUID, title, description string, combat *models.CombatConfig) (*models.Story, error) {
	args := m.Called(ctx, authorID, title, description, combat)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryService) ListPublished(ctx context.Context, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryService) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, authorID, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryService) GetGraph(ctx context.Context, authorID, storyID uuid.UUID) (*service.StoryGraph, error) {
	args := m.Called(ctx, authorID, storyID)
	graph, _ := args.Get(0).(*service.StoryGraph)
	return graph, args.Error(1)
}
func (m *StoryService) CreatePage(ctx context.Context, authorID, storyID uuid.UUID, content string) (*models.Page, error) {
	args := m.Called(ctx, authorID, storyID, content)
	page, _ := args.Get(0).(*models.Page)
	return page, args.Error(1)
}
func (m *StoryService) UpdatePage(ctx context.Context, authorID, pageID uuid.UUID, content string, hotspots []models.Hotspot) (*models.Page, error) {
	args := m.Called(ctx, authorID, pageID, content, hotspots)
	page, _ := args.Get(0).(*models.Page)
	return page, args.Error(1)
}
func (m *StoryService) DeletePage(ctx context.Context, authorID, pageID uuid.UUID) error {
	args := m.Called(ctx, authorID, pageID)
	return args.Error(0)
}
func (m *StoryService) SetEnding(ctx context.Context, authorID, pageID uuid.UUID, label, endingType string) (*models.Page, error) {
	args := m.Called(ctx, authorID, pageID, label, endingType)
	page, _ := args.Get(0).(*models.Page)
	return page, args.Error(1)
}
func (m *StoryService) CreateChoice(ctx context.Context, authorID, sourcePageID uuid.UUID, params service.ChoiceParams) (*models.Choice, error) {
	args := m.Called(ctx, authorID, sourcePageID, params)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *StoryService) UpdateChoice(ctx context.Context, authorID, choiceID uuid.UUID, params service.ChoiceParams) (*models.Choice, error) {
	args := m.Called(ctx, authorID, choiceID, params)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *StoryService) DeleteChoice(ctx context.Context, authorID, choiceID uuid.UUID) error {
	args := m.Called(ctx, authorID, choiceID)
	return args.Error(0)
}
func (m *StoryService) SetStartPage(ctx context.Context, authorID, storyID, pageID uuid.UUID) error {
	args := m.Called(ctx, authorID, storyID, pageID)
	return args.Error(0)
}
func (m *StoryService) Publish(ctx context.Context, authorID, storyID uuid.UUID) error {
	args := m.Called(ctx, authorID, storyID)
	return args.Error(0)
}
func (m *StoryService) Unpublish(ctx context.Context, authorID, storyID uuid.UUID) error {
	args := m.Called(ctx, authorID, storyID)
	return args.Error(0)
}
func (m *StoryService) Suspend(ctx context.Context, storyID uuid.UUID) error {
	args := m.Called(ctx, storyID)
	return args.Error(0)
}

// Mock GameService
type GameService struct {
	mock.Mock
}

func (m *GameService) Start(ctx context.Context, storyID, playerID uuid.UUID, isPreview bool) (*models.Game, error) {
	args := m.Called(ctx, storyID, playerID, isPreview)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}
func (m *GameService) Choose(ctx context.Context, gameID, callerID, choiceID uuid.UUID, suppliedRoll *int) (*models.Game, *models.ChoiceOutcome, error) {
	args := m.Called(ctx, gameID, callerID, choiceID, suppliedRoll)
	game, _ := args.Get(0).(*models.Game)
	outcome, _ := args.Get(1).(*models.ChoiceOutcome)
	return game, outcome, args.Error(2)
}
func (m *GameService) Abandon(ctx context.Context, gameID, callerID uuid.UUID) (*models.Game, error) {
	args := m.Called(ctx, gameID, callerID)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}
func (m *GameService) Get(ctx context.Context, gameID, callerID uuid.UUID) (*models.Game, error) {
	args := m.Called(ctx, gameID, callerID)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}

// Mock AnalyticsService
type AnalyticsService struct {
	mock.Mock
}

func (m *AnalyticsService) EndingDistribution(ctx context.Context, storyID uuid.UUID) (*models.EndingDistribution, error) {
	args := m.Called(ctx, storyID)
	dist, _ := args.Get(0).(*models.EndingDistribution)
	return dist, args.Error(1)
}
func (m *AnalyticsService) PathFrequencies(ctx context.Context, storyID uuid.UUID) (*models.PathFrequencyReport, error) {
	args := m.Called(ctx, storyID)
	report, _ := args.Get(0).(*models.PathFrequencyReport)
	return report, args.Error(1)
}
func (m *AnalyticsService) PathSimilarity(ctx context.Context, gameID uuid.UUID) (*models.PathSimilarityReport, error) {
	args := m.Called(ctx, gameID)
	report, _ := args.Get(0).(*models.PathSimilarityReport)
	return report, args.Error(1)
}
