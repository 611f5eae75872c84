package service_test

import (
	"context"
	"errors"
	"testing"

	messagingMocks "gamebook-server/internal/messaging/mocks"
	"gamebook-server/internal/models"
	repositoryMocks "gamebook-server/internal/repository/mocks"
	"gamebook-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gameServiceFixture struct {
	storyRepo  *repositoryMocks.StoryRepository
	pageRepo   *repositoryMocks.PageRepository
	choiceRepo *repositoryMocks.ChoiceRepository
	gameRepo   *repositoryMocks.GameRepository
	publisher  *messagingMocks.EventPublisher
	cache      *repositoryMocks.AnalyticsCache
	svc        service.GameService
}

func newGameServiceFixture(roller service.DiceRoller) *gameServiceFixture {
	f := &gameServiceFixture{
		storyRepo:  new(repositoryMocks.StoryRepository),
		pageRepo:   new(repositoryMocks.PageRepository),
		choiceRepo: new(repositoryMocks.ChoiceRepository),
		gameRepo:   new(repositoryMocks.GameRepository),
		publisher:  new(messagingMocks.EventPublisher),
		cache:      new(repositoryMocks.AnalyticsCache),
	}
	f.svc = service.NewGameService(f.storyRepo, f.pageRepo, f.choiceRepo, f.gameRepo, f.publisher, f.cache, roller, zap.NewNop())
	return f
}

func publishedStory(authorID uuid.UUID, startPageID uuid.UUID) *models.Story {
	return &models.Story{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Title:       "The Cursed Keep",
		Status:      models.StoryStatusPublished,
		StartPageID: &startPageID,
		Combat:      models.DefaultCombatConfig(),
	}
}

func TestGameServiceStart(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()
	startPageID := uuid.New()

	t.Run("Starts on start page with initial stats", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), startPageID)

		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		f.gameRepo.On("Create", ctx, mock.MatchedBy(func(game *models.Game) bool {
			assert.Equal(t, models.GameStatusInProgress, game.Status)
			assert.Equal(t, startPageID, game.CurrentPageID)
			require.Len(t, game.Path, 1)
			assert.Equal(t, startPageID, game.Path[0].PageID)
			assert.Nil(t, game.Path[0].ChoiceID)
			assert.Equal(t, story.Combat.InitialStats, game.Stats)
			assert.Empty(t, game.Inventory)
			return true
		})).Return(nil).Once()
		f.storyRepo.On("IncrementTotalPlays", ctx, story.ID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesVisited", ctx, startPageID).Return(nil).Once()

		game, err := f.svc.Start(ctx, story.ID, playerID, false)
		require.NoError(t, err)
		assert.Equal(t, playerID, game.PlayerID)
		f.storyRepo.AssertExpectations(t)
		f.gameRepo.AssertExpectations(t)
		f.pageRepo.AssertExpectations(t)
	})

	t.Run("Preview does not count towards plays", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(playerID, startPageID)
		story.Status = models.StoryStatusDraft

		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		f.gameRepo.On("Create", ctx, mock.AnythingOfType("*models.Game")).Return(nil).Once()
		f.pageRepo.On("IncrementTimesVisited", ctx, startPageID).Return(nil).Once()

		game, err := f.svc.Start(ctx, story.ID, playerID, true)
		require.NoError(t, err)
		assert.True(t, game.IsPreview)
		f.storyRepo.AssertNotCalled(t, "IncrementTotalPlays", ctx, story.ID)
	})

	t.Run("Draft story not playable by non-author", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), startPageID)
		story.Status = models.StoryStatusDraft

		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()

		_, err := f.svc.Start(ctx, story.ID, playerID, true)
		assert.True(t, errors.Is(err, models.ErrStoryNotPlayable))
	})

	t.Run("Story without start page", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), startPageID)
		story.StartPageID = nil

		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()

		_, err := f.svc.Start(ctx, story.ID, playerID, false)
		assert.True(t, errors.Is(err, models.ErrNoStartPage))
	})
}

func TestGameServiceChoose(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()
	sourcePageID := uuid.New()
	targetPageID := uuid.New()

	newInProgressGame := func(story *models.Story) *models.Game {
		return &models.Game{
			ID:            uuid.New(),
			StoryID:       story.ID,
			PlayerID:      playerID,
			Status:        models.GameStatusInProgress,
			CurrentPageID: sourcePageID,
			Path:          []models.PathStep{{PageID: sourcePageID}},
			Inventory:     []string{},
			Stats:         story.Combat.InitialStats,
		}
	}

	t.Run("Successful choice advances session", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)
		choice := &models.Choice{
			ID:           uuid.New(),
			StoryID:      story.ID,
			SourcePageID: sourcePageID,
			TargetPageID: targetPageID,
			ItemGranted:  strPtr("torch"),
		}
		target := &models.Page{ID: targetPageID, StoryID: story.ID}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()
		f.choiceRepo.On("GetByID", ctx, choice.ID).Return(choice, nil).Once()
		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		f.pageRepo.On("GetByID", ctx, targetPageID).Return(target, nil).Once()
		f.gameRepo.On("Update", ctx, mock.MatchedBy(func(g *models.Game) bool {
			assert.Equal(t, targetPageID, g.CurrentPageID)
			require.Len(t, g.Path, 2)
			assert.Equal(t, targetPageID, g.Path[1].PageID)
			require.NotNil(t, g.Path[1].ChoiceID)
			assert.Equal(t, choice.ID, *g.Path[1].ChoiceID)
			assert.Contains(t, g.Inventory, "torch")
			return true
		})).Return(nil).Once()
		f.choiceRepo.On("IncrementTimesChosen", ctx, choice.ID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesVisited", ctx, targetPageID).Return(nil).Once()

		updated, outcome, err := f.svc.Choose(ctx, game.ID, playerID, choice.ID, nil)
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.False(t, outcome.EndingReached)
		assert.Equal(t, models.GameStatusInProgress, updated.Status)
		f.gameRepo.AssertExpectations(t)
	})

	t.Run("Failed dice roll leaves session untouched", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)
		choice := &models.Choice{
			ID:           uuid.New(),
			StoryID:      story.ID,
			SourcePageID: sourcePageID,
			TargetPageID: targetPageID,
			DiceGate:     &models.DiceGate{DiceType: models.DiceD20, MinValue: 10, MaxValue: 20},
		}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()
		f.choiceRepo.On("GetByID", ctx, choice.ID).Return(choice, nil).Once()
		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()

		updated, outcome, err := f.svc.Choose(ctx, game.ID, playerID, choice.ID, intPtr(5))
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, models.OutcomeReasonDiceFailed, outcome.Reason)
		assert.Equal(t, 5, *outcome.DiceRoll)
		assert.Equal(t, models.DiceRange{Min: 10, Max: 20}, *outcome.Required)
		assert.Equal(t, sourcePageID, updated.CurrentPageID)
		assert.Len(t, updated.Path, 1)
		f.gameRepo.AssertNotCalled(t, "Update", ctx, mock.Anything)
	})

	t.Run("Retry after failed roll can succeed", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)
		choice := &models.Choice{
			ID:           uuid.New(),
			StoryID:      story.ID,
			SourcePageID: sourcePageID,
			TargetPageID: targetPageID,
			DiceGate:     &models.DiceGate{DiceType: models.DiceD20, MinValue: 10, MaxValue: 20},
		}
		target := &models.Page{ID: targetPageID, StoryID: story.ID}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Twice()
		f.choiceRepo.On("GetByID", ctx, choice.ID).Return(choice, nil).Twice()
		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Twice()
		f.pageRepo.On("GetByID", ctx, targetPageID).Return(target, nil).Once()
		f.gameRepo.On("Update", ctx, mock.AnythingOfType("*models.Game")).Return(nil).Once()
		f.choiceRepo.On("IncrementTimesChosen", ctx, choice.ID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesVisited", ctx, targetPageID).Return(nil).Once()

		_, outcome, err := f.svc.Choose(ctx, game.ID, playerID, choice.ID, intPtr(3))
		require.NoError(t, err)
		assert.False(t, outcome.Success)

		_, outcome, err = f.svc.Choose(ctx, game.ID, playerID, choice.ID, intPtr(17))
		require.NoError(t, err)
		assert.True(t, outcome.Success)
	})

	t.Run("Reaching ending completes session", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)
		choice := &models.Choice{
			ID:           uuid.New(),
			StoryID:      story.ID,
			SourcePageID: sourcePageID,
			TargetPageID: targetPageID,
		}
		ending := &models.Page{
			ID:          targetPageID,
			StoryID:     story.ID,
			IsEnding:    true,
			EndingLabel: strPtr("Heroic Victory"),
			EndingType:  strPtr("good"),
		}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()
		f.choiceRepo.On("GetByID", ctx, choice.ID).Return(choice, nil).Once()
		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		f.pageRepo.On("GetByID", ctx, targetPageID).Return(ending, nil).Once()
		f.gameRepo.On("Update", ctx, mock.AnythingOfType("*models.Game")).Return(nil).Once()
		f.choiceRepo.On("IncrementTimesChosen", ctx, choice.ID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesVisited", ctx, targetPageID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesCompleted", ctx, targetPageID).Return(nil).Once()
		f.storyRepo.On("IncrementTotalCompletions", ctx, story.ID).Return(nil).Once()
		f.cache.On("InvalidateStory", ctx, story.ID).Return(nil).Once()
		f.publisher.On("PublishGameCompleted", ctx, mock.AnythingOfType("messaging.GameCompletedEvent")).Return(nil).Once()

		updated, outcome, err := f.svc.Choose(ctx, game.ID, playerID, choice.ID, nil)
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.True(t, outcome.EndingReached)
		assert.Equal(t, models.GameStatusCompleted, updated.Status)
		require.NotNil(t, updated.EndingPageID)
		assert.Equal(t, targetPageID, *updated.EndingPageID)
		require.NotNil(t, updated.CompletedAt)
		require.NotNil(t, updated.DurationSeconds)
		assert.GreaterOrEqual(t, *updated.DurationSeconds, int64(0))
		f.publisher.AssertExpectations(t)
		f.cache.AssertExpectations(t)
	})

	t.Run("Preview completion skips story counters and cache", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(playerID, sourcePageID)
		game := newInProgressGame(story)
		game.IsPreview = true
		choice := &models.Choice{ID: uuid.New(), StoryID: story.ID, SourcePageID: sourcePageID, TargetPageID: targetPageID}
		ending := &models.Page{ID: targetPageID, StoryID: story.ID, IsEnding: true}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()
		f.choiceRepo.On("GetByID", ctx, choice.ID).Return(choice, nil).Once()
		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		f.pageRepo.On("GetByID", ctx, targetPageID).Return(ending, nil).Once()
		f.gameRepo.On("Update", ctx, mock.AnythingOfType("*models.Game")).Return(nil).Once()
		f.choiceRepo.On("IncrementTimesChosen", ctx, choice.ID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesVisited", ctx, targetPageID).Return(nil).Once()
		f.pageRepo.On("IncrementTimesCompleted", ctx, targetPageID).Return(nil).Once()
		f.publisher.On("PublishGameCompleted", ctx, mock.AnythingOfType("messaging.GameCompletedEvent")).Return(nil).Once()

		_, _, err := f.svc.Choose(ctx, game.ID, playerID, choice.ID, nil)
		require.NoError(t, err)
		f.storyRepo.AssertNotCalled(t, "IncrementTotalCompletions", ctx, story.ID)
		f.cache.AssertNotCalled(t, "InvalidateStory", ctx, story.ID)
	})

	t.Run("Foreign session rejected", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()

		_, _, err := f.svc.Choose(ctx, game.ID, uuid.New(), uuid.New(), nil)
		assert.True(t, errors.Is(err, models.ErrSessionNotOwned))
	})

	t.Run("Completed session rejects further choices", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)
		game.Status = models.GameStatusCompleted

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()

		_, _, err := f.svc.Choose(ctx, game.ID, playerID, uuid.New(), nil)
		assert.True(t, errors.Is(err, models.ErrSessionNotInProgress))
	})

	t.Run("Choice from another page rejected", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		story := publishedStory(uuid.New(), sourcePageID)
		game := newInProgressGame(story)
		choice := &models.Choice{
			ID:           uuid.New(),
			StoryID:      story.ID,
			SourcePageID: uuid.New(),
			TargetPageID: targetPageID,
		}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()
		f.choiceRepo.On("GetByID", ctx, choice.ID).Return(choice, nil).Once()
		f.storyRepo.On("GetByID", ctx, story.ID).Return(story, nil).Once()

		_, _, err := f.svc.Choose(ctx, game.ID, playerID, choice.ID, nil)
		assert.True(t, errors.Is(err, models.ErrChoiceNotOnCurrentPage))
	})
}

func TestGameServiceAbandon(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	t.Run("Abandons in-progress session", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		game := &models.Game{ID: uuid.New(), PlayerID: playerID, Status: models.GameStatusInProgress}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()
		f.gameRepo.On("Update", ctx, mock.MatchedBy(func(g *models.Game) bool {
			return g.Status == models.GameStatusAbandoned
		})).Return(nil).Once()

		updated, err := f.svc.Abandon(ctx, game.ID, playerID)
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusAbandoned, updated.Status)
	})

	t.Run("Terminal statuses cannot be abandoned", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		game := &models.Game{ID: uuid.New(), PlayerID: playerID, Status: models.GameStatusCompleted}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()

		_, err := f.svc.Abandon(ctx, game.ID, playerID)
		assert.True(t, errors.Is(err, models.ErrSessionNotInProgress))
	})

	t.Run("Foreign session rejected", func(t *testing.T) {
		f := newGameServiceFixture(nil)
		game := &models.Game{ID: uuid.New(), PlayerID: playerID, Status: models.GameStatusInProgress}

		f.gameRepo.On("GetByID", ctx, game.ID).Return(game, nil).Once()

		_, err := f.svc.Abandon(ctx, game.ID, uuid.New())
		assert.True(t, errors.Is(err, models.ErrSessionNotOwned))
	})
}

func strPtr(s string) *string { return &s }
