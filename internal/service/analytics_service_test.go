package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gamebook-server/internal/models"
	repositoryMocks "gamebook-server/internal/repository/mocks"
	"gamebook-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func completedGame(storyID uuid.UUID, endingID uuid.UUID, pageIDs ...uuid.UUID) models.Game {
	path := make([]models.PathStep, len(pageIDs))
	for i, id := range pageIDs {
		path[i] = models.PathStep{PageID: id}
	}
	return models.Game{
		ID:           uuid.New(),
		StoryID:      storyID,
		PlayerID:     uuid.New(),
		Status:       models.GameStatusCompleted,
		Path:         path,
		EndingPageID: &endingID,
	}
}

func TestAnalyticsEndingDistribution(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()
	goodEnding := models.Page{ID: uuid.New(), StoryID: storyID, IsEnding: true, EndingLabel: strPtr("Victory"), EndingType: strPtr("good")}
	badEnding := models.Page{ID: uuid.New(), StoryID: storyID, IsEnding: true, EndingLabel: strPtr("Defeat"), EndingType: strPtr("bad")}
	secretEnding := models.Page{ID: uuid.New(), StoryID: storyID, IsEnding: true, EndingLabel: strPtr("Hidden Path"), EndingType: strPtr("secret")}

	newFixture := func() (*repositoryMocks.GameRepository, *repositoryMocks.PageRepository, service.AnalyticsService) {
		gameRepo := new(repositoryMocks.GameRepository)
		pageRepo := new(repositoryMocks.PageRepository)
		svc := service.NewAnalyticsService(gameRepo, pageRepo, nil, time.Minute, zap.NewNop())
		return gameRepo, pageRepo, svc
	}

	t.Run("Percentages sum to 100 and include zero-count endings", func(t *testing.T) {
		gameRepo, pageRepo, svc := newFixture()
		pageRepo.On("ListEndingsByStory", ctx, storyID).Return([]models.Page{goodEnding, badEnding, secretEnding}, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{
			completedGame(storyID, goodEnding.ID),
			completedGame(storyID, goodEnding.ID),
			completedGame(storyID, badEnding.ID),
		}, nil).Once()

		dist, err := svc.EndingDistribution(ctx, storyID)
		require.NoError(t, err)
		assert.Equal(t, 3, dist.TotalCompleted)
		require.Len(t, dist.Endings, 3)

		byID := make(map[uuid.UUID]models.EndingStat)
		var total float64
		for _, stat := range dist.Endings {
			byID[stat.PageID] = stat
			total += stat.Percentage
		}
		assert.InDelta(t, 100, total, 0.02)
		assert.Equal(t, 2, byID[goodEnding.ID].Count)
		assert.InDelta(t, 66.67, byID[goodEnding.ID].Percentage, 0.001)
		assert.Equal(t, 1, byID[badEnding.ID].Count)
		assert.InDelta(t, 33.33, byID[badEnding.ID].Percentage, 0.001)
		// Недостигнутая концовка присутствует с нулями.
		assert.Equal(t, 0, byID[secretEnding.ID].Count)
		assert.Equal(t, float64(0), byID[secretEnding.ID].Percentage)
	})

	t.Run("No completed sessions", func(t *testing.T) {
		gameRepo, pageRepo, svc := newFixture()
		pageRepo.On("ListEndingsByStory", ctx, storyID).Return([]models.Page{goodEnding}, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{}, nil).Once()

		dist, err := svc.EndingDistribution(ctx, storyID)
		require.NoError(t, err)
		assert.Equal(t, 0, dist.TotalCompleted)
		require.Len(t, dist.Endings, 1)
		assert.Equal(t, float64(0), dist.Endings[0].Percentage)
	})

	t.Run("Served from cache when present", func(t *testing.T) {
		gameRepo := new(repositoryMocks.GameRepository)
		pageRepo := new(repositoryMocks.PageRepository)
		cache := new(repositoryMocks.AnalyticsCache)
		svc := service.NewAnalyticsService(gameRepo, pageRepo, cache, time.Minute, zap.NewNop())

		cached := models.EndingDistribution{StoryID: storyID, TotalCompleted: 42}
		payload, err := json.Marshal(cached)
		require.NoError(t, err)
		cache.On("Get", ctx, mock.AnythingOfType("string")).Return(payload, true, nil).Once()

		dist, err := svc.EndingDistribution(ctx, storyID)
		require.NoError(t, err)
		assert.Equal(t, 42, dist.TotalCompleted)
		gameRepo.AssertNotCalled(t, "ListCompletedByStory", ctx, storyID)
	})

	t.Run("Cache failure falls back to computation", func(t *testing.T) {
		gameRepo := new(repositoryMocks.GameRepository)
		pageRepo := new(repositoryMocks.PageRepository)
		cache := new(repositoryMocks.AnalyticsCache)
		svc := service.NewAnalyticsService(gameRepo, pageRepo, cache, time.Minute, zap.NewNop())

		cache.On("Get", ctx, mock.AnythingOfType("string")).Return(nil, false, errors.New("redis down")).Once()
		cache.On("Set", ctx, mock.AnythingOfType("string"), mock.Anything, time.Minute).Return(errors.New("redis down")).Once()
		pageRepo.On("ListEndingsByStory", ctx, storyID).Return([]models.Page{goodEnding}, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{completedGame(storyID, goodEnding.ID)}, nil).Once()

		dist, err := svc.EndingDistribution(ctx, storyID)
		require.NoError(t, err)
		assert.Equal(t, 1, dist.TotalCompleted)
	})
}

func TestAnalyticsPathFrequencies(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()
	endingID := uuid.New()
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	t.Run("Groups by exact ordered sequence", func(t *testing.T) {
		gameRepo := new(repositoryMocks.GameRepository)
		pageRepo := new(repositoryMocks.PageRepository)
		svc := service.NewAnalyticsService(gameRepo, pageRepo, nil, time.Minute, zap.NewNop())

		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{
			completedGame(storyID, endingID, p1, p2, p3),
			completedGame(storyID, endingID, p1, p2, p3),
			completedGame(storyID, endingID, p1, p3),
		}, nil).Once()

		report, err := svc.PathFrequencies(ctx, storyID)
		require.NoError(t, err)
		assert.Equal(t, 3, report.TotalCompleted)
		require.Len(t, report.Paths, 2)
		assert.Equal(t, []uuid.UUID{p1, p2, p3}, report.Paths[0].PageIDs)
		assert.Equal(t, 2, report.Paths[0].Count)
		assert.InDelta(t, 66.67, report.Paths[0].Percentage, 0.001)
		assert.Equal(t, 1, report.Paths[1].Count)
	})

	t.Run("Caps at ten sequences", func(t *testing.T) {
		gameRepo := new(repositoryMocks.GameRepository)
		pageRepo := new(repositoryMocks.PageRepository)
		svc := service.NewAnalyticsService(gameRepo, pageRepo, nil, time.Minute, zap.NewNop())

		games := make([]models.Game, 0, 12)
		for i := 0; i < 12; i++ {
			games = append(games, completedGame(storyID, endingID, p1, uuid.New()))
		}
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return(games, nil).Once()

		report, err := svc.PathFrequencies(ctx, storyID)
		require.NoError(t, err)
		assert.Len(t, report.Paths, 10)
	})
}

func TestAnalyticsPathSimilarity(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()
	endingID := uuid.New()
	p1, p2, p3, p4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	newFixture := func() (*repositoryMocks.GameRepository, service.AnalyticsService) {
		gameRepo := new(repositoryMocks.GameRepository)
		pageRepo := new(repositoryMocks.PageRepository)
		svc := service.NewAnalyticsService(gameRepo, pageRepo, nil, time.Minute, zap.NewNop())
		return gameRepo, svc
	}

	t.Run("Set overlap against one other session", func(t *testing.T) {
		gameRepo, svc := newFixture()
		own := completedGame(storyID, endingID, p1, p2, p4)
		other := completedGame(storyID, endingID, p1, p3, p4)

		gameRepo.On("GetByID", ctx, own.ID).Return(&own, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{own, other}, nil).Once()

		report, err := svc.PathSimilarity(ctx, own.ID)
		require.NoError(t, err)
		// Пересечение {p1,p4} из трех страниц: 2/3 ≈ 67.
		assert.Equal(t, 67, report.Score)
		assert.Equal(t, 1, report.Compared)
	})

	t.Run("Identical paths score 100", func(t *testing.T) {
		gameRepo, svc := newFixture()
		own := completedGame(storyID, endingID, p1, p2, p3)
		twin := completedGame(storyID, endingID, p1, p2, p3)

		gameRepo.On("GetByID", ctx, own.ID).Return(&own, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{own, twin}, nil).Once()

		report, err := svc.PathSimilarity(ctx, own.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, report.Score)
	})

	t.Run("Only completed session scores 100", func(t *testing.T) {
		gameRepo, svc := newFixture()
		own := completedGame(storyID, endingID, p1, p2)

		gameRepo.On("GetByID", ctx, own.ID).Return(&own, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{own}, nil).Once()

		report, err := svc.PathSimilarity(ctx, own.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, report.Score)
		assert.Equal(t, 0, report.Compared)
	})

	t.Run("Unfinished session rejected", func(t *testing.T) {
		gameRepo, svc := newFixture()
		own := completedGame(storyID, endingID, p1)
		own.Status = models.GameStatusInProgress

		gameRepo.On("GetByID", ctx, own.ID).Return(&own, nil).Once()

		_, err := svc.PathSimilarity(ctx, own.ID)
		assert.True(t, errors.Is(err, models.ErrSessionNotCompleted))
	})

	t.Run("Repeat visits collapse into the set", func(t *testing.T) {
		gameRepo, svc := newFixture()
		own := completedGame(storyID, endingID, p1, p2, p1, p2, p3)
		other := completedGame(storyID, endingID, p1, p2, p3)

		gameRepo.On("GetByID", ctx, own.ID).Return(&own, nil).Once()
		gameRepo.On("ListCompletedByStory", ctx, storyID).Return([]models.Game{own, other}, nil).Once()

		report, err := svc.PathSimilarity(ctx, own.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, report.Score)
	})
}
