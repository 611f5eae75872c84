package service

import (
	"context"
	"fmt"
	"time"

	"gamebook-server/internal/messaging"
	"gamebook-server/internal/metrics"
	"gamebook-server/internal/models"
	"gamebook-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameService определяет интерфейс машины состояний игровой сессии.
// Переходы: in_progress -> completed (достигнута концовка),
// in_progress -> abandoned (явное действие игрока). Оба терминальны.
type GameService interface {
	Start(ctx context.Context, storyID, playerID uuid.UUID, isPreview bool) (*models.Game, error)
	Choose(ctx context.Context, gameID, callerID, choiceID uuid.UUID, suppliedRoll *int) (*models.Game, *models.ChoiceOutcome, error)
	Abandon(ctx context.Context, gameID, callerID uuid.UUID) (*models.Game, error)
	Get(ctx context.Context, gameID, callerID uuid.UUID) (*models.Game, error)
}

type gameServiceImpl struct {
	storyRepo  repository.StoryRepository
	pageRepo   repository.PageRepository
	choiceRepo repository.ChoiceRepository
	gameRepo   repository.GameRepository
	publisher  messaging.EventPublisher
	cache      repository.AnalyticsCache
	roller     DiceRoller
	logger     *zap.Logger
}

// NewGameService создает новый GameService. publisher и cache опциональны
// (nil допустим); roller nil означает DefaultDiceRoller.
func NewGameService(
	storyRepo repository.StoryRepository,
	pageRepo repository.PageRepository,
	choiceRepo repository.ChoiceRepository,
	gameRepo repository.GameRepository,
	publisher messaging.EventPublisher,
	cache repository.AnalyticsCache,
	roller DiceRoller,
	logger *zap.Logger,
) GameService {
	if roller == nil {
		roller = DefaultDiceRoller
	}
	return &gameServiceImpl{
		storyRepo:  storyRepo,
		pageRepo:   pageRepo,
		choiceRepo: choiceRepo,
		gameRepo:   gameRepo,
		publisher:  publisher,
		cache:      cache,
		roller:     roller,
		logger:     logger.Named("GameService"),
	}
}

// Start создает сессию на стартовой странице истории.
// Непубликуемая история играбельна только как превью самим автором.
func (s *gameServiceImpl) Start(ctx context.Context, storyID, playerID uuid.UUID, isPreview bool) (*models.Game, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !story.IsPlayable() {
		// Неопубликованная история играбельна только автору как превью.
		if story.Status != models.StoryStatusPublished && (!isPreview || story.AuthorID != playerID) {
			return nil, models.ErrStoryNotPlayable
		}
		if story.StartPageID == nil {
			return nil, models.ErrNoStartPage
		}
	}
	startPageID := *story.StartPageID

	now := time.Now().UTC()
	game := &models.Game{
		ID:            uuid.New(),
		StoryID:       storyID,
		PlayerID:      playerID,
		Status:        models.GameStatusInProgress,
		CurrentPageID: startPageID,
		Path:          []models.PathStep{{PageID: startPageID, Timestamp: now}},
		Inventory:     []string{},
		Stats:         story.Combat.InitialStats,
		IsPreview:     isPreview,
		StartedAt:     now,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("ошибка создания сессии: %w", err)
	}

	// Счетчики - атомарные инкременты; read-modify-write недопустим.
	if !isPreview {
		if err := s.storyRepo.IncrementTotalPlays(ctx, storyID); err != nil {
			s.logger.Warn("Failed to increment story plays", zap.String("storyID", storyID.String()), zap.Error(err))
		}
	}
	if err := s.pageRepo.IncrementTimesVisited(ctx, startPageID); err != nil {
		s.logger.Warn("Failed to increment start page visits", zap.String("pageID", startPageID.String()), zap.Error(err))
	}
	metrics.GamesStarted.Inc()

	s.logger.Info("Game started",
		zap.String("gameID", game.ID.String()),
		zap.String("storyID", storyID.String()),
		zap.String("playerID", playerID.String()),
		zap.Bool("isPreview", isPreview))
	return game, nil
}

// Choose продвигает сессию по выбранному ребру. Неуспешный исход
// (неудачный бросок, нет предмета) возвращается значением и не мутирует
// сессию вообще - игрок может повторить попытку.
func (s *gameServiceImpl) Choose(ctx context.Context, gameID, callerID, choiceID uuid.UUID, suppliedRoll *int) (*models.Game, *models.ChoiceOutcome, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if game.PlayerID != callerID {
		return nil, nil, models.ErrSessionNotOwned
	}
	if game.Status != models.GameStatusInProgress {
		return nil, nil, models.ErrSessionNotInProgress
	}

	choice, err := s.choiceRepo.GetByID(ctx, choiceID)
	if err != nil {
		return nil, nil, err
	}

	story, err := s.storyRepo.GetByID(ctx, game.StoryID)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := ResolveChoice(game, choice, suppliedRoll, s.roller, story.Combat)
	if err != nil {
		return nil, nil, err
	}
	if !outcome.Success {
		if outcome.Reason == models.OutcomeReasonDiceFailed {
			metrics.DiceRolls.WithLabelValues("failure").Inc()
		}
		return game, outcome, nil
	}
	if outcome.DiceRoll != nil {
		metrics.DiceRolls.WithLabelValues("success").Inc()
	}

	target, err := s.pageRepo.GetByID(ctx, outcome.TargetPageID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	game.Path = append(game.Path, models.PathStep{
		PageID:    target.ID,
		ChoiceID:  &choice.ID,
		DiceRoll:  outcome.DiceRoll,
		Timestamp: now,
	})
	game.CurrentPageID = target.ID
	game.Stats = outcome.NewStats
	if outcome.ItemGranted != nil && !game.HasItem(*outcome.ItemGranted) {
		game.Inventory = append(game.Inventory, *outcome.ItemGranted)
	}

	if target.IsEnding {
		outcome.EndingReached = true
		game.Status = models.GameStatusCompleted
		game.EndingPageID = &target.ID
		game.CompletedAt = &now
		duration := int64(now.Sub(game.StartedAt) / time.Second) // целые секунды, с округлением вниз
		game.DurationSeconds = &duration
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		return nil, nil, fmt.Errorf("ошибка сохранения сессии: %w", err)
	}

	if err := s.choiceRepo.IncrementTimesChosen(ctx, choice.ID); err != nil {
		s.logger.Warn("Failed to increment choice counter", zap.String("choiceID", choice.ID.String()), zap.Error(err))
	}
	if err := s.pageRepo.IncrementTimesVisited(ctx, target.ID); err != nil {
		s.logger.Warn("Failed to increment page visits", zap.String("pageID", target.ID.String()), zap.Error(err))
	}

	if target.IsEnding {
		s.finishGame(ctx, game, target)
	}
	return game, outcome, nil
}

// finishGame выполняет бухгалтерию завершения: счетчики, событие,
// сброс кэша аналитики. Все шаги best-effort - сессия уже завершена.
func (s *gameServiceImpl) finishGame(ctx context.Context, game *models.Game, ending *models.Page) {
	if err := s.pageRepo.IncrementTimesCompleted(ctx, ending.ID); err != nil {
		s.logger.Warn("Failed to increment page completions", zap.String("pageID", ending.ID.String()), zap.Error(err))
	}
	if !game.IsPreview {
		if err := s.storyRepo.IncrementTotalCompletions(ctx, game.StoryID); err != nil {
			s.logger.Warn("Failed to increment story completions", zap.String("storyID", game.StoryID.String()), zap.Error(err))
		}
	}
	metrics.GamesCompleted.Inc()

	if s.cache != nil && !game.IsPreview {
		if err := s.cache.InvalidateStory(ctx, game.StoryID); err != nil {
			s.logger.Warn("Failed to invalidate analytics cache", zap.String("storyID", game.StoryID.String()), zap.Error(err))
		}
	}

	if s.publisher != nil {
		var duration int64
		if game.DurationSeconds != nil {
			duration = *game.DurationSeconds
		}
		event := messaging.GameCompletedEvent{
			GameID:          game.ID.String(),
			StoryID:         game.StoryID.String(),
			PlayerID:        game.PlayerID.String(),
			EndingPageID:    ending.ID.String(),
			IsPreview:       game.IsPreview,
			DurationSeconds: duration,
			CompletedAt:     *game.CompletedAt,
		}
		if err := s.publisher.PublishGameCompleted(ctx, event); err != nil {
			s.logger.Warn("Failed to publish game.completed event", zap.String("gameID", game.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Game completed",
		zap.String("gameID", game.ID.String()),
		zap.String("endingPageID", ending.ID.String()),
		zap.Int("pagesVisited", game.PagesVisited()))
}

// Abandon - единственный разрешенный переход из in_progress помимо
// завершения. Сам движок таймауты не инициирует.
func (s *gameServiceImpl) Abandon(ctx context.Context, gameID, callerID uuid.UUID) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.PlayerID != callerID {
		return nil, models.ErrSessionNotOwned
	}
	if game.Status != models.GameStatusInProgress {
		return nil, models.ErrSessionNotInProgress
	}
	game.Status = models.GameStatusAbandoned
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	metrics.GamesAbandoned.Inc()
	s.logger.Info("Game abandoned", zap.String("gameID", gameID.String()))
	return game, nil
}

func (s *gameServiceImpl) Get(ctx context.Context, gameID, callerID uuid.UUID) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.PlayerID != callerID {
		return nil, models.ErrSessionNotOwned
	}
	return game, nil
}
