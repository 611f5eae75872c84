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

// ChoiceParams - параметры создания/обновления выбора.
type ChoiceParams struct {
	TargetPageID     uuid.UUID
	Text             string
	DiceGate         *models.DiceGate
	ItemRequired     *string
	ItemGranted      *string
	StatDelta        *models.StatBlock
	TimeLimitSeconds *int
}

// StoryGraph - страницы истории вместе со смежностью (выборы по страницам).
type StoryGraph struct {
	Pages   []models.Page              `json:"pages"`
	Choices map[string][]models.Choice `json:"choices"` // ключ - id страницы-источника
}

// StoryService определяет интерфейс авторских операций над графом истории.
// Политика авторизации внешняя, но владение проверяется: мутировать
// историю может только ее автор.
type StoryService interface {
	CreateStory(ctx context.Context, authorID uuid.UUID, title, description string, combat *models.CombatConfig) (*models.Story, error)
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Story, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Story, error)
	GetGraph(ctx context.Context, authorID, storyID uuid.UUID) (*StoryGraph, error)

	CreatePage(ctx context.Context, authorID, storyID uuid.UUID, content string) (*models.Page, error)
	UpdatePage(ctx context.Context, authorID, pageID uuid.UUID, content string, hotspots []models.Hotspot) (*models.Page, error)
	DeletePage(ctx context.Context, authorID, pageID uuid.UUID) error
	SetEnding(ctx context.Context, authorID, pageID uuid.UUID, label, endingType string) (*models.Page, error)

	CreateChoice(ctx context.Context, authorID, sourcePageID uuid.UUID, params ChoiceParams) (*models.Choice, error)
	UpdateChoice(ctx context.Context, authorID, choiceID uuid.UUID, params ChoiceParams) (*models.Choice, error)
	DeleteChoice(ctx context.Context, authorID, choiceID uuid.UUID) error

	SetStartPage(ctx context.Context, authorID, storyID, pageID uuid.UUID) error
	Publish(ctx context.Context, authorID, storyID uuid.UUID) error
	Unpublish(ctx context.Context, authorID, storyID uuid.UUID) error
	Suspend(ctx context.Context, storyID uuid.UUID) error
}

type storyServiceImpl struct {
	storyRepo  repository.StoryRepository
	pageRepo   repository.PageRepository
	choiceRepo repository.ChoiceRepository
	gameRepo   repository.GameRepository
	publisher  messaging.EventPublisher
	logger     *zap.Logger
}

// NewStoryService создает новый StoryService.
func NewStoryService(
	storyRepo repository.StoryRepository,
	pageRepo repository.PageRepository,
	choiceRepo repository.ChoiceRepository,
	gameRepo repository.GameRepository,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		storyRepo:  storyRepo,
		pageRepo:   pageRepo,
		choiceRepo: choiceRepo,
		gameRepo:   gameRepo,
		publisher:  publisher,
		logger:     logger.Named("StoryService"),
	}
}

func (s *storyServiceImpl) CreateStory(ctx context.Context, authorID uuid.UUID, title, description string, combat *models.CombatConfig) (*models.Story, error) {
	now := time.Now().UTC()
	story := &models.Story{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		Status:      models.StoryStatusDraft,
		Combat:      models.DefaultCombatConfig(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if combat != nil {
		story.Combat = *combat
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("ошибка сохранения истории: %w", err)
	}
	s.logger.Info("Story created", zap.String("storyID", story.ID.String()), zap.String("authorID", authorID.String()))
	return story, nil
}

func (s *storyServiceImpl) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	return s.storyRepo.GetByID(ctx, id)
}

func (s *storyServiceImpl) ListPublished(ctx context.Context, limit, offset int) ([]models.Story, error) {
	return s.storyRepo.ListByStatus(ctx, models.StoryStatusPublished, limit, offset)
}

func (s *storyServiceImpl) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Story, error) {
	return s.storyRepo.ListByAuthor(ctx, authorID, limit, offset)
}

func (s *storyServiceImpl) GetGraph(ctx context.Context, authorID, storyID uuid.UUID) (*StoryGraph, error) {
	if _, err := s.ownedStory(ctx, authorID, storyID); err != nil {
		return nil, err
	}
	pages, err := s.pageRepo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	graph := &StoryGraph{Pages: pages, Choices: make(map[string][]models.Choice, len(pages))}
	for _, page := range pages {
		choices, err := s.choiceRepo.ListBySourcePage(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		if len(choices) > 0 {
			graph.Choices[page.ID.String()] = choices
		}
	}
	return graph, nil
}

func (s *storyServiceImpl) CreatePage(ctx context.Context, authorID, storyID uuid.UUID, content string) (*models.Page, error) {
	if _, err := s.ownedStory(ctx, authorID, storyID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	page := &models.Page{
		ID:        uuid.New(),
		StoryID:   storyID,
		Content:   content,
		Hotspots:  []models.Hotspot{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.pageRepo.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("ошибка сохранения страницы: %w", err)
	}
	return page, nil
}

func (s *storyServiceImpl) UpdatePage(ctx context.Context, authorID, pageID uuid.UUID, content string, hotspots []models.Hotspot) (*models.Page, error) {
	page, err := s.ownedPage(ctx, authorID, pageID)
	if err != nil {
		return nil, err
	}
	if page.IsEnding && len(hotspots) > 0 {
		return nil, models.ErrHasOutgoingEdges
	}
	// Хотспоты - те же исходящие ребра: цель обязана существовать
	// и принадлежать той же истории.
	for _, hs := range hotspots {
		target, err := s.pageRepo.GetByID(ctx, hs.TargetPageID)
		if err != nil {
			return nil, models.ErrInvalidTarget
		}
		if target.StoryID != page.StoryID {
			return nil, models.ErrInvalidTarget
		}
	}
	page.Content = content
	page.Hotspots = hotspots
	if page.Hotspots == nil {
		page.Hotspots = []models.Hotspot{}
	}
	if err := s.pageRepo.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("ошибка обновления страницы: %w", err)
	}
	return page, nil
}

// DeletePage удаляет страницу каскадно: выборы, где она источник или цель,
// удаляются FK-каскадом; хотспоты других страниц, указывающие на нее,
// вычищаются здесь; стартовая страница истории сбрасывается в null
// (история становится непубликуемой до переназначения).
func (s *storyServiceImpl) DeletePage(ctx context.Context, authorID, pageID uuid.UUID) error {
	page, err := s.ownedPage(ctx, authorID, pageID)
	if err != nil {
		return err
	}

	// Страницу, на которой стоит активная сессия, трогать нельзя.
	active, err := s.gameRepo.CountInProgressOnPage(ctx, pageID)
	if err != nil {
		return fmt.Errorf("ошибка проверки активных сессий: %w", err)
	}
	if active > 0 {
		return models.ErrPageInUse
	}

	story, err := s.storyRepo.GetByID(ctx, page.StoryID)
	if err != nil {
		return err
	}

	siblings, err := s.pageRepo.ListByStory(ctx, page.StoryID)
	if err != nil {
		return err
	}
	for i := range siblings {
		sibling := &siblings[i]
		if sibling.ID == pageID {
			continue
		}
		kept := sibling.Hotspots[:0]
		for _, hs := range sibling.Hotspots {
			if hs.TargetPageID != pageID {
				kept = append(kept, hs)
			}
		}
		if len(kept) != len(sibling.Hotspots) {
			sibling.Hotspots = kept
			if err := s.pageRepo.Update(ctx, sibling); err != nil {
				return fmt.Errorf("ошибка очистки хотспотов: %w", err)
			}
		}
	}

	if err := s.pageRepo.Delete(ctx, pageID); err != nil {
		return err
	}

	if story.StartPageID != nil && *story.StartPageID == pageID {
		story.StartPageID = nil
		if story.Status == models.StoryStatusPublished {
			// Без стартовой страницы история не может оставаться
			// опубликованной.
			story.Status = models.StoryStatusDraft
		}
		if err := s.storyRepo.Update(ctx, story); err != nil {
			return fmt.Errorf("ошибка сброса стартовой страницы: %w", err)
		}
		s.logger.Warn("Start page deleted, story unpublished",
			zap.String("storyID", story.ID.String()), zap.String("pageID", pageID.String()))
	}
	return nil
}

func (s *storyServiceImpl) SetEnding(ctx context.Context, authorID, pageID uuid.UUID, label, endingType string) (*models.Page, error) {
	if label == "" || endingType == "" {
		return nil, models.ErrIncompleteEndingData
	}
	page, err := s.ownedPage(ctx, authorID, pageID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.choiceRepo.CountBySourcePage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if outgoing > 0 || len(page.Hotspots) > 0 {
		return nil, models.ErrHasOutgoingEdges
	}
	page.IsEnding = true
	page.EndingLabel = &label
	page.EndingType = &endingType
	if err := s.pageRepo.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("ошибка обновления страницы: %w", err)
	}
	return page, nil
}

func (s *storyServiceImpl) CreateChoice(ctx context.Context, authorID, sourcePageID uuid.UUID, params ChoiceParams) (*models.Choice, error) {
	source, err := s.ownedPage(ctx, authorID, sourcePageID)
	if err != nil {
		return nil, err
	}
	if source.IsEnding {
		return nil, models.ErrSourceIsEnding
	}
	if err := s.validateChoiceParams(ctx, source.StoryID, params); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	choice := &models.Choice{
		ID:               uuid.New(),
		StoryID:          source.StoryID,
		SourcePageID:     sourcePageID,
		TargetPageID:     params.TargetPageID,
		Text:             params.Text,
		DiceGate:         params.DiceGate,
		ItemRequired:     params.ItemRequired,
		ItemGranted:      params.ItemGranted,
		StatDelta:        params.StatDelta,
		TimeLimitSeconds: params.TimeLimitSeconds,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.choiceRepo.Create(ctx, choice); err != nil {
		return nil, fmt.Errorf("ошибка сохранения выбора: %w", err)
	}
	return choice, nil
}

func (s *storyServiceImpl) UpdateChoice(ctx context.Context, authorID, choiceID uuid.UUID, params ChoiceParams) (*models.Choice, error) {
	choice, err := s.choiceRepo.GetByID(ctx, choiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedStory(ctx, authorID, choice.StoryID); err != nil {
		return nil, err
	}
	// Инвариант цели проверяется и при обновлении.
	if err := s.validateChoiceParams(ctx, choice.StoryID, params); err != nil {
		return nil, err
	}
	choice.TargetPageID = params.TargetPageID
	choice.Text = params.Text
	choice.DiceGate = params.DiceGate
	choice.ItemRequired = params.ItemRequired
	choice.ItemGranted = params.ItemGranted
	choice.StatDelta = params.StatDelta
	choice.TimeLimitSeconds = params.TimeLimitSeconds
	if err := s.choiceRepo.Update(ctx, choice); err != nil {
		return nil, fmt.Errorf("ошибка обновления выбора: %w", err)
	}
	return choice, nil
}

func (s *storyServiceImpl) DeleteChoice(ctx context.Context, authorID, choiceID uuid.UUID) error {
	choice, err := s.choiceRepo.GetByID(ctx, choiceID)
	if err != nil {
		return err
	}
	if _, err := s.ownedStory(ctx, authorID, choice.StoryID); err != nil {
		return err
	}
	return s.choiceRepo.Delete(ctx, choiceID)
}

func (s *storyServiceImpl) SetStartPage(ctx context.Context, authorID, storyID, pageID uuid.UUID) error {
	story, err := s.ownedStory(ctx, authorID, storyID)
	if err != nil {
		return err
	}
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return err
	}
	if page.StoryID != storyID {
		return models.ErrInvalidTarget
	}
	story.StartPageID = &pageID
	if err := s.storyRepo.Update(ctx, story); err != nil {
		return fmt.Errorf("ошибка назначения стартовой страницы: %w", err)
	}
	return nil
}

func (s *storyServiceImpl) Publish(ctx context.Context, authorID, storyID uuid.UUID) error {
	story, err := s.ownedStory(ctx, authorID, storyID)
	if err != nil {
		return err
	}
	if story.StartPageID == nil {
		return models.ErrNoStartPage
	}
	story.Status = models.StoryStatusPublished
	if err := s.storyRepo.Update(ctx, story); err != nil {
		return fmt.Errorf("ошибка публикации истории: %w", err)
	}
	metrics.StoriesPublished.Inc()

	if s.publisher != nil {
		event := messaging.StoryPublishedEvent{
			StoryID:     story.ID.String(),
			AuthorID:    story.AuthorID.String(),
			Title:       story.Title,
			PublishedAt: time.Now().UTC(),
		}
		if err := s.publisher.PublishStoryPublished(ctx, event); err != nil {
			// Событие best-effort: публикация истории уже состоялась.
			s.logger.Warn("Failed to publish story.published event",
				zap.String("storyID", story.ID.String()), zap.Error(err))
		}
	}
	s.logger.Info("Story published", zap.String("storyID", story.ID.String()))
	return nil
}

func (s *storyServiceImpl) Unpublish(ctx context.Context, authorID, storyID uuid.UUID) error {
	story, err := s.ownedStory(ctx, authorID, storyID)
	if err != nil {
		return err
	}
	story.Status = models.StoryStatusDraft
	if err := s.storyRepo.Update(ctx, story); err != nil {
		return fmt.Errorf("ошибка снятия истории с публикации: %w", err)
	}
	return nil
}

// Suspend - хук модерации; вызывается хост-приложением, владение не проверяется.
func (s *storyServiceImpl) Suspend(ctx context.Context, storyID uuid.UUID) error {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	story.Status = models.StoryStatusSuspended
	if err := s.storyRepo.Update(ctx, story); err != nil {
		return fmt.Errorf("ошибка приостановки истории: %w", err)
	}
	s.logger.Info("Story suspended", zap.String("storyID", storyID.String()))
	return nil
}

// validateChoiceParams проверяет инварианты ребра: цель существует,
// принадлежит той же истории, dice-гейт корректен.
func (s *storyServiceImpl) validateChoiceParams(ctx context.Context, storyID uuid.UUID, params ChoiceParams) error {
	target, err := s.pageRepo.GetByID(ctx, params.TargetPageID)
	if err != nil {
		return models.ErrInvalidTarget
	}
	if target.StoryID != storyID {
		return models.ErrInvalidTarget
	}
	if params.DiceGate != nil {
		if err := params.DiceGate.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *storyServiceImpl) ownedStory(ctx context.Context, authorID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.AuthorID != authorID {
		return nil, models.ErrForbidden
	}
	return story, nil
}

func (s *storyServiceImpl) ownedPage(ctx context.Context, authorID, pageID uuid.UUID) (*models.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedStory(ctx, authorID, page.StoryID); err != nil {
		return nil, err
	}
	return page, nil
}
