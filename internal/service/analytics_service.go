package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gamebook-server/internal/models"
	"gamebook-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyticsService определяет интерфейс аналитики путей.
// Все агрегаты считаются по завершенным НЕ-превью сессиям; in_progress,
// abandoned и превью-сессии не участвуют нигде.
type AnalyticsService interface {
	EndingDistribution(ctx context.Context, storyID uuid.UUID) (*models.EndingDistribution, error)
	PathFrequencies(ctx context.Context, storyID uuid.UUID) (*models.PathFrequencyReport, error)
	PathSimilarity(ctx context.Context, gameID uuid.UUID) (*models.PathSimilarityReport, error)
}

type analyticsServiceImpl struct {
	gameRepo repository.GameRepository
	pageRepo repository.PageRepository
	cache    repository.AnalyticsCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAnalyticsService создает новый AnalyticsService. cache опционален:
// при nil все агрегаты считаются на каждый запрос.
func NewAnalyticsService(
	gameRepo repository.GameRepository,
	pageRepo repository.PageRepository,
	cache repository.AnalyticsCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsServiceImpl{
		gameRepo: gameRepo,
		pageRepo: pageRepo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.Named("AnalyticsService"),
	}
}

// pathFrequencyLimit - сколько самых частых последовательностей возвращаем.
const pathFrequencyLimit = 10

func (s *analyticsServiceImpl) EndingDistribution(ctx context.Context, storyID uuid.UUID) (*models.EndingDistribution, error) {
	cacheKey := fmt.Sprintf("analytics:endings:%s", storyID)
	var cached models.EndingDistribution
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	endings, err := s.pageRepo.ListEndingsByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки концовок: %w", err)
	}
	games, err := s.gameRepo.ListCompletedByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки завершенных сессий: %w", err)
	}

	counts := make(map[uuid.UUID]int, len(endings))
	for _, game := range games {
		if game.EndingPageID != nil {
			counts[*game.EndingPageID]++
		}
	}

	result := &models.EndingDistribution{
		StoryID:        storyID,
		TotalCompleted: len(games),
		Endings:        make([]models.EndingStat, 0, len(endings)),
	}
	for _, ending := range endings {
		stat := models.EndingStat{PageID: ending.ID, Count: counts[ending.ID]}
		if ending.EndingLabel != nil {
			stat.EndingLabel = *ending.EndingLabel
		}
		if ending.EndingType != nil {
			stat.EndingType = *ending.EndingType
		}
		if len(games) > 0 {
			stat.Percentage = round2(float64(stat.Count) * 100 / float64(len(games)))
		}
		result.Endings = append(result.Endings, stat)
	}

	s.cacheSet(ctx, cacheKey, result)
	return result, nil
}

func (s *analyticsServiceImpl) PathFrequencies(ctx context.Context, storyID uuid.UUID) (*models.PathFrequencyReport, error) {
	cacheKey := fmt.Sprintf("analytics:paths:%s", storyID)
	var cached models.PathFrequencyReport
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	games, err := s.gameRepo.ListCompletedByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки завершенных сессий: %w", err)
	}

	// Группируем по точной упорядоченной последовательности страниц.
	// Путь может повторно посещать узлы, ключ это сохраняет.
	type group struct {
		pageIDs []uuid.UUID
		count   int
	}
	groups := make(map[string]*group)
	for _, game := range games {
		ids := make([]uuid.UUID, len(game.Path))
		parts := make([]string, len(game.Path))
		for i, step := range game.Path {
			ids[i] = step.PageID
			parts[i] = step.PageID.String()
		}
		key := strings.Join(parts, ">")
		if g, ok := groups[key]; ok {
			g.count++
		} else {
			groups[key] = &group{pageIDs: ids, count: 1}
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	// Сортировка по убыванию частоты; при равенстве - по ключу,
	// чтобы выдача была детерминированной.
	sort.Slice(keys, func(i, j int) bool {
		if groups[keys[i]].count != groups[keys[j]].count {
			return groups[keys[i]].count > groups[keys[j]].count
		}
		return keys[i] < keys[j]
	})
	if len(keys) > pathFrequencyLimit {
		keys = keys[:pathFrequencyLimit]
	}

	result := &models.PathFrequencyReport{
		StoryID:        storyID,
		TotalCompleted: len(games),
		Paths:          make([]models.PathFrequency, 0, len(keys)),
	}
	for _, key := range keys {
		g := groups[key]
		result.Paths = append(result.Paths, models.PathFrequency{
			PageIDs:    g.pageIDs,
			Count:      g.count,
			Percentage: round2(float64(g.count) * 100 / float64(len(games))),
		})
	}

	s.cacheSet(ctx, cacheKey, result)
	return result, nil
}

// PathSimilarity сравнивает множества посещенных страниц (порядок и
// дубликаты игнорируются): |S∩G| / max(|S|,|G|) × 100, усредненное по
// всем остальным завершенным сессиям и округленное до целого.
func (s *analyticsServiceImpl) PathSimilarity(ctx context.Context, gameID uuid.UUID) (*models.PathSimilarityReport, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusCompleted {
		return nil, models.ErrSessionNotCompleted
	}

	cacheKey := fmt.Sprintf("analytics:similarity:%s:%s", game.StoryID, gameID)
	var cached models.PathSimilarityReport
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	others, err := s.gameRepo.ListCompletedByStory(ctx, game.StoryID)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки завершенных сессий: %w", err)
	}

	ownSet := game.VisitedPageSet()
	var sum float64
	compared := 0
	for i := range others {
		other := &others[i]
		if other.ID == game.ID {
			// Сессия с самой собой не сравнивается.
			continue
		}
		sum += setSimilarity(ownSet, other.VisitedPageSet())
		compared++
	}

	score := 100 // единственная завершенная сессия похожа на популяцию полностью
	if compared > 0 {
		score = int(math.Round(sum / float64(compared)))
	}

	result := &models.PathSimilarityReport{
		GameID:   gameID,
		StoryID:  game.StoryID,
		Score:    score,
		Compared: compared,
	}
	s.cacheSet(ctx, cacheKey, result)
	return result, nil
}

// setSimilarity - |a∩b| / max(|a|,|b|) × 100.
func setSimilarity(a, b map[uuid.UUID]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(intersection) * 100 / float64(denom)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// cacheGet/cacheSet - best-effort обертки: недоступный кэш не ломает запрос.
func (s *analyticsServiceImpl) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Analytics cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("Analytics cache payload corrupted", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *analyticsServiceImpl) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Analytics cache set failed", zap.String("key", key), zap.Error(err))
	}
}
