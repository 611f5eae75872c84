package handler

import (
	"errors"
	"fmt"
	"net/http"

	"gamebook-server/internal/models"
	"gamebook-server/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Заголовок с id уже аутентифицированного вызывающего. Аутентификацию
// выполняет хост-приложение, мы доверяем заголовку как есть.
const callerIDHeader = "X-Player-ID"

// Handler обрабатывает HTTP запросы движка историй.
type Handler struct {
	stories   service.StoryService
	games     service.GameService
	analytics service.AnalyticsService
	logger    *zap.Logger
}

// NewHandler создает новый Handler.
func NewHandler(stories service.StoryService, games service.GameService, analytics service.AnalyticsService, logger *zap.Logger) *Handler {
	return &Handler{
		stories:   stories,
		games:     games,
		analytics: analytics,
		logger:    logger.Named("Handler"),
	}
}

// RequestValidator - адаптер go-playground/validator под echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator создает валидатор запросов.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}
	return nil
}

// RegisterRoutes регистрирует маршруты движка.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// --- Авторские операции над графом истории ---
	storiesGroup := e.Group("/stories")
	{
		storiesGroup.POST("", h.createStory)
		storiesGroup.GET("", h.listPublishedStories)
		storiesGroup.GET("/mine", h.listMyStories)
		storiesGroup.GET("/:id", h.getStory)
		storiesGroup.GET("/:id/pages", h.getStoryGraph)
		storiesGroup.POST("/:id/pages", h.createPage)
		storiesGroup.PUT("/:id/start-page", h.setStartPage)
		storiesGroup.POST("/:id/publish", h.publishStory)
		storiesGroup.POST("/:id/unpublish", h.unpublishStory)
		storiesGroup.POST("/:id/suspend", h.suspendStory)
		storiesGroup.POST("/:id/play", h.startGame)
		storiesGroup.GET("/:id/analytics/endings", h.getEndingDistribution)
		storiesGroup.GET("/:id/analytics/paths", h.getPathFrequencies)
	}

	pagesGroup := e.Group("/pages")
	{
		pagesGroup.PUT("/:id", h.updatePage)
		pagesGroup.DELETE("/:id", h.deletePage)
		pagesGroup.POST("/:id/ending", h.setEnding)
		pagesGroup.POST("/:id/choices", h.createChoice)
	}

	choicesGroup := e.Group("/choices")
	{
		choicesGroup.PUT("/:id", h.updateChoice)
		choicesGroup.DELETE("/:id", h.deleteChoice)
	}

	// --- Игровые операции ---
	gamesGroup := e.Group("/games")
	{
		gamesGroup.GET("/:id", h.getGame)
		gamesGroup.POST("/:id/choose", h.makeChoice)
		gamesGroup.POST("/:id/abandon", h.abandonGame)
		gamesGroup.GET("/:id/similarity", h.getPathSimilarity)
	}
}

// --- Вспомогательные функции --- //

// getCallerID извлекает id вызывающего из заголовка.
func getCallerID(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(callerIDHeader)
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing "+callerIDHeader+" header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid "+callerIDHeader+" header")
	}
	return id, nil
}

// parseIDParam парсит path-параметр как UUID.
func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s format", models.ErrBadRequest, name)
	}
	return id, nil
}

// handleServiceError отображает ошибки сервисов на HTTP статусы.
// Игровые НЕ-ошибки (неудачный бросок, нет предмета) сюда не попадают:
// они возвращаются как нормальный результат с success=false.
func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Forbidden"}
	case errors.Is(err, models.ErrSessionNotOwned):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrInvalidTarget),
		errors.Is(err, models.ErrSourceIsEnding),
		errors.Is(err, models.ErrIncompleteEndingData),
		errors.Is(err, models.ErrInvalidDiceType),
		errors.Is(err, models.ErrInvalidDiceRange),
		errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrHasOutgoingEdges),
		errors.Is(err, models.ErrNoStartPage),
		errors.Is(err, models.ErrStoryNotPlayable),
		errors.Is(err, models.ErrSessionNotInProgress),
		errors.Is(err, models.ErrChoiceNotOnCurrentPage),
		errors.Is(err, models.ErrSessionNotCompleted),
		errors.Is(err, models.ErrPageInUse):
		statusCode = http.StatusConflict // 409: состояние ресурса не позволяет операцию
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	return c.JSON(statusCode, apiErr)
}
