package handler

import (
	"net/http"

	"gamebook-server/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// startGame создает игровую сессию по опубликованной истории
// (или превью-сессию автора по черновику).
func (h *Handler) startGame(c echo.Context) error {
	playerID, err := getCallerID(c)
	if err != nil {
		return err
	}
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	var req StartGameRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}

	log := h.logger.With(zap.String("storyID", storyID.String()), zap.String("playerID", playerID.String()))
	game, err := h.games.Start(c.Request().Context(), storyID, playerID, req.IsPreview)
	if err != nil {
		log.Warn("Failed to start game", zap.Error(err))
		return handleServiceError(c, err)
	}
	log.Info("Game started", zap.String("gameID", game.ID.String()))
	return c.JSON(http.StatusCreated, toGameResponse(game))
}

// makeChoice обрабатывает ход игрока. Неудачный бросок и отсутствие
// предмета - нормальные исходы (200, success=false), не ошибки.
func (h *Handler) makeChoice(c echo.Context) error {
	playerID, err := getCallerID(c)
	if err != nil {
		return err
	}
	gameID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	var req MakeChoiceRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return handleServiceError(c, err)
	}
	choiceID, err := uuid.Parse(req.ChoiceID)
	if err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}

	log := h.logger.With(
		zap.String("gameID", gameID.String()),
		zap.String("playerID", playerID.String()),
		zap.String("choiceID", choiceID.String()))

	game, outcome, err := h.games.Choose(c.Request().Context(), gameID, playerID, choiceID, req.DiceRoll)
	if err != nil {
		log.Warn("Choose failed", zap.Error(err))
		return handleServiceError(c, err)
	}

	log.Info("Choice processed",
		zap.Bool("success", outcome.Success),
		zap.String("reason", string(outcome.Reason)),
		zap.Bool("endingReached", outcome.EndingReached))
	return c.JSON(http.StatusOK, ChooseResponse{Outcome: outcome, Game: toGameResponse(game)})
}

// abandonGame - явный отказ игрока от сессии.
func (h *Handler) abandonGame(c echo.Context) error {
	playerID, err := getCallerID(c)
	if err != nil {
		return err
	}
	gameID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	game, err := h.games.Abandon(c.Request().Context(), gameID, playerID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGameResponse(game))
}

// getGame возвращает сессию ее владельцу.
func (h *Handler) getGame(c echo.Context) error {
	playerID, err := getCallerID(c)
	if err != nil {
		return err
	}
	gameID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	game, err := h.games.Get(c.Request().Context(), gameID, playerID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGameResponse(game))
}
