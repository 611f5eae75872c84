package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// getEndingDistribution возвращает распределение завершений по концовкам.
func (h *Handler) getEndingDistribution(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	dist, err := h.analytics.EndingDistribution(c.Request().Context(), storyID)
	if err != nil {
		h.logger.Error("Error computing ending distribution", zap.String("storyID", storyID.String()), zap.Error(err))
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dist)
}

// getPathFrequencies возвращает топ самых частых последовательностей страниц.
func (h *Handler) getPathFrequencies(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	report, err := h.analytics.PathFrequencies(c.Request().Context(), storyID)
	if err != nil {
		h.logger.Error("Error computing path frequencies", zap.String("storyID", storyID.String()), zap.Error(err))
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// getPathSimilarity возвращает похожесть пути сессии на остальные
// завершенные сессии истории.
func (h *Handler) getPathSimilarity(c echo.Context) error {
	gameID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	report, err := h.analytics.PathSimilarity(c.Request().Context(), gameID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
