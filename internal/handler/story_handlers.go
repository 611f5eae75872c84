package handler

import (
	"net/http"
	"strconv"

	"gamebook-server/internal/models"
	"gamebook-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// createStory обрабатывает создание истории автором.
func (h *Handler) createStory(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	var req CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return handleServiceError(c, err)
	}

	story, err := h.stories.CreateStory(c.Request().Context(), authorID, req.Title, req.Description, req.Combat)
	if err != nil {
		h.logger.Error("Error creating story", zap.Error(err))
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, story)
}

// getStory возвращает историю по id.
func (h *Handler) getStory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	story, err := h.stories.GetStory(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

// listPublishedStories возвращает страницу опубликованных историй.
func (h *Handler) listPublishedStories(c echo.Context) error {
	limit, offset := parsePagination(c)
	stories, err := h.stories.ListPublished(c.Request().Context(), limit, offset)
	if err != nil {
		h.logger.Error("Error listing published stories", zap.Error(err))
		return handleServiceError(c, err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(http.StatusOK, stories)
}

// listMyStories возвращает истории автора (все статусы).
func (h *Handler) listMyStories(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	stories, err := h.stories.ListByAuthor(c.Request().Context(), authorID, limit, offset)
	if err != nil {
		h.logger.Error("Error listing author stories", zap.Error(err))
		return handleServiceError(c, err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(http.StatusOK, stories)
}

// getStoryGraph возвращает страницы истории со смежностью (для редактора).
func (h *Handler) getStoryGraph(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	graph, err := h.stories.GetGraph(c.Request().Context(), authorID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, graph)
}

// createPage обрабатывает добавление страницы в историю.
func (h *Handler) createPage(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	var req CreatePageRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return handleServiceError(c, err)
	}

	page, err := h.stories.CreatePage(c.Request().Context(), authorID, storyID, req.Content)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, page)
}

// updatePage обрабатывает правку содержимого и хотспотов страницы.
func (h *Handler) updatePage(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	pageID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	var req UpdatePageRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return handleServiceError(c, err)
	}

	page, err := h.stories.UpdatePage(c.Request().Context(), authorID, pageID, req.Content, req.Hotspots)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// deletePage обрабатывает удаление страницы (с каскадом по выборам).
func (h *Handler) deletePage(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	pageID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := h.stories.DeletePage(c.Request().Context(), authorID, pageID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// setEnding назначает страницу концовкой.
func (h *Handler) setEnding(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	pageID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	var req SetEndingRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return handleServiceError(c, err)
	}

	page, err := h.stories.SetEnding(c.Request().Context(), authorID, pageID, req.EndingLabel, req.EndingType)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// createChoice добавляет ребро от страницы-источника.
func (h *Handler) createChoice(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	sourcePageID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	params, err := h.bindChoiceParams(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	choice, err := h.stories.CreateChoice(c.Request().Context(), authorID, sourcePageID, *params)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, choice)
}

// updateChoice обрабатывает правку ребра.
func (h *Handler) updateChoice(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	choiceID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	params, err := h.bindChoiceParams(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	choice, err := h.stories.UpdateChoice(c.Request().Context(), authorID, choiceID, *params)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, choice)
}

// deleteChoice удаляет ребро.
func (h *Handler) deleteChoice(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	choiceID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := h.stories.DeleteChoice(c.Request().Context(), authorID, choiceID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// setStartPage назначает стартовую страницу истории.
func (h *Handler) setStartPage(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	var req SetStartPageRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return handleServiceError(c, err)
	}
	pageID, err := uuid.Parse(req.PageID)
	if err != nil {
		return handleServiceError(c, models.ErrBadRequest)
	}

	if err := h.stories.SetStartPage(c.Request().Context(), authorID, storyID, pageID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// publishStory переводит историю в published.
func (h *Handler) publishStory(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := h.stories.Publish(c.Request().Context(), authorID, storyID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// unpublishStory возвращает историю в черновик.
func (h *Handler) unpublishStory(c echo.Context) error {
	authorID, err := getCallerID(c)
	if err != nil {
		return err
	}
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := h.stories.Unpublish(c.Request().Context(), authorID, storyID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// suspendStory - хук модерации хост-приложения.
func (h *Handler) suspendStory(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := h.stories.Suspend(c.Request().Context(), storyID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// bindChoiceParams разбирает общее тело create/update выбора.
func (h *Handler) bindChoiceParams(c echo.Context) (*service.ChoiceParams, error) {
	var req ChoiceRequest
	if err := c.Bind(&req); err != nil {
		return nil, models.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	targetID, err := uuid.Parse(req.TargetPageID)
	if err != nil {
		return nil, models.ErrBadRequest
	}
	params := &service.ChoiceParams{
		TargetPageID:     targetID,
		Text:             req.Text,
		ItemRequired:     req.ItemRequired,
		ItemGranted:      req.ItemGranted,
		StatDelta:        req.StatDelta,
		TimeLimitSeconds: req.TimeLimitSeconds,
	}
	if req.DiceGate != nil {
		params.DiceGate = &models.DiceGate{
			DiceType: models.DiceType(req.DiceGate.DiceType),
			MinValue: req.DiceGate.MinValue,
			MaxValue: req.DiceGate.MaxValue,
		}
	}
	return params, nil
}

// parsePagination читает limit/offset с безопасными значениями по умолчанию.
func parsePagination(c echo.Context) (limit, offset int) {
	limit = 20
	offset = 0
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
