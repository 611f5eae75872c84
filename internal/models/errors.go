package models

import "errors"

// Стандартные ошибки приложения
var (
	// Общие ошибки ресурсов
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden") // Аутентифицирован, но не владелец ресурса

	// Ошибки валидации графа истории
	ErrInvalidTarget        = errors.New("choice target page does not belong to the source page's story")
	ErrSourceIsEnding       = errors.New("cannot create choice from an ending page")
	ErrIncompleteEndingData = errors.New("ending page requires both ending label and ending type")
	ErrHasOutgoingEdges     = errors.New("page with outgoing choices or hotspots cannot become an ending")
	ErrNoStartPage          = errors.New("story has no start page")
	ErrInvalidDiceType      = errors.New("unknown dice type")
	ErrInvalidDiceRange     = errors.New("dice gate range is outside the die's faces")
	ErrPageInUse            = errors.New("page is the current page of an in-progress game")

	// Ошибки состояния сессии
	ErrStoryNotPlayable       = errors.New("story is not published")
	ErrSessionNotInProgress   = errors.New("game is not in progress")
	ErrSessionNotOwned        = errors.New("game belongs to another player")
	ErrChoiceNotOnCurrentPage = errors.New("choice does not originate from the game's current page")
	ErrSessionNotCompleted    = errors.New("game is not completed")

	// Общие ошибки запросов
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
