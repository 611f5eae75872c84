package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gamebook-server/internal/handler"
	"gamebook-server/internal/models"
	serviceMocks "gamebook-server/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handlerFixture struct {
	stories   *serviceMocks.StoryService
	games     *serviceMocks.GameService
	analytics *serviceMocks.AnalyticsService
	echo      *echo.Echo
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		stories:   new(serviceMocks.StoryService),
		games:     new(serviceMocks.GameService),
		analytics: new(serviceMocks.AnalyticsService),
		echo:      echo.New(),
	}
	f.echo.Validator = handler.NewRequestValidator()
	h := handler.NewHandler(f.stories, f.games, f.analytics, zap.NewNop())
	h.RegisterRoutes(f.echo)
	return f
}

func (f *handlerFixture) request(method, path, callerID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if callerID != "" {
		req.Header.Set("X-Player-ID", callerID)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandlerAuth(t *testing.T) {
	t.Run("Missing caller header", func(t *testing.T) {
		f := newHandlerFixture()
		rec := f.request(http.MethodPost, "/stories", "", `{"title":"My Story"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Malformed caller header", func(t *testing.T) {
		f := newHandlerFixture()
		rec := f.request(http.MethodPost, "/stories", "not-a-uuid", `{"title":"My Story"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandlerCreateStory(t *testing.T) {
	authorID := uuid.New()

	t.Run("Created", func(t *testing.T) {
		f := newHandlerFixture()
		story := &models.Story{ID: uuid.New(), AuthorID: authorID, Title: "My Story", Status: models.StoryStatusDraft}
		f.stories.On("CreateStory", mock.Anything, authorID, "My Story", "", (*models.CombatConfig)(nil)).Return(story, nil).Once()

		rec := f.request(http.MethodPost, "/stories", authorID.String(), `{"title":"My Story"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		f.stories.AssertExpectations(t)
	})

	t.Run("Missing title rejected by validator", func(t *testing.T) {
		f := newHandlerFixture()
		rec := f.request(http.MethodPost, "/stories", authorID.String(), `{"description":"no title"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.stories.AssertNotCalled(t, "CreateStory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandlerMakeChoice(t *testing.T) {
	playerID := uuid.New()
	gameID := uuid.New()
	choiceID := uuid.New()

	baseGame := func() *models.Game {
		return &models.Game{
			ID:            gameID,
			StoryID:       uuid.New(),
			PlayerID:      playerID,
			Status:        models.GameStatusInProgress,
			CurrentPageID: uuid.New(),
			Path:          []models.PathStep{{PageID: uuid.New()}},
			Inventory:     []string{},
		}
	}

	t.Run("Failed dice roll returns 200 with outcome", func(t *testing.T) {
		f := newHandlerFixture()
		roll := 5
		outcome := &models.ChoiceOutcome{
			Success:  false,
			Reason:   models.OutcomeReasonDiceFailed,
			DiceRoll: &roll,
			Required: &models.DiceRange{Min: 10, Max: 20},
		}
		f.games.On("Choose", mock.Anything, gameID, playerID, choiceID, &roll).Return(baseGame(), outcome, nil).Once()

		rec := f.request(http.MethodPost, "/games/"+gameID.String()+"/choose", playerID.String(),
			`{"choiceId":"`+choiceID.String()+`","diceRoll":5}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.ChooseResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Outcome)
		assert.False(t, resp.Outcome.Success)
		assert.Equal(t, models.OutcomeReasonDiceFailed, resp.Outcome.Reason)
		require.NotNil(t, resp.Outcome.DiceRoll)
		assert.Equal(t, 5, *resp.Outcome.DiceRoll)
		assert.Equal(t, &models.DiceRange{Min: 10, Max: 20}, resp.Outcome.Required)
	})

	t.Run("Foreign session maps to 403", func(t *testing.T) {
		f := newHandlerFixture()
		f.games.On("Choose", mock.Anything, gameID, playerID, choiceID, (*int)(nil)).
			Return(nil, nil, models.ErrSessionNotOwned).Once()

		rec := f.request(http.MethodPost, "/games/"+gameID.String()+"/choose", playerID.String(),
			`{"choiceId":"`+choiceID.String()+`"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Completed session maps to 409", func(t *testing.T) {
		f := newHandlerFixture()
		f.games.On("Choose", mock.Anything, gameID, playerID, choiceID, (*int)(nil)).
			Return(nil, nil, models.ErrSessionNotInProgress).Once()

		rec := f.request(http.MethodPost, "/games/"+gameID.String()+"/choose", playerID.String(),
			`{"choiceId":"`+choiceID.String()+`"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Unknown game maps to 404", func(t *testing.T) {
		f := newHandlerFixture()
		f.games.On("Choose", mock.Anything, gameID, playerID, choiceID, (*int)(nil)).
			Return(nil, nil, models.ErrNotFound).Once()

		rec := f.request(http.MethodPost, "/games/"+gameID.String()+"/choose", playerID.String(),
			`{"choiceId":"`+choiceID.String()+`"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Missing choiceId rejected", func(t *testing.T) {
		f := newHandlerFixture()
		rec := f.request(http.MethodPost, "/games/"+gameID.String()+"/choose", playerID.String(), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Bad game id rejected", func(t *testing.T) {
		f := newHandlerFixture()
		rec := f.request(http.MethodPost, "/games/not-a-uuid/choose", playerID.String(),
			`{"choiceId":"`+choiceID.String()+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerAnalytics(t *testing.T) {
	callerID := uuid.New()
	storyID := uuid.New()

	t.Run("Ending distribution returned", func(t *testing.T) {
		f := newHandlerFixture()
		dist := &models.EndingDistribution{StoryID: storyID, TotalCompleted: 5}
		f.analytics.On("EndingDistribution", mock.Anything, storyID).Return(dist, nil).Once()

		rec := f.request(http.MethodGet, "/stories/"+storyID.String()+"/analytics/endings", callerID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.EndingDistribution
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 5, resp.TotalCompleted)
	})

	t.Run("Similarity for unfinished session maps to 409", func(t *testing.T) {
		f := newHandlerFixture()
		gameID := uuid.New()
		f.analytics.On("PathSimilarity", mock.Anything, gameID).Return(nil, models.ErrSessionNotCompleted).Once()

		rec := f.request(http.MethodGet, "/games/"+gameID.String()+"/similarity", callerID.String(), "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
