package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/repository"
)

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) GetState(ctx context.Context) *entity.GameState {
	state, _ := that.Called(ctx).Get(0).(*entity.GameState)

	return state
}

func (that *mockGameUseCase) NewGame(ctx context.Context) *entity.GameState {
	state, _ := that.Called(ctx).Get(0).(*entity.GameState)

	return state
}

func (that *mockGameUseCase) StartBiddingRound(ctx context.Context) (*entity.GameState, error) {
	args := that.Called(ctx)
	state, _ := args.Get(0).(*entity.GameState)

	return state, args.Error(1)
}

func (that *mockGameUseCase) MakeTurn(ctx context.Context, cell int) (*entity.GameState, error) {
	args := that.Called(ctx, cell)
	state, _ := args.Get(0).(*entity.GameState)

	return state, args.Error(1)
}

func (that *mockGameUseCase) ListResults(ctx context.Context, limit int) ([]*entity.MatchResult, error) {
	args := that.Called(ctx, limit)
	results, _ := args.Get(0).([]*entity.MatchResult)

	return results, args.Error(1)
}

func (that *mockGameUseCase) GetResult(ctx context.Context, gameID string) (*entity.MatchResult, error) {
	args := that.Called(ctx, gameID)
	result, _ := args.Get(0).(*entity.MatchResult)

	return result, args.Error(1)
}

func newTestServer() (http.Handler, *mockGameUseCase) {
	game := &mockGameUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(logger, game).Routes(), game
}

func do(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func newState() *entity.GameState {
	return entity.NewGameState("game-1", entity.DefaultAgents(entity.StartingBalance))
}

func TestPing(t *testing.T) {
	handler, _ := newTestServer()

	rec := do(handler, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestGetGame(t *testing.T) {
	// Given: a game in bidding
	handler, game := newTestServer()
	game.On("GetState", mock.Anything).Return(newState()).Once()

	// When: the state is requested
	rec := do(handler, http.MethodGet, "/api/game", "")

	// Then: the snapshot is returned as JSON
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got entity.GameState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "game-1", got.ID)
	assert.Equal(t, entity.StatusBidding, got.Status)
	assert.Len(t, got.Agents, 2)
}

func TestNewGame(t *testing.T) {
	handler, game := newTestServer()
	game.On("NewGame", mock.Anything).Return(newState()).Once()

	rec := do(handler, http.MethodPost, "/api/game/new", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	game.AssertExpectations(t)
}

func TestStartBiddingRound(t *testing.T) {
	t.Run("Round resolved", func(t *testing.T) {
		handler, game := newTestServer()
		state := newState()
		state.Status = entity.StatusPlacing
		state.CurrentAgentID = "agent-x"
		game.On("StartBiddingRound", mock.Anything).Return(state, nil).Once()

		rec := do(handler, http.MethodPost, "/api/game/bid", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"current_agent_id":"agent-x"`)
	})

	t.Run("Wrong phase is a conflict", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("StartBiddingRound", mock.Anything).
			Return(nil, fmt.Errorf("failed to start bidding round: %w", apperror.ErrWrongPhase)).Once()

		rec := do(handler, http.MethodPost, "/api/game/bid", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), apperror.ErrWrongPhase.Error())
	})

	t.Run("Unexpected failure hides the cause", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("StartBiddingRound", mock.Anything).Return(nil, io.ErrUnexpectedEOF).Once()

		rec := do(handler, http.MethodPost, "/api/game/bid", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), io.ErrUnexpectedEOF.Error())
	})
}

func TestMakeTurn(t *testing.T) {
	t.Run("Placement applied", func(t *testing.T) {
		// Given: the use case accepts cell 4
		handler, game := newTestServer()
		state := newState()
		state.Board[4] = entity.MarkX
		game.On("MakeTurn", mock.Anything, 4).Return(state, nil).Once()

		// When: cell 4 is posted
		rec := do(handler, http.MethodPost, "/api/game/place", `{"cell": 4}`)

		// Then: the new board is returned
		require.Equal(t, http.StatusOK, rec.Code)
		game.AssertExpectations(t)
	})

	t.Run("Cell zero is a valid cell", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("MakeTurn", mock.Anything, 0).Return(newState(), nil).Once()

		rec := do(handler, http.MethodPost, "/api/game/place", `{"cell": 0}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Occupied cell is a conflict", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("MakeTurn", mock.Anything, 0).Return(nil, apperror.ErrCellOccupied).Once()

		rec := do(handler, http.MethodPost, "/api/game/place", `{"cell": 0}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Out of range cell is a bad request", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("MakeTurn", mock.Anything, 12).Return(nil, apperror.ErrInvalidCell).Once()

		rec := do(handler, http.MethodPost, "/api/game/place", `{"cell": 12}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Stale placement is a conflict", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("MakeTurn", mock.Anything, 1).Return(nil, apperror.ErrStaleTransition).Once()

		rec := do(handler, http.MethodPost, "/api/game/place", `{"cell": 1}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Missing or broken body", func(t *testing.T) {
		handler, game := newTestServer()

		for _, body := range []string{`{}`, `not json`, ``} {
			rec := do(handler, http.MethodPost, "/api/game/place", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		game.AssertNotCalled(t, "MakeTurn", mock.Anything, mock.Anything)
	})
}

func TestResults(t *testing.T) {
	t.Run("Default limit", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("ListResults", mock.Anything, defaultResultsLimit).
			Return([]*entity.MatchResult{{GameID: "game-1"}}, nil).Once()

		rec := do(handler, http.MethodGet, "/api/results", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"game_id":"game-1"`)
	})

	t.Run("Limit is capped", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("ListResults", mock.Anything, maxResultsLimit).Return([]*entity.MatchResult{}, nil).Once()

		rec := do(handler, http.MethodGet, "/api/results?limit=1000", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		game.AssertExpectations(t)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		handler, _ := newTestServer()

		for _, limit := range []string{"abc", "0", "-3"} {
			rec := do(handler, http.MethodGet, "/api/results?limit="+limit, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		}
	})

	t.Run("Result by id", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("GetResult", mock.Anything, "game-7").
			Return(&entity.MatchResult{GameID: "game-7", Reason: entity.ReasonTie}, nil).Once()

		rec := do(handler, http.MethodGet, "/api/results/game-7", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"reason":"tie"`)
	})

	t.Run("Unknown result", func(t *testing.T) {
		handler, game := newTestServer()
		game.On("GetResult", mock.Anything, "nope").Return(nil, repository.ErrResultNotFound).Once()

		rec := do(handler, http.MethodGet, "/api/results/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
