package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

// GameUseCase is what the transports are allowed to do with the match.
type GameUseCase interface {
	GetState(ctx context.Context) *entity.GameState
	NewGame(ctx context.Context) *entity.GameState
	StartBiddingRound(ctx context.Context) (*entity.GameState, error)
	MakeTurn(ctx context.Context, cell int) (*entity.GameState, error)

	ListResults(ctx context.Context, limit int) ([]*entity.MatchResult, error)
	GetResult(ctx context.Context, gameID string) (*entity.MatchResult, error)
}

type gameController interface {
	Snapshot() *entity.GameState
	NewGame() *entity.GameState
	StartBiddingRound() (*bidding.RoundResult, error)
	SubmitCellPlacement(cell int) error
}

type resultReader interface {
	GetByID(ctx context.Context, gameID string) (*entity.MatchResult, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.MatchResult, error)
}

type gameUseCase struct {
	logger     *slog.Logger
	controller gameController
	results    resultReader
}

func NewGameUseCase(logger *slog.Logger, controller gameController, results resultReader) GameUseCase {
	return &gameUseCase{
		logger:     logger.With("component", "game_usecase"),
		controller: controller,
		results:    results,
	}
}

func (that *gameUseCase) GetState(_ context.Context) *entity.GameState {
	return that.controller.Snapshot()
}

func (that *gameUseCase) NewGame(_ context.Context) *entity.GameState {
	return that.controller.NewGame()
}

// StartBiddingRound runs one round. An agent that cannot bid ends the game,
// which is reported through the returned state rather than as an error.
func (that *gameUseCase) StartBiddingRound(_ context.Context) (*entity.GameState, error) {
	_, err := that.controller.StartBiddingRound()
	if errors.Is(err, apperror.ErrBidUnavailable) {
		that.logger.Info("bidding ended the game", "reason", err)

		return that.controller.Snapshot(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to start bidding round: %w", err)
	}

	return that.controller.Snapshot(), nil
}

func (that *gameUseCase) MakeTurn(_ context.Context, cell int) (*entity.GameState, error) {
	if err := that.controller.SubmitCellPlacement(cell); err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	return that.controller.Snapshot(), nil
}

func (that *gameUseCase) ListResults(ctx context.Context, limit int) ([]*entity.MatchResult, error) {
	results, err := that.results.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

func (that *gameUseCase) GetResult(ctx context.Context, gameID string) (*entity.MatchResult, error) {
	result, err := that.results.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return result, nil
}
