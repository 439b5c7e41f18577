package tictactoe

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/event"
)

type roundResolver interface {
	Resolve(state *entity.GameState) (*bidding.RoundResult, error)
}

type publisher interface {
	Publish(events ...event.Event)
}

// GameController owns the game state and sequences
// bidding -> placing -> bidding until the game is over.
//
// Every command runs under one mutex. Events are published after the lock is
// released, in the order the transitions happened.
type GameController struct {
	logger   *slog.Logger
	resolver roundResolver
	events   publisher

	startingBalance int
	newID           func() string

	mu    sync.Mutex
	state *entity.GameState
	epoch uint64
}

func NewGameController(logger *slog.Logger, resolver roundResolver, events publisher, startingBalance int) *GameController {
	that := &GameController{
		logger:          logger.With("component", "game_controller"),
		resolver:        resolver,
		events:          events,
		startingBalance: startingBalance,
		newID:           uuid.NewString,
	}

	that.reset()

	return that
}

// Snapshot returns a deep copy of the current state.
func (that *GameController) Snapshot() *entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Clone()
}

// Epoch identifies the current game. It changes on every NewGame.
func (that *GameController) Epoch() uint64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.epoch
}

// NewGame discards the current game and starts a fresh one. Continuations
// scheduled under the previous epoch become stale.
func (that *GameController) NewGame() *entity.GameState {
	that.mu.Lock()
	snapshot, events := that.newGame()
	that.mu.Unlock()

	that.events.Publish(events...)

	return snapshot
}

// NewGameAt is NewGame for a restart scheduled under epoch. It returns
// ErrStaleTransition and leaves the live game alone when that game has
// already been replaced.
func (that *GameController) NewGameAt(epoch uint64) (*entity.GameState, error) {
	that.mu.Lock()
	if epoch != that.epoch {
		current := that.epoch
		that.mu.Unlock()

		return nil, fmt.Errorf("%w: epoch %d, current %d", apperror.ErrStaleTransition, epoch, current)
	}
	snapshot, events := that.newGame()
	that.mu.Unlock()

	that.events.Publish(events...)

	return snapshot, nil
}

func (that *GameController) newGame() (*entity.GameState, []event.Event) {
	that.reset()
	snapshot := that.state.Clone()

	that.logger.Info("new game started", "gameID", snapshot.ID)

	return snapshot, that.stamp([]event.Event{{
		Action: event.ActionGameNew,
		Payload: event.GameStarted{
			GameID:          snapshot.ID,
			StartingBalance: that.startingBalance,
		},
	}})
}

func (that *GameController) reset() {
	that.epoch++
	that.state = entity.NewGameState(that.newID(), entity.DefaultAgents(that.startingBalance))
}

// StartBiddingRound runs one bidding round on the current game.
func (that *GameController) StartBiddingRound() (*bidding.RoundResult, error) {
	that.mu.Lock()
	result, events, err := that.startBiddingRound()
	events = that.stamp(events)
	that.mu.Unlock()

	that.events.Publish(events...)

	return result, err
}

// StartBiddingRoundAt is StartBiddingRound for a continuation scheduled
// under epoch. It returns ErrStaleTransition without touching state when the
// game was reset or has finished since.
func (that *GameController) StartBiddingRoundAt(epoch uint64) (*bidding.RoundResult, error) {
	that.mu.Lock()
	if err := that.confirmEpoch(epoch); err != nil {
		that.mu.Unlock()
		return nil, err
	}
	result, events, err := that.startBiddingRound()
	events = that.stamp(events)
	that.mu.Unlock()

	that.events.Publish(events...)

	return result, err
}

// SubmitCellPlacement places the mark of the placement-rights holder.
func (that *GameController) SubmitCellPlacement(cell int) error {
	that.mu.Lock()
	events, err := that.submitCellPlacement(cell)
	events = that.stamp(events)
	that.mu.Unlock()

	that.events.Publish(events...)

	return err
}

// SubmitCellPlacementAt is SubmitCellPlacement guarded by epoch.
func (that *GameController) SubmitCellPlacementAt(epoch uint64, cell int) error {
	that.mu.Lock()
	if err := that.confirmEpoch(epoch); err != nil {
		that.mu.Unlock()
		return err
	}
	events, err := that.submitCellPlacement(cell)
	events = that.stamp(events)
	that.mu.Unlock()

	that.events.Publish(events...)

	return err
}

// stamp tags events with the current epoch. Callers hold mu.
func (that *GameController) stamp(events []event.Event) []event.Event {
	for i := range events {
		events[i].Epoch = that.epoch
	}

	return events
}

func (that *GameController) confirmEpoch(epoch uint64) error {
	if epoch != that.epoch {
		return fmt.Errorf("%w: epoch %d, current %d", apperror.ErrStaleTransition, epoch, that.epoch)
	}

	if that.state.IsFinished() {
		return fmt.Errorf("%w: game %s is over", apperror.ErrStaleTransition, that.state.ID)
	}

	return nil
}

func (that *GameController) startBiddingRound() (*bidding.RoundResult, []event.Event, error) {
	log := that.logger.With("method", "startBiddingRound", "gameID", that.state.ID)
	state := that.state

	if err := state.ConfirmBiddingState(); err != nil {
		return nil, nil, fmt.Errorf("cannot start bidding round: %w", err)
	}

	state.ResetRound()

	// an agent without funds cannot bid, the game ends here
	for _, agent := range state.Agents {
		if agent.IsBankrupt() {
			events := that.finish(Evaluate(state.Board, state.Agents))
			log.Info("bid unavailable, game over", "agentID", agent.ID, "reason", state.Reason)

			return nil, events, fmt.Errorf("%w: %s", apperror.ErrBidUnavailable, agent.ID)
		}
	}

	result, err := that.resolver.Resolve(state)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve round: %w", err)
	}

	var events []event.Event

	if result.Tied {
		log.Debug("round tied", "bids", result.Bids, "favoured", result.Favoured)
		events = append(events, event.Event{
			Action: event.ActionRoundTied,
			Payload: event.RoundTied{
				GameID:     state.ID,
				Turn:       state.Turn,
				Amount:     result.Bids[result.Favoured],
				FavouredID: result.Favoured,
				Streak:     state.TieStreak,
			},
		})
	}

	if result.WinnerID != "" {
		log.Debug("round resolved", "winner", result.WinnerID, "amount", result.Amount)
		events = append(events, event.Event{
			Action: event.ActionRoundResolved,
			Payload: event.RoundResolved{
				GameID:         state.ID,
				Turn:           state.Turn,
				WinnerID:       result.WinnerID,
				Amount:         result.Amount,
				OpponentID:     result.OpponentID,
				OpponentAmount: result.OpponentAmount,
				Charged:        result.Charged,
			},
		})
	}

	return result, events, nil
}

func (that *GameController) submitCellPlacement(cell int) ([]event.Event, error) {
	state := that.state

	if state.IsFinished() {
		return nil, fmt.Errorf("%w: %w", apperror.ErrNotPlacing, apperror.ErrGameFinished)
	}

	agent := state.CurrentAgent()
	if agent == nil {
		return nil, apperror.ErrNotPlacing
	}

	if err := ApplyPlacement(state, cell, agent.Mark); err != nil {
		return nil, err
	}

	events := []event.Event{{
		Action: event.ActionPlacementMade,
		Payload: event.PlacementMade{
			GameID:  state.ID,
			Turn:    state.Turn,
			AgentID: agent.ID,
			Mark:    agent.Mark,
			Cell:    cell,
		},
	}}

	if outcome := Evaluate(state.Board, state.Agents); outcome.Terminal {
		return append(events, that.finish(outcome)...), nil
	}

	state.Turn++
	state.CurrentAgentID = ""
	state.Status = entity.StatusBidding

	return events, nil
}

func (that *GameController) finish(outcome Outcome) []event.Event {
	state := that.state
	state.Finish(outcome.WinnerID, outcome.Reason, outcome.WinningLine)

	that.logger.Info("game over",
		"gameID", state.ID,
		"winner", state.WinnerID,
		"reason", state.Reason,
		"turn", state.Turn,
	)

	return []event.Event{{
		Action: event.ActionGameOver,
		Payload: event.GameOver{
			GameID:      state.ID,
			Turn:        state.Turn,
			WinnerID:    state.WinnerID,
			Reason:      state.Reason,
			WinningLine: append([]int(nil), state.WinningLine...),
		},
	}}
}
