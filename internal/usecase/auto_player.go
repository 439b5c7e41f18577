package usecase

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/event"
)

type autoController interface {
	Snapshot() *entity.GameState
	Epoch() uint64
	NewGameAt(epoch uint64) (*entity.GameState, error)
	StartBiddingRoundAt(epoch uint64) (*bidding.RoundResult, error)
	SubmitCellPlacementAt(epoch uint64, cell int) error
}

type operationScheduler interface {
	Schedule(delay time.Duration, op func())
	Cancel()
	Stop()
}

type placementBot interface {
	PickCell(board entity.Board) (int, error)
}

type eventSubscriber interface {
	Subscribe(handler event.Handler) func()
}

// Timing is the pacing of an automatic match.
type Timing struct {
	ThinkMin     time.Duration
	ThinkMax     time.Duration
	RestartDelay time.Duration
}

// AutoPlayer plays both agents: it reacts to engine events by scheduling the
// next bid, placement or restart after a random thinking time.
type AutoPlayer struct {
	logger     *slog.Logger
	controller autoController
	scheduler  operationScheduler
	bot        placementBot
	timing     Timing

	rngMu sync.Mutex
	rng   bidding.Source

	// scheduleMu makes the epoch check and the Schedule call one step, so a
	// late event cannot replace the continuation of a newer game.
	scheduleMu sync.Mutex

	mu          sync.Mutex
	unsubscribe func()
}

func NewAutoPlayer(
	logger *slog.Logger,
	controller autoController,
	scheduler operationScheduler,
	bot placementBot,
	rng bidding.Source,
	timing Timing,
) *AutoPlayer {
	return &AutoPlayer{
		logger:     logger.With("component", "auto_player"),
		controller: controller,
		scheduler:  scheduler,
		bot:        bot,
		rng:        rng,
		timing:     timing,
	}
}

// Start subscribes to engine events and schedules the step the current game
// is waiting for.
func (that *AutoPlayer) Start(events eventSubscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.unsubscribe != nil {
		return
	}

	that.unsubscribe = events.Subscribe(that.Handle)

	that.scheduleMu.Lock()
	defer that.scheduleMu.Unlock()

	epoch := that.controller.Epoch()
	state := that.controller.Snapshot()
	switch {
	case state.IsFinished():
		that.scheduleRestart(epoch)
	case state.IsPlacing():
		that.schedulePlacement(epoch)
	default:
		that.scheduleBid(epoch)
	}

	that.logger.Info("auto player started", "gameID", state.ID, "status", state.Status)
}

// Stop unsubscribes and waits for a running step to return.
func (that *AutoPlayer) Stop() {
	that.mu.Lock()
	if that.unsubscribe != nil {
		that.unsubscribe()
		that.unsubscribe = nil
	}
	that.mu.Unlock()

	that.scheduler.Stop()
	that.logger.Info("auto player stopped")
}

// Handle schedules the continuation for evt. A later event replaces the
// pending continuation. Events from a game that was replaced are dropped.
func (that *AutoPlayer) Handle(evt event.Event) {
	that.scheduleMu.Lock()
	defer that.scheduleMu.Unlock()

	if current := that.controller.Epoch(); evt.Epoch != current {
		that.logger.Debug("dropped event from a replaced game",
			"action", evt.Action, "epoch", evt.Epoch, "current", current)

		return
	}

	switch evt.Action {
	case event.ActionGameNew, event.ActionRoundTied, event.ActionPlacementMade:
		that.scheduleBid(evt.Epoch)
	case event.ActionRoundResolved:
		that.schedulePlacement(evt.Epoch)
	case event.ActionGameOver:
		that.scheduleRestart(evt.Epoch)
	}
}

func (that *AutoPlayer) scheduleBid(epoch uint64) {
	that.scheduler.Schedule(that.thinkTime(), func() {
		_, err := that.controller.StartBiddingRoundAt(epoch)
		that.report("bid", err)
	})
}

func (that *AutoPlayer) schedulePlacement(epoch uint64) {
	that.scheduler.Schedule(that.thinkTime(), func() {
		state := that.controller.Snapshot()
		if !state.IsPlacing() {
			that.logger.Debug("placement no longer expected", "status", state.Status)
			return
		}

		cell, err := that.bot.PickCell(state.Board)
		if err != nil {
			that.report("place", err)
			return
		}

		that.report("place", that.controller.SubmitCellPlacementAt(epoch, cell))
	})
}

func (that *AutoPlayer) scheduleRestart(epoch uint64) {
	that.scheduler.Schedule(that.timing.RestartDelay, func() {
		_, err := that.controller.NewGameAt(epoch)
		that.report("restart", err)
	})
}

func (that *AutoPlayer) report(step string, err error) {
	log := that.logger.With("method", step)

	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrStaleTransition):
		log.Debug("dropped stale transition", "error", err)
	case errors.Is(err, apperror.ErrBidUnavailable):
		log.Info("agent cannot bid, game over", "error", err)
	default:
		log.Error("step failed", "error", err)
	}
}

func (that *AutoPlayer) thinkTime() time.Duration {
	spread := that.timing.ThinkMax - that.timing.ThinkMin
	if spread <= 0 {
		return that.timing.ThinkMin
	}

	that.rngMu.Lock()
	defer that.rngMu.Unlock()

	return that.timing.ThinkMin + time.Duration(that.rng.Intn(int(spread)+1))
}
