package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/event"
)

const saveTimeout = 5 * time.Second

type resultWriter interface {
	Save(ctx context.Context, result *entity.MatchResult) error
}

type snapshotter interface {
	Snapshot() *entity.GameState
}

// ResultRecorder saves a MatchResult every time a game ends.
type ResultRecorder struct {
	logger  *slog.Logger
	results resultWriter
	games   snapshotter
	clock   clock.Clock
}

func NewResultRecorder(logger *slog.Logger, results resultWriter, games snapshotter, clk clock.Clock) *ResultRecorder {
	return &ResultRecorder{
		logger:  logger.With("component", "result_recorder"),
		results: results,
		games:   games,
		clock:   clk,
	}
}

func (that *ResultRecorder) Handle(evt event.Event) {
	over, ok := evt.Payload.(event.GameOver)
	if evt.Action != event.ActionGameOver || !ok {
		return
	}

	log := that.logger.With("method", "Handle", "gameID", over.GameID)

	state := that.games.Snapshot()
	if state.ID != over.GameID || !state.IsFinished() {
		log.Warn("finished game was replaced before it could be recorded")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := that.results.Save(ctx, entity.NewMatchResult(state, that.clock.Now())); err != nil {
		log.Error("failed to save result", "error", err)
		return
	}

	log.Info("result saved", "winner", state.WinnerID, "reason", state.Reason)
}
