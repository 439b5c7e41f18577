package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler holds at most one pending operation and runs operations one at a
// time. Scheduling replaces whatever was pending.
type Scheduler struct {
	logger *slog.Logger
	clock  clock.Clock

	mu         sync.Mutex
	timer      *clock.Timer
	generation uint64

	// run serialises operation bodies
	run sync.Mutex
}

func New(logger *slog.Logger, clk clock.Clock) *Scheduler {
	return &Scheduler{
		logger: logger.With("component", "scheduler"),
		clock:  clk,
	}
}

// Schedule runs op after delay, dropping any pending operation.
func (that *Scheduler) Schedule(delay time.Duration, op func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked()
	generation := that.generation

	that.timer = that.clock.AfterFunc(delay, func() {
		that.fire(generation, op)
	})
}

// Cancel drops the pending operation. A timer that already fired but has not
// started its operation is dropped too.
func (that *Scheduler) Cancel() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked()
}

// Pending reports whether an operation is waiting to run.
func (that *Scheduler) Pending() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.timer != nil
}

// Stop cancels the pending operation and waits for a running one to return.
// It must not be called from inside an operation.
func (that *Scheduler) Stop() {
	that.Cancel()

	that.run.Lock()
	defer that.run.Unlock()
}

func (that *Scheduler) stopLocked() {
	that.generation++
	if that.timer != nil {
		that.timer.Stop()
		that.timer = nil
	}
}

func (that *Scheduler) fire(generation uint64, op func()) {
	that.run.Lock()
	defer that.run.Unlock()

	that.mu.Lock()
	if generation != that.generation {
		that.mu.Unlock()
		that.logger.Debug("dropped cancelled operation", "generation", generation)

		return
	}
	that.timer = nil
	that.mu.Unlock()

	op()
}
