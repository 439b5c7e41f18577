package scheduler

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func newScheduler() (*Scheduler, *clock.Mock) {
	mock := clock.NewMock()

	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), mock), mock
}

func TestScheduler_Schedule(t *testing.T) {
	t.Run("Runs the operation once the delay has passed", func(t *testing.T) {
		// Given: an operation scheduled in 2 seconds
		scheduler, mock := newScheduler()
		var ran atomic.Int32
		scheduler.Schedule(2*time.Second, func() { ran.Add(1) })

		// When: only one second passes
		mock.Add(time.Second)

		// Then: nothing ran yet
		assert.Zero(t, ran.Load())
		assert.True(t, scheduler.Pending())

		// When: the rest of the delay passes
		mock.Add(time.Second)

		// Then: the operation runs exactly once
		assert.Eventually(t, func() bool { return ran.Load() == 1 }, waitFor, tick)
		assert.Eventually(t, func() bool { return !scheduler.Pending() }, waitFor, tick)
	})

	t.Run("A new schedule replaces the pending one", func(t *testing.T) {
		scheduler, mock := newScheduler()
		var first, second atomic.Int32

		scheduler.Schedule(time.Second, func() { first.Add(1) })
		scheduler.Schedule(3*time.Second, func() { second.Add(1) })

		mock.Add(5 * time.Second)

		assert.Eventually(t, func() bool { return second.Load() == 1 }, waitFor, tick)
		assert.Zero(t, first.Load())
	})

	t.Run("Operation may schedule its successor", func(t *testing.T) {
		// Given: an operation that chains a follow-up
		scheduler, mock := newScheduler()
		var steps atomic.Int32
		scheduler.Schedule(time.Second, func() {
			steps.Add(1)
			scheduler.Schedule(time.Second, func() { steps.Add(1) })
		})

		// When: time moves past the first delay
		mock.Add(time.Second)
		require.Eventually(t, func() bool { return steps.Load() == 1 }, waitFor, tick)
		require.Eventually(t, scheduler.Pending, waitFor, tick)

		// When: time moves past the second delay
		mock.Add(time.Second)

		// Then: both steps ran
		assert.Eventually(t, func() bool { return steps.Load() == 2 }, waitFor, tick)
	})

	t.Run("Operations never overlap", func(t *testing.T) {
		scheduler, mock := newScheduler()
		var running, overlaps, done atomic.Int32
		var wg sync.WaitGroup

		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scheduler.Schedule(time.Duration(i%3)*time.Millisecond, func() {
					if running.Add(1) > 1 {
						overlaps.Add(1)
					}
					time.Sleep(time.Millisecond)
					running.Add(-1)
					done.Add(1)
				})
			}()
		}
		wg.Wait()
		mock.Add(time.Second)

		assert.Eventually(t, func() bool { return done.Load() >= 1 }, waitFor, tick)
		assert.Zero(t, overlaps.Load())
	})
}

func TestScheduler_Cancel(t *testing.T) {
	// Given: a pending operation
	scheduler, mock := newScheduler()
	var ran atomic.Int32
	scheduler.Schedule(time.Second, func() { ran.Add(1) })

	// When: it is cancelled before the delay passes
	scheduler.Cancel()
	mock.Add(2 * time.Second)

	// Then: it never runs
	assert.False(t, scheduler.Pending())
	assert.Never(t, func() bool { return ran.Load() > 0 }, 50*time.Millisecond, tick)
}

func TestScheduler_Stop(t *testing.T) {
	// Given: an operation that is running
	scheduler, mock := newScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	scheduler.Schedule(time.Second, func() {
		close(started)
		<-release
		finished.Store(true)
	})
	mock.Add(time.Second)
	<-started

	// When: Stop is called while it runs
	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(stopped)
	}()
	close(release)

	// Then: Stop returns only after the operation has finished
	<-stopped
	assert.True(t, finished.Load())
}
