package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.MatchResult) error {
	args := that.Called(ctx, result)

	return args.Error(0)
}

func (that *mockResultRepo) GetByID(ctx context.Context, gameID string) (*entity.MatchResult, error) {
	args := that.Called(ctx, gameID)

	result, _ := args.Get(0).(*entity.MatchResult)

	return result, args.Error(1)
}

func (that *mockResultRepo) ListRecent(ctx context.Context, limit int) ([]*entity.MatchResult, error) {
	args := that.Called(ctx, limit)

	results, _ := args.Get(0).([]*entity.MatchResult)

	return results, args.Error(1)
}

type mockController struct {
	mock.Mock
}

func (that *mockController) Snapshot() *entity.GameState {
	args := that.Called()

	state, _ := args.Get(0).(*entity.GameState)

	return state
}

func (that *mockController) NewGame() *entity.GameState {
	args := that.Called()

	state, _ := args.Get(0).(*entity.GameState)

	return state
}

func (that *mockController) StartBiddingRound() (*bidding.RoundResult, error) {
	args := that.Called()

	result, _ := args.Get(0).(*bidding.RoundResult)

	return result, args.Error(1)
}

func (that *mockController) SubmitCellPlacement(cell int) error {
	args := that.Called(cell)

	return args.Error(0)
}

// manualScheduler keeps the pending operation until the test runs it.
type manualScheduler struct {
	mu      sync.Mutex
	pending func()
	delays  []time.Duration
	stopped bool
}

func (that *manualScheduler) Schedule(delay time.Duration, op func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending = op
	that.delays = append(that.delays, delay)
}

func (that *manualScheduler) Cancel() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending = nil
}

func (that *manualScheduler) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending = nil
	that.stopped = true
}

// take removes and returns the pending operation.
func (that *manualScheduler) take() func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	op := that.pending
	that.pending = nil

	return op
}

// runNext runs the pending operation and reports whether there was one.
func (that *manualScheduler) runNext() bool {
	op := that.take()
	if op == nil {
		return false
	}

	op()

	return true
}
