package event

import (
	"log/slog"
	"sync"
)

const (
	ActionGameNew       = "game:new"
	ActionRoundResolved = "round:resolved"
	ActionRoundTied     = "round:tied"
	ActionPlacementMade = "placement:made"
	ActionGameOver      = "game:over"
)

// Event is a notification emitted by the engine after a transition.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`

	// Epoch is the controller epoch the transition happened under.
	Epoch uint64 `json:"-"`
}

type GameStarted struct {
	GameID          string `json:"game_id"`
	StartingBalance int    `json:"starting_balance"`
}

type RoundResolved struct {
	GameID         string `json:"game_id"`
	Turn           int    `json:"turn"`
	WinnerID       string `json:"winner_id"`
	Amount         int    `json:"amount"`
	OpponentID     string `json:"opponent_id"`
	OpponentAmount int    `json:"opponent_amount"`
	Charged        bool   `json:"charged"`
}

type RoundTied struct {
	GameID     string `json:"game_id"`
	Turn       int    `json:"turn"`
	Amount     int    `json:"amount"`
	FavouredID string `json:"favoured_id"`
	Streak     int    `json:"streak"`
}

type PlacementMade struct {
	GameID  string `json:"game_id"`
	Turn    int    `json:"turn"`
	AgentID string `json:"agent_id"`
	Mark    string `json:"mark"`
	Cell    int    `json:"cell"`
}

type GameOver struct {
	GameID      string `json:"game_id"`
	Turn        int    `json:"turn"`
	WinnerID    string `json:"winner_id"`
	Reason      string `json:"reason"`
	WinningLine []int  `json:"winning_line,omitempty"`
}

type Handler func(evt Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler and returns a function that removes it.
func (that *Bus) Subscribe(handler Handler) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nextID++
	id := that.nextID
	that.subs = append(that.subs, subscription{id: id, handler: handler})

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		for i, sub := range that.subs {
			if sub.id == id {
				that.subs = append(that.subs[:i:i], that.subs[i+1:]...)
				return
			}
		}
	}
}

func (that *Bus) Publish(events ...Event) {
	if len(events) == 0 {
		return
	}

	that.mu.RLock()
	subs := append([]subscription(nil), that.subs...)
	that.mu.RUnlock()

	for _, evt := range events {
		for _, sub := range subs {
			sub.handler(evt)
		}
	}
}

// LogHandler writes every event to logger.
func LogHandler(logger *slog.Logger) Handler {
	log := logger.With("component", "events")

	return func(evt Event) {
		log.Info("game event", "action", evt.Action, "payload", evt.Payload)
	}
}
