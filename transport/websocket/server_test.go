package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/event"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/tictactoe"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/usecase"
)

type noResults struct{}

func (noResults) GetByID(context.Context, string) (*entity.MatchResult, error) {
	return nil, io.EOF
}

func (noResults) ListRecent(context.Context, int) ([]*entity.MatchResult, error) {
	return nil, nil
}

type fixture struct {
	server *Server
	bus    *event.Bus
	url    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := event.NewBus()
	resolver := bidding.NewRandomResolver(bidding.NewSource(1), bidding.TiePolicyCoinToss, 0)
	controller := tictactoe.NewGameController(logger, resolver, bus, entity.StartingBalance)
	game := usecase.NewGameUseCase(logger, controller, noResults{})

	server := New(logger, game)
	bus.Subscribe(server.Broadcast)

	httpServer := httptest.NewServer(server.Handler(context.Background()))
	t.Cleanup(httpServer.Close)

	return fixture{
		server: server,
		bus:    bus,
		url:    "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws",
	}
}

func (that fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		that.server.clientsMutex.RLock()
		defer that.server.clientsMutex.RUnlock()

		return len(that.server.clients) > 0
	}, time.Second, 5*time.Millisecond)

	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func read(t *testing.T, conn *websocket.Conn) (Message, map[string]any) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	payload := map[string]any{}
	if len(msg.Payload) > 0 {
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	}

	return msg, payload
}

// readUntil skips pushed events until a message with action arrives.
func readUntil(t *testing.T, conn *websocket.Conn, action string) map[string]any {
	t.Helper()

	for range 10 {
		msg, payload := read(t, conn)
		if msg.Action == action {
			return payload
		}
	}

	t.Fatalf("no %s message received", action)

	return nil
}

func TestServer_State(t *testing.T) {
	// Given: a connected client
	f := newFixture(t)
	conn := f.dial(t)

	// When: it asks for the state
	send(t, conn, `{"action":"game:state"}`)

	// Then: the current snapshot comes back
	msg, payload := read(t, conn)
	assert.Equal(t, actionGameState, msg.Action)
	game, ok := payload["game"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, entity.StatusBidding, game["status"])
}

func TestServer_BidAndPlace(t *testing.T) {
	// Given: a connected client
	f := newFixture(t)
	conn := f.dial(t)

	// When: it runs a bidding round
	send(t, conn, `{"action":"game:bid"}`)

	// Then: the round event is pushed and the reply is in placing
	readUntil(t, conn, event.ActionRoundResolved)
	payload := readUntil(t, conn, actionGameState)
	game := payload["game"].(map[string]any)
	assert.Equal(t, entity.StatusPlacing, game["status"])

	// When: it places a mark in the corner
	send(t, conn, `{"action":"game:place","payload":{"cell":0}}`)

	// Then: placement:made is pushed
	placed := readUntil(t, conn, event.ActionPlacementMade)
	assert.InDelta(t, 0, placed["cell"], 0)
}

func TestServer_Errors(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	t.Run("Unknown action", func(t *testing.T) {
		send(t, conn, `{"action":"game:join"}`)

		payload := readUntil(t, conn, actionError)
		assert.Equal(t, "unknown action", payload["error"])
		assert.Equal(t, "game:join", payload["request"])
	})

	t.Run("Garbage", func(t *testing.T) {
		send(t, conn, `{{{`)

		payload := readUntil(t, conn, actionError)
		assert.Equal(t, "invalid message", payload["error"])
	})

	t.Run("Placement while bidding", func(t *testing.T) {
		send(t, conn, `{"action":"game:place","payload":{"cell":3}}`)

		payload := readUntil(t, conn, actionError)
		assert.Contains(t, payload["error"], "invalid placement")
	})

	t.Run("Placement without a cell", func(t *testing.T) {
		send(t, conn, `{"action":"game:place","payload":{}}`)

		payload := readUntil(t, conn, actionError)
		assert.Equal(t, "cell is required", payload["error"])
	})
}

func TestServer_Broadcast(t *testing.T) {
	// Given: two connected clients
	f := newFixture(t)
	first := f.dial(t)
	second := f.dial(t)
	require.Eventually(t, func() bool {
		f.server.clientsMutex.RLock()
		defer f.server.clientsMutex.RUnlock()

		return len(f.server.clients) == 2
	}, time.Second, 5*time.Millisecond)

	// When: an event is published
	f.bus.Publish(event.Event{
		Action:  event.ActionGameOver,
		Payload: event.GameOver{GameID: "game-9", WinnerID: "agent-o", Reason: entity.ReasonHigherFunds},
	})

	// Then: both receive it
	for _, conn := range []*websocket.Conn{first, second} {
		payload := readUntil(t, conn, event.ActionGameOver)
		assert.Equal(t, "game-9", payload["game_id"])
		assert.Equal(t, entity.ReasonHigherFunds, payload["reason"])
	}
}
