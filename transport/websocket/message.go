package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

const (
	actionGameState = "game:state"
	actionGameNew   = "game:new"
	actionGameBid   = "game:bid"
	actionGamePlace = "game:place"
	actionError     = "error"
)

// Message is the envelope for everything sent over the socket in both
// directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Game  *entity.GameState `json:"game,omitempty"`
	Cell  *int              `json:"cell,omitempty"`
	Error string            `json:"error,omitempty"`
	// Request echoes the action an error answers.
	Request string `json:"request,omitempty"`
}

func encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
