package entity

import (
	"fmt"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
)

const (
	StatusBidding  = "bidding"
	StatusPlacing  = "placing"
	StatusGameOver = "game_over"
)

const (
	ReasonNone             = ""
	ReasonLinePattern      = "line_pattern"
	ReasonHigherFunds      = "higher_funds"
	ReasonOpponentBankrupt = "opponent_bankrupt"
	ReasonTie              = "tie"
)

const StartingBalance = 100

// WinCombos is enumerated rows, then columns, then diagonals. Evaluation
// order follows this slice.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [9]string

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that Board) EmptyCells() []int {
	cells := make([]int, 0, len(that))
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// Round holds the bids of the current bidding cycle.
type Round struct {
	Bids     map[string]int `json:"bids"`
	Tied     bool           `json:"tied"`
	WinnerID string         `json:"winner_id,omitempty"`
}

// GameState is everything the controller owns for a single match.
type GameState struct {
	ID             string   `json:"id"`
	Status         string   `json:"status"`
	Board          Board    `json:"board"`
	Agents         []*Agent `json:"agents"`
	CurrentAgentID string   `json:"current_agent_id,omitempty"`
	Turn           int      `json:"turn"`
	WinnerID       string   `json:"winner_id,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	WinningLine    []int    `json:"winning_line,omitempty"`
	Round          *Round   `json:"round,omitempty"`
	TieStreak      int      `json:"tie_streak"`
}

func NewGameState(id string, agents []*Agent) *GameState {
	return &GameState{
		ID:     id,
		Status: StatusBidding,
		Board:  Board{},
		Agents: agents,
		Turn:   1,
	}
}

func (that *GameState) IsBidding() bool {
	return that.Status == StatusBidding
}

func (that *GameState) IsPlacing() bool {
	return that.Status == StatusPlacing
}

func (that *GameState) IsFinished() bool {
	return that.Status == StatusGameOver
}

// ConfirmBiddingState reports why a bidding round cannot start, if it cannot.
func (that *GameState) ConfirmBiddingState() error {
	switch that.Status {
	case StatusBidding:
		return nil
	case StatusGameOver:
		return apperror.ErrGameFinished
	case StatusPlacing:
		return fmt.Errorf("%w: placement is pending", apperror.ErrWrongPhase)
	default:
		return fmt.Errorf("%w: unknown status %q", apperror.ErrWrongPhase, that.Status)
	}
}

func (that *GameState) AgentByID(id string) *Agent {
	for _, agent := range that.Agents {
		if agent.ID == id {
			return agent
		}
	}

	return nil
}

func (that *GameState) AgentByMark(mark string) *Agent {
	for _, agent := range that.Agents {
		if agent.Mark == mark {
			return agent
		}
	}

	return nil
}

// CurrentAgent returns the holder of placement rights, or nil.
func (that *GameState) CurrentAgent() *Agent {
	if that.CurrentAgentID == "" {
		return nil
	}

	return that.AgentByID(that.CurrentAgentID)
}

// ResetRound clears the transient per-round fields.
func (that *GameState) ResetRound() {
	that.Round = nil
	for _, agent := range that.Agents {
		agent.LastBid = nil
	}
}

// Finish moves the game to its terminal status.
func (that *GameState) Finish(winnerID, reason string, line []int) {
	that.Status = StatusGameOver
	that.CurrentAgentID = ""
	that.WinnerID = winnerID
	that.Reason = reason
	that.WinningLine = line
}

// Clone returns a deep copy safe to hand out as a read-only snapshot.
func (that *GameState) Clone() *GameState {
	clone := *that

	clone.Agents = make([]*Agent, 0, len(that.Agents))
	for _, agent := range that.Agents {
		clone.Agents = append(clone.Agents, agent.Clone())
	}

	if that.WinningLine != nil {
		clone.WinningLine = append([]int(nil), that.WinningLine...)
	}

	if that.Round != nil {
		round := *that.Round
		round.Bids = make(map[string]int, len(that.Round.Bids))
		for id, bid := range that.Round.Bids {
			round.Bids[id] = bid
		}
		clone.Round = &round
	}

	return &clone
}
