package entity

import "time"

// MatchResult is the write-once record of a finished game.
type MatchResult struct {
	GameID      string         `json:"game_id"`
	WinnerID    string         `json:"winner_id,omitempty"`
	WinnerName  string         `json:"winner_name,omitempty"`
	Reason      string         `json:"reason"`
	WinningLine []int          `json:"winning_line,omitempty"`
	Turns       int            `json:"turns"`
	Board       Board          `json:"board"`
	Balances    map[string]int `json:"balances"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// NewMatchResult builds a result from a finished game state.
func NewMatchResult(state *GameState, finishedAt time.Time) *MatchResult {
	result := &MatchResult{
		GameID:     state.ID,
		WinnerID:   state.WinnerID,
		Reason:     state.Reason,
		Turns:      state.Turn,
		Board:      state.Board,
		Balances:   make(map[string]int, len(state.Agents)),
		FinishedAt: finishedAt.UTC(),
	}

	if state.WinningLine != nil {
		result.WinningLine = append([]int(nil), state.WinningLine...)
	}

	for _, agent := range state.Agents {
		result.Balances[agent.ID] = agent.Balance
		if agent.ID == state.WinnerID {
			result.WinnerName = agent.Name
		}
	}

	return result
}
