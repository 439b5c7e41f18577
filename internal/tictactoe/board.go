package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

// Outcome is the result of evaluating a board after a placement.
type Outcome struct {
	Terminal    bool
	WinnerID    string
	Reason      string
	WinningLine []int
}

// ApplyPlacement writes mark into cell. It only touches the board.
func ApplyPlacement(state *entity.GameState, cell int, mark string) error {
	if err := validatePlacement(state, cell); err != nil {
		return fmt.Errorf("rejected placement: %w", err)
	}

	state.Board[cell] = mark

	return nil
}

// validatePlacement - checks if the placement is valid.
func validatePlacement(state *entity.GameState, cell int) error {
	if !state.IsPlacing() {
		return apperror.ErrNotPlacing
	}

	if cell < 0 || cell >= len(state.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if state.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}

// Evaluate checks the terminal conditions in priority order: a completed
// line, then bankruptcy, then a full board.
func Evaluate(board entity.Board, agents []*entity.Agent) Outcome {
	if mark, line := findLine(board); mark != entity.EmptyCell {
		outcome := Outcome{Terminal: true, Reason: entity.ReasonLinePattern, WinningLine: line}
		if winner := agentByMark(agents, mark); winner != nil {
			outcome.WinnerID = winner.ID
		}

		return outcome
	}

	if outcome, ok := checkBankruptcy(agents); ok {
		return outcome
	}

	if board.IsFull() {
		return compareFunds(agents)
	}

	return Outcome{}
}

// findLine returns the mark and cells of the first complete line in
// WinCombos order.
func findLine(board entity.Board) (string, []int) {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a, []int{combo[0], combo[1], combo[2]}
		}
	}

	return entity.EmptyCell, nil
}

func checkBankruptcy(agents []*entity.Agent) (Outcome, bool) {
	var solvent []*entity.Agent
	for _, agent := range agents {
		if !agent.IsBankrupt() {
			solvent = append(solvent, agent)
		}
	}

	switch {
	case len(solvent) == len(agents):
		return Outcome{}, false
	case len(solvent) == 1:
		return Outcome{Terminal: true, WinnerID: solvent[0].ID, Reason: entity.ReasonOpponentBankrupt}, true
	case len(solvent) == 0:
		// nobody can bid again
		return Outcome{Terminal: true, Reason: entity.ReasonTie}, true
	default:
		return Outcome{}, false
	}
}

func compareFunds(agents []*entity.Agent) Outcome {
	var richest *entity.Agent
	shared := false

	for _, agent := range agents {
		switch {
		case richest == nil || agent.Balance > richest.Balance:
			richest = agent
			shared = false
		case agent.Balance == richest.Balance:
			shared = true
		}
	}

	if richest == nil || shared {
		return Outcome{Terminal: true, Reason: entity.ReasonTie}
	}

	return Outcome{Terminal: true, WinnerID: richest.ID, Reason: entity.ReasonHigherFunds}
}

func agentByMark(agents []*entity.Agent, mark string) *entity.Agent {
	for _, agent := range agents {
		if agent.Mark == mark {
			return agent
		}
	}

	return nil
}
