package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrWrongPhase       = errors.New("command is not allowed in the current phase")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrBidUnavailable   = errors.New("agent has no funds to bid")
	ErrStaleTransition  = errors.New("stale transition")
)

var (
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrInvalidPlacement)
	ErrInvalidCell  = fmt.Errorf("%w: invalid cell index", ErrInvalidPlacement)
	ErrNotPlacing   = fmt.Errorf("%w: %w", ErrInvalidPlacement, ErrWrongPhase)
)
