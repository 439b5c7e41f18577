package service

import (
	"errors"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService picks the cell an agent places into once it holds placement rights.
type BotService interface {
	PickCell(board entity.Board) (int, error)
}

type botService struct {
	rng bidding.Source
}

func NewBotService(rng bidding.Source) BotService {
	return &botService{rng: rng}
}

// PickCell returns a uniformly random empty cell.
func (that *botService) PickCell(board entity.Board) (int, error) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	return availableCells[that.rng.Intn(len(availableCells))], nil
}
