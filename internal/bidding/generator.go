package bidding

import (
	"fmt"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

const (
	maxBid = 25

	desperateBalance    = 10
	conservativeBalance = 30
)

// Generator draws a bounded random bid for an agent.
type Generator struct {
	rng Source
}

func NewGenerator(rng Source) *Generator {
	return &Generator{rng: rng}
}

// Generate returns a bid in [1, balance]. Agents with an empty balance cannot
// bid and get ErrBidUnavailable.
func (that *Generator) Generate(agent *entity.Agent) (int, error) {
	balance := agent.Balance
	if balance <= 0 {
		return 0, fmt.Errorf("%w: %s", apperror.ErrBidUnavailable, agent.ID)
	}

	// almost everything goes in when funds are nearly gone
	if balance <= desperateBalance {
		return max(1, balance*8/10), nil
	}

	bid := that.rng.Intn(min(balance, maxBid)) + 1

	if balance <= conservativeBalance {
		return max(1, bid*7/10), nil
	}

	return bid, nil
}

// Fixed reports whether the agent's bid is fully determined by its balance,
// so drawing again yields the same amount.
func (that *Generator) Fixed(agent *entity.Agent) bool {
	return agent.Balance > 0 && agent.Balance <= desperateBalance
}
