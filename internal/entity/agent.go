package entity

const (
	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""
)

// Agent is one of the two automated bidders.
type Agent struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int    `json:"balance"`
	Mark    string `json:"mark"`
	LastBid *int   `json:"last_bid"`
}

func NewAgent(id, name, mark string, balance int) *Agent {
	return &Agent{
		ID:      id,
		Name:    name,
		Balance: balance,
		Mark:    mark,
	}
}

// DefaultAgents returns the two house agents with the given starting balance.
func DefaultAgents(balance int) []*Agent {
	return []*Agent{
		NewAgent("agent-x", "QuantumBot", MarkX, balance),
		NewAgent("agent-o", "NexusAI", MarkO, balance),
	}
}

func (that *Agent) IsBankrupt() bool {
	return that.Balance <= 0
}

// Charge deducts amount from the balance, never going below zero.
func (that *Agent) Charge(amount int) {
	that.Balance -= amount
	if that.Balance < 0 {
		that.Balance = 0
	}
}

func (that *Agent) SetLastBid(amount int) {
	that.LastBid = &amount
}

func (that *Agent) Clone() *Agent {
	clone := *that
	if that.LastBid != nil {
		bid := *that.LastBid
		clone.LastBid = &bid
	}

	return &clone
}
