package bidding

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

type TiePolicy string

const (
	// TiePolicyRebid leaves the game in bidding after a tie; the next round
	// draws fresh bids.
	TiePolicyRebid TiePolicy = "rebid"
	// TiePolicyCoinToss hands placement rights to the tie-breaker's pick
	// without charging anyone.
	TiePolicyCoinToss TiePolicy = "coin-toss"
)

var ErrUnknownTiePolicy = errors.New("unknown tie policy")

func ParseTiePolicy(value string) (TiePolicy, error) {
	switch TiePolicy(value) {
	case "", TiePolicyRebid:
		return TiePolicyRebid, nil
	case TiePolicyCoinToss:
		return TiePolicyCoinToss, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTiePolicy, value)
	}
}

// RoundResult describes how a single bidding round was settled.
type RoundResult struct {
	Bids map[string]int

	Tied     bool
	Favoured string

	// WinnerID is empty when a tie was left for a rebid.
	WinnerID       string
	Amount         int
	OpponentID     string
	OpponentAmount int
	Charged        bool
}

type bidGenerator interface {
	Generate(agent *entity.Agent) (int, error)
	Fixed(agent *entity.Agent) bool
}

type tieBreaker interface {
	Pick(tied []*entity.Agent) *entity.Agent
}

// Resolver runs one bidding round over a game state it does not own.
type Resolver struct {
	generator  bidGenerator
	tieBreaker tieBreaker
	policy     TiePolicy

	// rebidLimit caps consecutive ties under TiePolicyRebid that no rebid
	// can break; once reached the tie-breaker decides. Zero means no cap.
	rebidLimit int
}

func NewResolver(generator bidGenerator, tieBreaker tieBreaker, policy TiePolicy, rebidLimit int) *Resolver {
	return &Resolver{
		generator:  generator,
		tieBreaker: tieBreaker,
		policy:     policy,
		rebidLimit: rebidLimit,
	}
}

// NewRandomResolver wires a generator and tie-breaker sharing one source.
func NewRandomResolver(rng Source, policy TiePolicy, rebidLimit int) *Resolver {
	return NewResolver(NewGenerator(rng), NewTieBreaker(rng), policy, rebidLimit)
}

// Resolve collects bids, settles the round and moves the state to placing
// when someone earned placement rights. On error the state is unchanged.
func (that *Resolver) Resolve(state *entity.GameState) (*RoundResult, error) {
	if !state.IsBidding() {
		return nil, fmt.Errorf("%w: status %s", apperror.ErrWrongPhase, state.Status)
	}

	// every bid is drawn before any is looked at
	bids := make(map[string]int, len(state.Agents))
	for _, agent := range state.Agents {
		bid, err := that.generator.Generate(agent)
		if err != nil {
			return nil, fmt.Errorf("failed to collect bid: %w", err)
		}
		bids[agent.ID] = bid
	}

	highest := 0
	for _, agent := range state.Agents {
		highest = max(highest, bids[agent.ID])
	}

	top := make([]*entity.Agent, 0, len(state.Agents))
	for _, agent := range state.Agents {
		if bids[agent.ID] == highest {
			top = append(top, agent)
		}
	}

	for _, agent := range state.Agents {
		agent.SetLastBid(bids[agent.ID])
	}

	result := &RoundResult{Bids: bids}
	state.Round = &entity.Round{Bids: copyBids(bids)}

	if len(top) > 1 {
		result.Tied = true
		result.Favoured = that.tieBreaker.Pick(top).ID
		state.Round.Tied = true

		if !that.tieBreakerDecides(state, top) {
			state.TieStreak++
			return result, nil
		}

		that.grant(state, result, result.Favoured)

		return result, nil
	}

	winner := top[0]
	for _, agent := range state.Agents {
		agent.Charge(bids[agent.ID])
	}
	result.Charged = true

	that.grant(state, result, winner.ID)

	return result, nil
}

func (that *Resolver) tieBreakerDecides(state *entity.GameState, tied []*entity.Agent) bool {
	if that.policy == TiePolicyCoinToss {
		return true
	}

	return that.rebidLimit > 0 && state.TieStreak >= that.rebidLimit && that.locked(tied)
}

// locked reports whether a rebid would repeat the tie: balances do not move
// on a tie, so fixed bids come out equal again.
func (that *Resolver) locked(tied []*entity.Agent) bool {
	for _, agent := range tied {
		if !that.generator.Fixed(agent) {
			return false
		}
	}

	return true
}

func (that *Resolver) grant(state *entity.GameState, result *RoundResult, winnerID string) {
	result.WinnerID = winnerID
	result.Amount = result.Bids[winnerID]

	for _, agent := range state.Agents {
		if agent.ID != winnerID {
			result.OpponentID = agent.ID
			result.OpponentAmount = result.Bids[agent.ID]
			break
		}
	}

	state.Round.WinnerID = winnerID
	state.TieStreak = 0
	state.CurrentAgentID = winnerID
	state.Status = entity.StatusPlacing
}

func copyBids(bids map[string]int) map[string]int {
	out := make(map[string]int, len(bids))
	for id, bid := range bids {
		out[id] = bid
	}

	return out
}
