package bidding

import "github.com/rocketscienceinc/bidtactoe-backend/internal/entity"

// TieBreaker picks one agent out of those sharing the top bid.
type TieBreaker struct {
	rng Source
}

func NewTieBreaker(rng Source) *TieBreaker {
	return &TieBreaker{rng: rng}
}

// Pick returns a uniformly chosen element of tied, the sole element when
// there is only one, or nil for an empty slice.
func (that *TieBreaker) Pick(tied []*entity.Agent) *entity.Agent {
	switch len(tied) {
	case 0:
		return nil
	case 1:
		return tied[0]
	default:
		return tied[that.rng.Intn(len(tied))]
	}
}
