package bidding

import (
	"math/rand"
	"time"
)

// Source is the randomness used for bids and tie-breaks. *rand.Rand satisfies
// it; tests inject scripted sequences.
type Source interface {
	Intn(n int) int
}

// NewSource returns a seeded source. A zero seed picks a time-based one.
// The returned source is not safe for concurrent use; the controller
// serialises every draw.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return rand.New(rand.NewSource(seed)) //nolint: gosec // game randomness, not security
}
