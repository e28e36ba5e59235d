// internal/scoring/scoring.go
package scoring

import (
	"errors"
	"fmt"
	"sync"
)

// BidType is one of the three bid variants.
type BidType string

const (
	BidNormal BidType = "normal"
	BidNil    BidType = "nil"
	BidBlind  BidType = "blind"
)

var (
	ErrInvalidBidType = errors.New("invalid bid type")
	ErrInvalidNumber  = errors.New("invalid bid number")
)

// Bid is a player's contract for the round. TricksWon is filled in after
// play completes.
type Bid struct {
	Type      BidType `json:"type"`
	N         int     `json:"n"`
	TricksWon int     `json:"tricksWon"`
}

// Score computes the points for one settled bid against the rule table.
//
//	normal: exact bid pays n*base; one or two over pays n*base+over1; three
//	        or more over pays -(n+3)*penalty; exactly one under is a fixed
//	        -10; further under pays -(shortfall*penalty).
//	nil:    all-or-nothing success/fail constants.
//	blind:  zero below the minimum, otherwise base plus a per-trick bonus
//	        above the minimum.
func (r Rules) Score(bidType BidType, n, tricksWon int) (int, error) {
	switch bidType {
	case BidNormal, BidNil, BidBlind:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidBidType, bidType)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: n=%d", ErrInvalidNumber, n)
	}
	if tricksWon < 0 {
		return 0, fmt.Errorf("%w: tricksWon=%d", ErrInvalidNumber, tricksWon)
	}

	switch bidType {
	case BidNil:
		if tricksWon == 0 {
			return r.NilSuccess, nil
		}
		return r.NilFail, nil
	case BidBlind:
		if tricksWon >= r.BlindMin {
			return r.BlindBase + (tricksWon-r.BlindMin)*r.BlindBonus, nil
		}
		return 0, nil
	}

	diff := tricksWon - n
	switch {
	case diff == 0:
		return n * r.NormalBase, nil
	case diff == 1 || diff == 2:
		return n*r.NormalBase + r.NormalOver1, nil
	case diff >= 3:
		return -((n + 3) * r.NormalPenalty), nil
	case diff == -1:
		// One short is a fixed -10 house rule, not the general shortfall
		// penalty.
		return -10, nil
	default:
		return -(-diff * r.NormalPenalty), nil
	}
}

// ValidateBid gates a bid's admission into a session: nil bids must carry
// n=0 and blind bids at least the blind minimum.
func (r Rules) ValidateBid(b Bid) error {
	switch b.Type {
	case BidNormal, BidNil, BidBlind:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBidType, b.Type)
	}
	if b.N < 0 || b.TricksWon < 0 {
		return fmt.Errorf("%w: n=%d tricksWon=%d", ErrInvalidNumber, b.N, b.TricksWon)
	}
	if b.Type == BidNil && b.N != 0 {
		return fmt.Errorf("%w: nil bid must have n=0, got %d", ErrInvalidNumber, b.N)
	}
	if b.Type == BidBlind && b.N < r.BlindMin {
		return fmt.Errorf("%w: blind bid requires n>=%d, got %d", ErrInvalidNumber, r.BlindMin, b.N)
	}
	return nil
}

// TeamScore sums the scores of a set of settled bids. It fails on the first
// invalid bid without returning a partial sum.
func (r Rules) TeamScore(bids []Bid) (int, error) {
	total := 0
	for _, b := range bids {
		if err := r.ValidateBid(b); err != nil {
			return 0, err
		}
		s, err := r.Score(b.Type, b.N, b.TricksWon)
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total, nil
}

type cacheKey struct {
	bidType   BidType
	n         int
	tricksWon int
}

// Calculator memoizes Score results for a single rule table. The cache is
// correctness-neutral and must be cleared before reuse under a different
// table.
type Calculator struct {
	rules Rules
	mu    sync.Mutex
	cache map[cacheKey]int
}

// NewCalculator builds a memoizing calculator bound to one rule table.
func NewCalculator(rules Rules) *Calculator {
	return &Calculator{
		rules: rules,
		cache: make(map[cacheKey]int),
	}
}

// Rules returns the bound rule table.
func (c *Calculator) Rules() Rules {
	return c.rules
}

// Score is a cached equivalent of Rules.Score.
func (c *Calculator) Score(bidType BidType, n, tricksWon int) (int, error) {
	key := cacheKey{bidType, n, tricksWon}

	c.mu.Lock()
	if s, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	s, err := c.rules.Score(bidType, n, tricksWon)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cache[key] = s
	c.mu.Unlock()
	return s, nil
}

// ClearCache drops all memoized entries.
func (c *Calculator) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[cacheKey]int)
}

// Rebind swaps the rule table and clears the cache, which is required before
// scoring under a different configuration.
func (c *Calculator) Rebind(rules Rules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
	c.cache = make(map[cacheKey]int)
}
