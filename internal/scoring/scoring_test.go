// internal/scoring/scoring_test.go
package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreNormal(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		name      string
		n         int
		tricksWon int
		expect    int
	}{
		{"exact bid", 5, 5, 50},
		{"one over", 5, 6, 55},
		{"two over", 5, 7, 55},
		{"three over", 5, 8, -80},
		{"four over", 5, 9, -80},
		{"one under", 5, 4, -10},
		{"two under", 5, 3, -20},
		{"three under", 5, 2, -30},
		{"zero bid exact", 0, 0, 0},
		{"zero bid one over", 0, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Score(BidNormal, tt.n, tt.tricksWon)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestScoreNil(t *testing.T) {
	r := DefaultRules()

	got, err := r.Score(BidNil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, got)

	got, err = r.Score(BidNil, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, -100, got)

	got, err = r.Score(BidNil, 0, 13)
	require.NoError(t, err)
	assert.Equal(t, -100, got)
}

func TestScoreBlind(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		tricksWon int
		expect    int
	}{
		{0, 0},
		{3, 0},
		{4, 80},
		{5, 100},
		{7, 140},
	}
	for _, tt := range tests {
		got, err := r.Score(BidBlind, 4, tt.tricksWon)
		require.NoError(t, err)
		assert.Equal(t, tt.expect, got, "blind with %d tricks", tt.tricksWon)
	}
}

func TestScoreRejectsBadInput(t *testing.T) {
	r := DefaultRules()

	_, err := r.Score("wild", 3, 3)
	assert.ErrorIs(t, err, ErrInvalidBidType)

	_, err = r.Score(BidNormal, -1, 3)
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = r.Score(BidNormal, 3, -1)
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestValidateBid(t *testing.T) {
	r := DefaultRules()

	assert.NoError(t, r.ValidateBid(Bid{Type: BidNormal, N: 5}))
	assert.NoError(t, r.ValidateBid(Bid{Type: BidNil, N: 0}))
	assert.NoError(t, r.ValidateBid(Bid{Type: BidBlind, N: 4}))

	assert.ErrorIs(t, r.ValidateBid(Bid{Type: "mystery", N: 1}), ErrInvalidBidType)
	assert.ErrorIs(t, r.ValidateBid(Bid{Type: BidNil, N: 2}), ErrInvalidNumber)
	assert.ErrorIs(t, r.ValidateBid(Bid{Type: BidBlind, N: 3}), ErrInvalidNumber)
	assert.ErrorIs(t, r.ValidateBid(Bid{Type: BidNormal, N: -1}), ErrInvalidNumber)
}

func TestTeamScore(t *testing.T) {
	r := DefaultRules()

	// 5 exact (50) + nil success (100) - one short (10) + blind at minimum (80)
	// works out to 220; a simpler pair below checks 130.
	bids := []Bid{
		{Type: BidNormal, N: 3, TricksWon: 3},  // 30
		{Type: BidNil, N: 0, TricksWon: 0},     // 100
	}
	total, err := r.TeamScore(bids)
	require.NoError(t, err)
	assert.Equal(t, 130, total)

	total, err = r.TeamScore([]Bid{
		{Type: BidNormal, N: 5, TricksWon: 5},
		{Type: BidNil, N: 0, TricksWon: 0},
		{Type: BidNormal, N: 5, TricksWon: 4},
		{Type: BidBlind, N: 4, TricksWon: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 220, total)
}

func TestTeamScoreFailsFast(t *testing.T) {
	r := DefaultRules()

	total, err := r.TeamScore([]Bid{
		{Type: BidNormal, N: 3, TricksWon: 3},
		{Type: "mystery", N: 1, TricksWon: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidBidType)
	assert.Zero(t, total, "no partial sum on failure")
}

func TestCalculatorCaching(t *testing.T) {
	calc := NewCalculator(DefaultRules())

	got, err := calc.Score(BidNormal, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	// Second call is served from the cache and must agree.
	again, err := calc.Score(BidNormal, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = calc.Score("mystery", 1, 1)
	assert.ErrorIs(t, err, ErrInvalidBidType)
}

func TestCalculatorRebind(t *testing.T) {
	calc := NewCalculator(DefaultRules())

	got, err := calc.Score(BidNormal, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	custom := DefaultRules()
	custom.NormalBase = 20
	calc.Rebind(custom)

	got, err = calc.Score(BidNormal, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, got, "rebind must not serve stale cached entries")
	assert.Equal(t, 20, calc.Rules().NormalBase)
}
