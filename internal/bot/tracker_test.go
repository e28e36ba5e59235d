// internal/bot/tracker_test.go
package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/braygame/bray/internal/scoring"
)

func TestTrackerEmpty(t *testing.T) {
	var tr Tracker
	stats := tr.Stats()
	assert.Zero(t, stats.GamesPlayed)
	assert.Zero(t, stats.AverageScore, "no games means average 0, not NaN")
	assert.Zero(t, stats.BidAccuracy, "no bids means accuracy 0, not NaN")
}

func TestTrackerRecordGame(t *testing.T) {
	var tr Tracker

	tr.RecordGame(50, []scoring.Bid{
		{Type: scoring.BidNormal, N: 5, TricksWon: 5},
		{Type: scoring.BidNormal, N: 3, TricksWon: 4},
	})
	tr.RecordGame(-10, []scoring.Bid{
		{Type: scoring.BidNil, N: 0, TricksWon: 0},
	})

	stats := tr.Stats()
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.InDelta(t, 20.0, stats.AverageScore, 1e-9)
	assert.Equal(t, 3, stats.TotalBids)
	assert.Equal(t, 2, stats.SuccessfulBids, "only exact bids count as successful")
	assert.InDelta(t, 2.0/3.0, stats.BidAccuracy, 1e-9)
}

func TestTrackerReset(t *testing.T) {
	var tr Tracker
	tr.RecordGame(100, []scoring.Bid{{Type: scoring.BidNil, N: 0, TricksWon: 0}})
	tr.Reset()

	stats := tr.Stats()
	assert.Zero(t, stats.GamesPlayed)
	assert.Zero(t, stats.TotalBids)
	assert.Zero(t, stats.BidAccuracy)
}
