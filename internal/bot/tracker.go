// internal/bot/tracker.go
package bot

import (
	"sync"

	"github.com/braygame/bray/internal/scoring"
)

// Tracker accumulates a bot's results across games.
type Tracker struct {
	mu             sync.Mutex
	gamesPlayed    int
	totalScore     int
	successfulBids int
	totalBids      int
}

// Stats is a point-in-time summary of tracked performance.
type Stats struct {
	GamesPlayed    int     `json:"gamesPlayed"`
	AverageScore   float64 `json:"averageScore"`
	BidAccuracy    float64 `json:"bidAccuracy"`
	SuccessfulBids int     `json:"successfulBids"`
	TotalBids      int     `json:"totalBids"`
}

// RecordGame adds one finished game. A bid counts as successful only when
// tricksWon equals the bid exactly, for every bid type.
func (t *Tracker) RecordGame(score int, bids []scoring.Bid) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gamesPlayed++
	t.totalScore += score
	for _, b := range bids {
		t.totalBids++
		if b.TricksWon == b.N {
			t.successfulBids++
		}
	}
}

// Stats summarizes the tracked games. Before any bid or game has been
// recorded the corresponding ratios are defined as 0.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	avg := 0.0
	if t.gamesPlayed > 0 {
		avg = float64(t.totalScore) / float64(t.gamesPlayed)
	}
	accuracy := 0.0
	if t.totalBids > 0 {
		accuracy = float64(t.successfulBids) / float64(t.totalBids)
	}
	return Stats{
		GamesPlayed:    t.gamesPlayed,
		AverageScore:   avg,
		BidAccuracy:    accuracy,
		SuccessfulBids: t.successfulBids,
		TotalBids:      t.totalBids,
	}
}

// Reset clears all accumulated results.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gamesPlayed = 0
	t.totalScore = 0
	t.successfulBids = 0
	t.totalBids = 0
}
