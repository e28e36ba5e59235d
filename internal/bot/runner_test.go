// internal/bot/runner_test.go
package bot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/scoring"
)

func TestRunnerBidsOnceHandAndPhaseArrive(t *testing.T) {
	var submitted []protocol.ClientMessage
	r, err := NewRunner("g1", Medium, func(m protocol.ClientMessage) {
		submitted = append(submitted, m)
	}, nil)
	require.NoError(t, err)

	hand := handOf(t, "♥2", "♥3", "♦4", "♦5", "♣2", "♣6", "♠3", "♠4", "♥5", "♦6", "♣7", "♠6", "♥7")

	// Phase change can outrun the hand; no bid until both are observed.
	r.handle(protocol.ServerMessage{
		Event:   protocol.EventPhaseChange,
		Payload: protocol.PhaseChangePayload{Phase: "BIDDING"},
	})
	assert.Empty(t, submitted)

	r.handle(protocol.ServerMessage{
		Event:   protocol.EventGameStart,
		Payload: protocol.GameStartPayload{Players: []string{r.PlayerID, "bob"}},
	})
	r.handle(protocol.ServerMessage{
		Event:   protocol.EventHandDealt,
		Payload: protocol.HandDealtPayload{Hand: hand},
	})
	require.Len(t, submitted, 1)
	assert.Equal(t, protocol.EventBid, submitted[0].Event)
	assert.Equal(t, "g1", submitted[0].GameID)
	assert.Equal(t, r.PlayerID, submitted[0].PlayerID)

	var bid scoring.Bid
	require.NoError(t, json.Unmarshal(submitted[0].Payload, &bid))
	assert.Equal(t, scoring.BidNil, bid.Type, "medium tier goes nil on this hand")

	// A repeated phase change never double-bids.
	r.handle(protocol.ServerMessage{
		Event:   protocol.EventPhaseChange,
		Payload: protocol.PhaseChangePayload{Phase: "BIDDING"},
	})
	assert.Len(t, submitted, 1)
}

func TestRunnerTracksTricksAndLeader(t *testing.T) {
	r, err := NewRunner("g1", Medium, func(protocol.ClientMessage) {}, nil)
	require.NoError(t, err)

	r.handle(protocol.ServerMessage{
		Event:   protocol.EventGameStart,
		Payload: protocol.GameStartPayload{Players: []string{"bob", r.PlayerID}},
	})
	assert.Equal(t, "bob", r.leader)

	r.handle(protocol.ServerMessage{
		Event:   protocol.EventTrickComplete,
		Payload: protocol.TrickCompletePayload{Winner: r.PlayerID},
	})
	r.handle(protocol.ServerMessage{
		Event:   protocol.EventTrickComplete,
		Payload: protocol.TrickCompletePayload{Winner: "bob"},
	})

	assert.Equal(t, 2, r.tricksDone, "completed tricks feed the bid context's round number")
	assert.Equal(t, "bob", r.leader)
	assert.Empty(t, r.trick)
}
