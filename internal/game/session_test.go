// internal/game/session_test.go
package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/scoring"
)

// mockBroadcaster collects outbound messages instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []protocol.ServerMessage
	playerEvents map[string][]protocol.ServerMessage
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[string][]protocol.ServerMessage)}
}

func (mb *mockBroadcaster) broadcastFn(recipients []string, exclude string, msg protocol.ServerMessage) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, msg)
}

func (mb *mockBroadcaster) sendToFn(playerID string, msg protocol.ServerMessage) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], msg)
}

func (mb *mockBroadcaster) eventsOfType(ev protocol.ServerEvent) []protocol.ServerMessage {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []protocol.ServerMessage
	for _, m := range mb.allEvents {
		if m.Event == ev {
			out = append(out, m)
		}
	}
	return out
}

func (mb *mockBroadcaster) lastPlayerEvent(playerID string) *protocol.ServerMessage {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[playerID]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

func newTestSession(t *testing.T, cfg Config) (*Session, *mockBroadcaster) {
	t.Helper()
	s := NewSession("test-game", cfg)
	mb := newMockBroadcaster()
	s.BroadcastFn = mb.broadcastFn
	s.SendToFn = mb.sendToFn
	return s, mb
}

func TestJoinAutoAdvance(t *testing.T) {
	s, mb := newTestSession(t, DefaultConfig())

	require.NoError(t, s.Join("alice"))
	assert.Equal(t, PhaseWaiting, s.Phase())
	assert.Empty(t, mb.eventsOfType(protocol.EventGameStart))

	require.NoError(t, s.Join("bob"))
	assert.Equal(t, PhaseBidding, s.Phase())

	starts := mb.eventsOfType(protocol.EventGameStart)
	require.Len(t, starts, 1)
	payload, ok := starts[0].Payload.(protocol.GameStartPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, payload.Players)

	// Each player got a private hand of the configured size.
	for _, p := range []string{"alice", "bob"} {
		ev := mb.lastPlayerEvent(p)
		require.NotNil(t, ev, "no private events for %s", p)
		assert.Equal(t, protocol.EventHandDealt, ev.Event)
		hand, ok := ev.Payload.(protocol.HandDealtPayload)
		require.True(t, ok)
		assert.Len(t, hand.Hand, 13)
		assert.Len(t, s.Hand(p), 13)
	}

	phases := mb.eventsOfType(protocol.EventPhaseChange)
	require.Len(t, phases, 1)
	assert.Equal(t, "BIDDING", phases[0].Payload.(protocol.PhaseChangePayload).Phase)
}

func TestJoinCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPlayers = 4
	s, _ := newTestSession(t, cfg)

	for _, p := range []string{"p1", "p2", "p3", "p4"} {
		require.NoError(t, s.Join(p))
	}
	assert.ErrorIs(t, s.Join("p5"), ErrSessionFull)
	assert.Len(t, s.Players(), 4)
}

func TestJoinAfterStart(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Join("alice"))
	require.NoError(t, s.Join("bob"))
	require.Equal(t, PhaseBidding, s.Phase())

	// A new player cannot join a running game.
	assert.ErrorIs(t, s.Join("carol"), ErrWrongPhase)

	// A seated player re-joining is the reconnect path and succeeds.
	assert.NoError(t, s.Join("alice"))
	assert.Len(t, s.Players(), 2)
}

func TestBidFlow(t *testing.T) {
	s, mb := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Join("alice"))
	require.NoError(t, s.Join("bob"))

	require.NoError(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 3}))
	assert.Equal(t, PhaseBidding, s.Phase(), "still waiting on bob")

	// Resubmission overwrites; last write wins.
	require.NoError(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 5}))
	assert.Equal(t, PhaseBidding, s.Phase())

	require.NoError(t, s.HandleBid("bob", scoring.Bid{Type: scoring.BidNil, N: 0}))
	assert.Equal(t, PhasePlaying, s.Phase())

	phases := mb.eventsOfType(protocol.EventPhaseChange)
	require.Len(t, phases, 2)
	final := phases[1].Payload.(protocol.PhaseChangePayload)
	assert.Equal(t, "PLAYING", final.Phase)
	assert.Equal(t, 5, final.Bids["alice"].N, "last-write-wins on resubmitted bids")
	assert.Equal(t, scoring.BidNil, final.Bids["bob"].Type)
}

func TestBidRejections(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Join("alice"))

	// No bidding before the deal.
	assert.ErrorIs(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 3}), ErrWrongPhase)

	require.NoError(t, s.Join("bob"))
	assert.ErrorIs(t, s.HandleBid("mallory", scoring.Bid{Type: scoring.BidNormal, N: 3}), ErrUnknownPlayer)
	assert.ErrorIs(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNil, N: 2}), scoring.ErrInvalidNumber)
	assert.ErrorIs(t, s.HandleBid("alice", scoring.Bid{Type: "mystery", N: 1}), scoring.ErrInvalidBidType)
}

// playLegal plays any legal card from the player's hand and returns it.
func playLegal(t *testing.T, s *Session, playerID string) cards.Card {
	t.Helper()
	hand := s.Hand(playerID)
	require.NotEmpty(t, hand, "%s has no cards left", playerID)

	snap := s.Snapshot()
	var ledSuit cards.Suit
	if len(snap.CurrentTrick) > 0 {
		ledSuit = snap.CurrentTrick[0].Card.Suit
	}
	for _, c := range hand {
		if c.CanPlay(hand, ledSuit) {
			require.NoError(t, s.HandlePlay(playerID, c))
			return c
		}
	}
	t.Fatalf("no legal card for %s", playerID)
	return cards.Card{}
}

func TestFullRound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HandSize = 3
	s, mb := newTestSession(t, cfg)

	require.NoError(t, s.Join("alice"))
	require.NoError(t, s.Join("bob"))
	require.NoError(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 1}))
	require.NoError(t, s.HandleBid("bob", scoring.Bid{Type: scoring.BidNormal, N: 2}))
	require.Equal(t, PhasePlaying, s.Phase())

	for trick := 0; trick < 3; trick++ {
		playLegal(t, s, "alice")
		playLegal(t, s, "bob")
	}

	assert.Equal(t, PhaseEnded, s.Phase())
	assert.Len(t, mb.eventsOfType(protocol.EventTrickComplete), 3)

	ends := mb.eventsOfType(protocol.EventGameEnd)
	require.Len(t, ends, 1)
	end := ends[0].Payload.(protocol.GameEndPayload)
	assert.NotEmpty(t, end.Winner)
	require.Len(t, end.Bids, 2)

	// Settled tricksWon totals cover every trick exactly once, and the score
	// table agrees with the published points.
	total := 0
	for p, bid := range end.Bids {
		total += bid.TricksWon
		want, err := cfg.Rules.Score(bid.Type, bid.N, bid.TricksWon)
		require.NoError(t, err)
		assert.Equal(t, want, end.Points[p])
	}
	assert.Equal(t, 3, total)

	// No further mutations after ENDED.
	assert.ErrorIs(t, s.HandlePlay("alice", cards.Card{Suit: cards.Spades, Rank: "2"}), ErrGameEnded)
}

func TestPlayRejections(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Join("alice"))

	// Not in PLAYING yet.
	err := s.HandlePlay("alice", cards.Card{Suit: cards.Spades, Rank: "2"})
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, s.Join("bob"))
	require.NoError(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 1}))
	require.NoError(t, s.HandleBid("bob", scoring.Bid{Type: scoring.BidNormal, N: 1}))

	// Card not in hand.
	hand := s.Hand("alice")
	var missing cards.Card
	held := make(map[string]bool, len(hand))
	for _, c := range hand {
		held[c.String()] = true
	}
	for _, suit := range cards.Suits {
		for _, rank := range cards.Ranks {
			c := cards.Card{Suit: suit, Rank: rank}
			if !held[c.String()] && !held[c.String()+"*"] {
				missing = c
			}
		}
	}
	assert.ErrorIs(t, s.HandlePlay("alice", missing), ErrIllegalPlay)

	// One card per player per trick.
	playLegal(t, s, "alice")
	hand = s.Hand("alice")
	err = s.HandlePlay("alice", hand[0])
	assert.ErrorIs(t, err, ErrIllegalPlay)

	// Unknown players cannot play.
	assert.ErrorIs(t, s.HandlePlay("mallory", hand[0]), ErrUnknownPlayer)
}

func TestMustFollowSuit(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Join("alice"))
	require.NoError(t, s.Join("bob"))
	require.NoError(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 1}))
	require.NoError(t, s.HandleBid("bob", scoring.Bid{Type: scoring.BidNormal, N: 1}))

	led := playLegal(t, s, "alice")

	// If bob holds the led suit he must follow it.
	bobHand := s.Hand("bob")
	holdsLed := false
	var offSuit *cards.Card
	for i, c := range bobHand {
		if c.Suit == led.Suit {
			holdsLed = true
		} else if offSuit == nil {
			offSuit = &bobHand[i]
		}
	}
	if !holdsLed || offSuit == nil {
		t.Skip("dealt hand cannot exercise follow-suit violation")
	}
	assert.ErrorIs(t, s.HandlePlay("bob", *offSuit), ErrIllegalPlay)
}

func TestSnapshotIdempotent(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Join("alice"))
	require.NoError(t, s.Join("bob"))
	require.NoError(t, s.HandleBid("alice", scoring.Bid{Type: scoring.BidNormal, N: 2}))
	require.NoError(t, s.HandleBid("bob", scoring.Bid{Type: scoring.BidNormal, N: 2}))
	playLegal(t, s, "alice")

	first := s.Snapshot()
	second := s.Snapshot()
	assert.Equal(t, first, second, "snapshot must not mutate state")

	assert.Equal(t, "PLAYING", first.Phase)
	assert.Equal(t, []string{"alice", "bob"}, first.Players)
	require.Len(t, first.CurrentTrick, 1)
	require.NotNil(t, first.LastCardPlayed)
	assert.Equal(t, first.CurrentTrick[0].Card, *first.LastCardPlayed)
	assert.Equal(t, "bob", first.CurrentPlayer)
}

func TestLastCardWinsTrick(t *testing.T) {
	// Construct the trick directly to pin the last-card rule without a full
	// dealt game.
	trick := []protocol.TrickPlay{
		{PlayerID: "alice", Card: cards.Card{Suit: cards.Hearts, Rank: "A"}},
		{PlayerID: "bob", Card: cards.Card{Suit: cards.Clubs, Rank: "2", IsLastCard: true}},
	}
	led := trick[0].Card.Suit
	best := trick[0]
	for _, tp := range trick[1:] {
		if tp.Card.Beats(best.Card, led, cards.Spades) {
			best = tp
		}
	}
	assert.Equal(t, "bob", best.PlayerID)
}
