// internal/game/session.go
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/scoring"
)

// Phase is the session lifecycle state. Transitions are forward-only:
// WAITING -> DEALING -> BIDDING -> PLAYING -> ENDED.
type Phase string

const (
	PhaseWaiting Phase = "WAITING"
	PhaseDealing Phase = "DEALING"
	PhaseBidding Phase = "BIDDING"
	PhasePlaying Phase = "PLAYING"
	PhaseEnded   Phase = "ENDED"
)

var (
	// ErrSessionFull is the capacity failure: the session already seats the
	// maximum number of players.
	ErrSessionFull = errors.New("game is full")
	// ErrWrongPhase is the state failure: the operation is illegal for the
	// session's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
	// ErrUnknownPlayer rejects operations from ids never admitted to the
	// session.
	ErrUnknownPlayer = errors.New("player is not in this game")
	// ErrIllegalPlay rejects card plays that violate hand contents or the
	// must-follow-suit rule.
	ErrIllegalPlay = errors.New("illegal card play")
	// ErrGameEnded rejects mutations once the session reached ENDED.
	ErrGameEnded = errors.New("game has ended")
)

// Broadcaster fans a message out to the named recipients, skipping the
// optional excluded player. Delivery is fire-and-forget: closed peers
// silently drop the message.
type Broadcaster func(recipients []string, exclude string, msg protocol.ServerMessage)

// DirectSender delivers a message to a single player only.
type DirectSender func(playerID string, msg protocol.ServerMessage)

// Config carries the per-session tunables.
type Config struct {
	MinPlayers int          // auto-advance threshold, default 2
	MaxPlayers int          // hard seat cap, default 4
	HandSize   int          // cards dealt per player, default 13
	TrumpSuit  cards.Suit   // empty for no trump
	Rules      scoring.Rules // score table used at settlement
}

// DefaultConfig returns the standard four-seat, thirteen-card setup.
func DefaultConfig() Config {
	return Config{
		MinPlayers: 2,
		MaxPlayers: 4,
		HandSize:   13,
		Rules:      scoring.DefaultRules(),
	}
}

// Session holds the entire authoritative state for one game in memory.
// Every exported operation takes the session mutex; at most one mutation
// touches the state at a time.
type Session struct {
	ID     string
	Config Config

	mu             sync.Mutex
	phase          Phase
	players        []string
	hands          map[string][]cards.Card
	bids           map[string]scoring.Bid
	currentTrick   []protocol.TrickPlay
	scores         map[string]int // tricks won this round
	currentPlayer  string
	lastCardPlayed *cards.Card
	lastActive     time.Time

	// BroadcastFn and SendToFn are injected by the transport layer. Nil
	// functions are safe and drop the message.
	BroadcastFn Broadcaster
	SendToFn    DirectSender

	Logger *logrus.Logger
}

// NewSession builds an empty WAITING session. Sessions are created lazily on
// the first JOIN for an unseen id.
func NewSession(id string, cfg Config) *Session {
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = 2
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = 4
	}
	if cfg.HandSize <= 0 {
		cfg.HandSize = 13
	}
	return &Session{
		ID:         id,
		Config:     cfg,
		phase:      PhaseWaiting,
		hands:      make(map[string][]cards.Card),
		bids:       make(map[string]scoring.Bid),
		scores:     make(map[string]int),
		lastActive: time.Now(),
	}
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Infof(format, args...)
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Players returns a copy of the seated player ids in join order.
func (s *Session) Players() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.players...)
}

// Hand returns a copy of a player's current hand.
func (s *Session) Hand(playerID string) []cards.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cards.Card(nil), s.hands[playerID]...)
}

// LastActive reports the time of the most recent accepted operation, for
// retention sweeps.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) seated(playerID string) bool {
	for _, p := range s.players {
		if p == playerID {
			return true
		}
	}
	return false
}

func (s *Session) broadcast(msg protocol.ServerMessage) {
	if s.BroadcastFn == nil {
		return
	}
	s.BroadcastFn(append([]string(nil), s.players...), "", msg)
}

func (s *Session) sendTo(playerID string, msg protocol.ServerMessage) {
	if s.SendToFn == nil {
		return
	}
	s.SendToFn(playerID, msg)
}

// Join admits a player while the session is WAITING and below capacity.
// A re-JOIN from an already seated player succeeds in any phase without
// state change; this is the reconnect path. Once the seated count reaches
// MinPlayers the session deals hands, broadcasts GAME_START, and enters
// BIDDING.
func (s *Session) Join(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seated(playerID) {
		// Reconnect: the caller follows up with SYNC_REQUEST for a snapshot.
		s.lastActive = time.Now()
		return nil
	}
	if len(s.players) >= s.Config.MaxPlayers {
		return ErrSessionFull
	}
	if s.phase != PhaseWaiting {
		return fmt.Errorf("%w: cannot join in phase %s", ErrWrongPhase, s.phase)
	}

	s.players = append(s.players, playerID)
	s.scores[playerID] = 0
	s.lastActive = time.Now()
	s.logf("player %s joined game %s (%d seated)", playerID, s.ID, len(s.players))

	if len(s.players) >= s.Config.MinPlayers {
		s.deal()
	}
	return nil
}

// deal moves WAITING -> DEALING -> BIDDING under the held lock.
func (s *Session) deal() {
	s.phase = PhaseDealing

	deck := cards.NewDeck()
	hands, err := cards.Deal(deck, len(s.players), s.Config.HandSize)
	if err != nil {
		// Unreachable with the fixed deck and seat cap, but never leave the
		// session half-dealt.
		s.logf("deal failed for game %s: %v", s.ID, err)
		s.phase = PhaseEnded
		return
	}
	for i, p := range s.players {
		s.hands[p] = hands[i]
	}
	s.currentPlayer = s.players[0]

	s.broadcast(protocol.ServerMessage{
		Event:   protocol.EventGameStart,
		Payload: protocol.GameStartPayload{Players: append([]string(nil), s.players...)},
	})
	for _, p := range s.players {
		s.sendTo(p, protocol.ServerMessage{
			Event:   protocol.EventHandDealt,
			Payload: protocol.HandDealtPayload{Hand: append([]cards.Card(nil), s.hands[p]...)},
		})
	}

	s.phase = PhaseBidding
	s.broadcast(protocol.ServerMessage{
		Event:   protocol.EventPhaseChange,
		Payload: protocol.PhaseChangePayload{Phase: string(PhaseBidding)},
	})
	s.logf("game %s dealt %d hands, now bidding", s.ID, len(s.players))
}

// HandleBid records a player's bid during BIDDING. Resubmission overwrites
// the previous bid (last write wins). Once every seated player has bid the
// session advances to PLAYING and broadcasts the full bid map.
func (s *Session) HandleBid(playerID string, bid scoring.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseBidding {
		return fmt.Errorf("%w: bidding is closed in phase %s", ErrWrongPhase, s.phase)
	}
	if !s.seated(playerID) {
		return ErrUnknownPlayer
	}
	if err := s.Config.Rules.ValidateBid(bid); err != nil {
		return err
	}

	s.bids[playerID] = bid
	s.lastActive = time.Now()
	s.broadcast(protocol.ServerMessage{
		Event:   protocol.EventBidMade,
		Payload: protocol.BidMadePayload{PlayerID: playerID, Bid: bid},
	})

	if len(s.bids) == len(s.players) {
		s.phase = PhasePlaying
		s.broadcast(protocol.ServerMessage{
			Event: protocol.EventPhaseChange,
			Payload: protocol.PhaseChangePayload{
				Phase: string(PhasePlaying),
				Bids:  s.copyBids(),
			},
		})
		s.logf("game %s: all bids in, playing", s.ID)
	}
	return nil
}

// HandlePlay appends a card to the current trick during PLAYING. The card
// must come from the player's hand, must follow the led suit when possible,
// and a player contributes at most one card per trick. When the trick
// reaches the player count it is resolved and cleared; when all hands are
// exhausted the session settles and ends.
func (s *Session) HandlePlay(playerID string, card cards.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return ErrGameEnded
	}
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: cannot play in phase %s", ErrWrongPhase, s.phase)
	}
	if !s.seated(playerID) {
		return ErrUnknownPlayer
	}
	for _, tp := range s.currentTrick {
		if tp.PlayerID == playerID {
			return fmt.Errorf("%w: already played this trick", ErrIllegalPlay)
		}
	}

	hand := s.hands[playerID]
	idx := -1
	for i, h := range hand {
		if h.Suit == card.Suit && h.Rank == card.Rank {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: card %s not in hand", ErrIllegalPlay, card)
	}
	// The held copy is authoritative for IsLastCard; clients need not echo
	// the flag.
	card = hand[idx]

	var ledSuit cards.Suit
	if len(s.currentTrick) > 0 {
		ledSuit = s.currentTrick[0].Card.Suit
	}
	if !card.CanPlay(hand, ledSuit) {
		return fmt.Errorf("%w: must follow suit %s", ErrIllegalPlay, ledSuit)
	}

	s.hands[playerID] = append(hand[:idx], hand[idx+1:]...)
	s.currentTrick = append(s.currentTrick, protocol.TrickPlay{PlayerID: playerID, Card: card})
	played := card
	s.lastCardPlayed = &played
	s.lastActive = time.Now()
	s.advanceTurn(playerID)

	s.broadcast(protocol.ServerMessage{
		Event:   protocol.EventCardPlayed,
		Payload: protocol.CardPlayedPayload{PlayerID: playerID, Card: card},
	})

	if len(s.currentTrick) == len(s.players) {
		s.resolveTrick()
	}
	return nil
}

// advanceTurn points currentPlayer at the next seat after the one that just
// played. Informational: play acceptance is first-come within a trick.
func (s *Session) advanceTurn(justPlayed string) {
	for i, p := range s.players {
		if p == justPlayed {
			s.currentPlayer = s.players[(i+1)%len(s.players)]
			return
		}
	}
}

// resolveTrick folds the trick left to right against the current best card,
// credits the winner one trick, clears the trick, and ends the game when
// every hand is empty. Called with the lock held.
func (s *Session) resolveTrick() {
	ledSuit := s.currentTrick[0].Card.Suit
	best := s.currentTrick[0]
	for _, tp := range s.currentTrick[1:] {
		if tp.Card.Beats(best.Card, ledSuit, s.Config.TrumpSuit) {
			best = tp
		}
	}

	s.scores[best.PlayerID]++
	s.currentTrick = nil
	s.currentPlayer = best.PlayerID
	s.logf("game %s: trick won by %s", s.ID, best.PlayerID)

	s.broadcast(protocol.ServerMessage{
		Event: protocol.EventTrickComplete,
		Payload: protocol.TrickCompletePayload{
			Winner: best.PlayerID,
			Scores: s.copyScores(),
		},
	})

	for _, p := range s.players {
		if len(s.hands[p]) > 0 {
			return
		}
	}
	s.settle()
}

// settle fills each bid's tricksWon from the trick tally, computes final
// points from the rule table, and transitions to ENDED. Called with the
// lock held.
func (s *Session) settle() {
	s.phase = PhaseEnded

	points := make(map[string]int, len(s.players))
	bestPoints := 0
	winner := ""
	for _, p := range s.players {
		bid := s.bids[p]
		bid.TricksWon = s.scores[p]
		s.bids[p] = bid

		pts, err := s.Config.Rules.Score(bid.Type, bid.N, bid.TricksWon)
		if err != nil {
			// Bids were validated on admission; a scoring failure here means
			// a corrupted bid, which forfeits the round for that player.
			s.logf("game %s: scoring bid for %s failed: %v", s.ID, p, err)
			pts = 0
		}
		points[p] = pts
		if winner == "" || pts > bestPoints {
			winner, bestPoints = p, pts
		}
	}

	s.logf("game %s ended, winner %s (%d points)", s.ID, winner, bestPoints)
	s.broadcast(protocol.ServerMessage{
		Event: protocol.EventGameEnd,
		Payload: protocol.GameEndPayload{
			Winner: winner,
			Points: points,
			Bids:   s.copyBids(),
		},
	})
}

// Snapshot returns a point-in-time consistent view of the session for the
// requesting player. Read-only: two consecutive snapshots with no
// intervening mutation are equal.
func (s *Session) Snapshot() protocol.StateSyncPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *cards.Card
	if s.lastCardPlayed != nil {
		c := *s.lastCardPlayed
		last = &c
	}
	return protocol.StateSyncPayload{
		Phase:          string(s.phase),
		Players:        append([]string(nil), s.players...),
		CurrentTrick:   append([]protocol.TrickPlay(nil), s.currentTrick...),
		Scores:         s.copyScores(),
		CurrentPlayer:  s.currentPlayer,
		LastCardPlayed: last,
	}
}

func (s *Session) copyScores() map[string]int {
	m := make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		m[k] = v
	}
	return m
}

func (s *Session) copyBids() map[string]scoring.Bid {
	m := make(map[string]scoring.Bid, len(s.bids))
	for k, v := range s.bids {
		m[k] = v
	}
	return m
}
