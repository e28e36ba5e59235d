// internal/bot/runner.go
package bot

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/scoring"
)

// Runner drives a bot seat through the same protocol messages a human
// client sends. It is wired in-process: the server delivers broadcast
// messages through Deliver, and the runner submits JOIN/BID/PLAY envelopes
// through the injected submit function, subject to the same validation,
// rate limiting, and locking as network traffic.
type Runner struct {
	GameID   string
	PlayerID string

	bot     *Bot
	tracker *Tracker
	submit  func(protocol.ClientMessage)
	logger  *logrus.Logger

	events chan protocol.ServerMessage
	done   chan struct{}

	// observed game view, touched only by the run loop
	players      []string
	hand         []cards.Card
	trick        []protocol.TrickPlay
	leader       string
	phase        string
	otherBids    []scoring.Bid
	playedCards  []cards.Card
	tricksDone   int
	bidSubmitted bool
	trumpSuit    cards.Suit
}

// NewRunner builds a bot seat for a game. The submit function must accept
// client envelopes exactly as the network entrypoint does.
func NewRunner(gameID string, difficulty Difficulty, submit func(protocol.ClientMessage), logger *logrus.Logger) (*Runner, error) {
	b, err := New(difficulty)
	if err != nil {
		return nil, err
	}
	return &Runner{
		GameID:   gameID,
		PlayerID: "bot-" + uuid.NewString()[:8],
		bot:      b,
		tracker:  &Tracker{},
		submit:   submit,
		logger:   logger,
		events:   make(chan protocol.ServerMessage, 128),
		done:     make(chan struct{}),
	}, nil
}

// Tracker returns the runner's performance tracker.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Start launches the run loop and submits the JOIN envelope.
func (r *Runner) Start() {
	go r.loop()
	r.submit(protocol.ClientMessage{
		Event:    protocol.EventJoin,
		GameID:   r.GameID,
		PlayerID: r.PlayerID,
	})
}

// Deliver hands a broadcast message to the runner. Non-blocking: if the bot
// has fallen behind the message is dropped, the same best-effort contract a
// slow network peer gets.
func (r *Runner) Deliver(msg protocol.ServerMessage) {
	select {
	case r.events <- msg:
	case <-r.done:
	default:
		if r.logger != nil {
			r.logger.Warnf("bot %s dropped event %s", r.PlayerID, msg.Event)
		}
	}
}

// Stop terminates the run loop.
func (r *Runner) Stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *Runner) loop() {
	for {
		select {
		case msg := <-r.events:
			r.handle(msg)
		case <-r.done:
			return
		}
	}
}

func (r *Runner) handle(msg protocol.ServerMessage) {
	switch msg.Event {
	case protocol.EventGameStart:
		if p, ok := msg.Payload.(protocol.GameStartPayload); ok {
			r.players = p.Players
			if len(r.players) > 0 {
				r.leader = r.players[0]
			}
			r.maybePlay()
		}
	case protocol.EventHandDealt:
		if p, ok := msg.Payload.(protocol.HandDealtPayload); ok {
			r.hand = append([]cards.Card(nil), p.Hand...)
			// Broadcasts are fire-and-forget goroutines, so the hand can
			// arrive after the phase change that needs it. Retry here.
			if r.phase == "BIDDING" {
				r.submitBid()
			}
			r.maybePlay()
		}
	case protocol.EventBidMade:
		if p, ok := msg.Payload.(protocol.BidMadePayload); ok && p.PlayerID != r.PlayerID {
			r.otherBids = append(r.otherBids, p.Bid)
		}
	case protocol.EventPhaseChange:
		p, ok := msg.Payload.(protocol.PhaseChangePayload)
		if !ok {
			return
		}
		r.phase = p.Phase
		switch p.Phase {
		case "BIDDING":
			r.submitBid()
		case "PLAYING":
			r.maybePlay()
		}
	case protocol.EventCardPlayed:
		if p, ok := msg.Payload.(protocol.CardPlayedPayload); ok {
			r.trick = append(r.trick, protocol.TrickPlay{PlayerID: p.PlayerID, Card: p.Card})
			r.playedCards = append(r.playedCards, p.Card)
			if p.PlayerID == r.PlayerID {
				r.removeFromHand(p.Card)
			}
			r.maybePlay()
		}
	case protocol.EventTrickComplete:
		if p, ok := msg.Payload.(protocol.TrickCompletePayload); ok {
			r.trick = nil
			r.leader = p.Winner
			r.tricksDone++
			r.maybePlay()
		}
	case protocol.EventGameEnd:
		if p, ok := msg.Payload.(protocol.GameEndPayload); ok {
			r.tracker.RecordGame(p.Points[r.PlayerID], []scoring.Bid{p.Bids[r.PlayerID]})
		}
		r.Stop()
	case protocol.EventError:
		if p, ok := msg.Payload.(protocol.ErrorPayload); ok && r.logger != nil {
			r.logger.Warnf("bot %s received error: %s", r.PlayerID, p.Message)
		}
	}
}

func (r *Runner) submitBid() {
	if r.bidSubmitted || len(r.hand) == 0 {
		return
	}
	bid := r.bot.DecideBid(r.hand, GameState{
		TrumpSuit:      r.trumpSuit,
		PlayedCards:    r.playedCards,
		RoundNumber:    r.tricksDone,
		PlayerPosition: r.seat(r.PlayerID),
		OtherBids:      r.otherBids,
	})
	payload, err := json.Marshal(bid)
	if err != nil {
		return
	}
	r.bidSubmitted = true
	r.submit(protocol.ClientMessage{
		Event:    protocol.EventBid,
		GameID:   r.GameID,
		PlayerID: r.PlayerID,
		Payload:  payload,
	})
}

// maybePlay submits a card when the round-robin order from the current
// trick leader reaches this seat.
func (r *Runner) maybePlay() {
	if r.phase != "PLAYING" || len(r.players) == 0 {
		return
	}
	for _, tp := range r.trick {
		if tp.PlayerID == r.PlayerID {
			return
		}
	}
	leaderIdx := r.seat(r.leader)
	if leaderIdx < 0 {
		return
	}
	turn := r.players[(leaderIdx+len(r.trick))%len(r.players)]
	if turn != r.PlayerID {
		return
	}

	card, ok := r.bot.ChoosePlay(r.hand, r.trick, r.trumpSuit)
	if !ok {
		return
	}
	payload, err := json.Marshal(protocol.PlayPayload{Card: card})
	if err != nil {
		return
	}
	r.submit(protocol.ClientMessage{
		Event:    protocol.EventPlay,
		GameID:   r.GameID,
		PlayerID: r.PlayerID,
		Payload:  payload,
	})
}

func (r *Runner) seat(playerID string) int {
	for i, p := range r.players {
		if p == playerID {
			return i
		}
	}
	return -1
}

func (r *Runner) removeFromHand(c cards.Card) {
	for i, h := range r.hand {
		if h.Suit == c.Suit && h.Rank == c.Rank {
			r.hand = append(r.hand[:i], r.hand[i+1:]...)
			return
		}
	}
}
