// internal/protocol/protocol.go
package protocol

import (
	"encoding/json"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/scoring"
)

// ClientEvent enumerates the inbound message types. The set is closed;
// routing switches over it exhaustively and rejects anything else before
// dispatch.
type ClientEvent string

const (
	EventJoin        ClientEvent = "JOIN"
	EventBid         ClientEvent = "BID"
	EventPlay        ClientEvent = "PLAY"
	EventSyncRequest ClientEvent = "SYNC_REQUEST"
	EventPing        ClientEvent = "PING"
)

// ClientMessage is the inbound JSON envelope.
type ClientMessage struct {
	Event    ClientEvent     `json:"event"`
	GameID   string          `json:"gameId,omitempty"`
	PlayerID string          `json:"playerId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// BidPayload is the BID payload: the bid contract itself.
type BidPayload = scoring.Bid

// PlayPayload is the PLAY payload.
type PlayPayload struct {
	Card cards.Card `json:"card"`
}

// ServerEvent enumerates the outbound message types.
type ServerEvent string

const (
	EventGameStart     ServerEvent = "GAME_START"
	EventPhaseChange   ServerEvent = "PHASE_CHANGE"
	EventHandDealt     ServerEvent = "HAND_DEALT"
	EventCardPlayed    ServerEvent = "CARD_PLAYED"
	EventBidMade       ServerEvent = "BID_MADE"
	EventTrickComplete ServerEvent = "TRICK_COMPLETE"
	EventStateSync     ServerEvent = "STATE_SYNC"
	EventGameEnd       ServerEvent = "GAME_END"
	EventError         ServerEvent = "ERROR"
	EventPong          ServerEvent = "PONG"
)

// ServerMessage is the outbound JSON envelope. Payload is one of the typed
// payload structs below, selected by Event.
type ServerMessage struct {
	Event   ServerEvent `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// TrickPlay is one (player, card) entry of the current trick, in play order.
type TrickPlay struct {
	PlayerID string     `json:"playerId"`
	Card     cards.Card `json:"card"`
}

type GameStartPayload struct {
	Players []string `json:"players"`
}

type PhaseChangePayload struct {
	Phase string                 `json:"phase"`
	Bids  map[string]scoring.Bid `json:"bids,omitempty"`
}

// HandDealtPayload is delivered privately to each player after the deal.
type HandDealtPayload struct {
	Hand []cards.Card `json:"hand"`
}

type CardPlayedPayload struct {
	PlayerID string     `json:"playerId"`
	Card     cards.Card `json:"card"`
}

type BidMadePayload struct {
	PlayerID string      `json:"playerId"`
	Bid      scoring.Bid `json:"bid"`
}

// TrickCompletePayload carries the trick winner and the per-player trick
// counts for the round so far.
type TrickCompletePayload struct {
	Winner string         `json:"winner"`
	Scores map[string]int `json:"scores"`
}

// StateSyncPayload is the point-in-time snapshot answered to SYNC_REQUEST.
type StateSyncPayload struct {
	Phase          string         `json:"phase"`
	Players        []string       `json:"players"`
	CurrentTrick   []TrickPlay    `json:"currentTrick"`
	Scores         map[string]int `json:"scores"`
	CurrentPlayer  string         `json:"currentPlayer"`
	LastCardPlayed *cards.Card    `json:"lastCardPlayed"`
}

// GameEndPayload carries the settled bids and final point totals.
type GameEndPayload struct {
	Winner string                 `json:"winner"`
	Points map[string]int         `json:"points"`
	Bids   map[string]scoring.Bid `json:"bids"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Error builds an ERROR message.
func Error(message string) ServerMessage {
	return ServerMessage{Event: EventError, Payload: ErrorPayload{Message: message}}
}

// Pong builds a PONG message.
func Pong() ServerMessage {
	return ServerMessage{Event: EventPong}
}
