// internal/security/schema.go
package security

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/scoring"
)

// ErrSchema marks a message rejected before dispatch: unknown event type,
// missing identifiers, malformed payload, or an enum value outside the fixed
// sets.
var ErrSchema = errors.New("invalid message")

// ValidateMessage checks an inbound envelope against the per-event schema.
// It never touches game state; a passing message may still be rejected by
// the session for phase or legality reasons.
func ValidateMessage(msg protocol.ClientMessage) error {
	switch msg.Event {
	case protocol.EventPing:
		return nil
	case protocol.EventJoin, protocol.EventSyncRequest:
		return requireIDs(msg)
	case protocol.EventBid:
		if err := requireIDs(msg); err != nil {
			return err
		}
		var bid protocol.BidPayload
		if err := json.Unmarshal(msg.Payload, &bid); err != nil {
			return fmt.Errorf("%w: malformed BID payload: %v", ErrSchema, err)
		}
		switch bid.Type {
		case scoring.BidNormal, scoring.BidNil, scoring.BidBlind:
		default:
			return fmt.Errorf("%w: unknown bid type %q", ErrSchema, bid.Type)
		}
		if bid.N < 0 || bid.TricksWon < 0 {
			return fmt.Errorf("%w: negative bid fields", ErrSchema)
		}
		return nil
	case protocol.EventPlay:
		if err := requireIDs(msg); err != nil {
			return err
		}
		var play protocol.PlayPayload
		if err := json.Unmarshal(msg.Payload, &play); err != nil {
			return fmt.Errorf("%w: malformed PLAY payload: %v", ErrSchema, err)
		}
		if !cards.ValidSuit(play.Card.Suit) {
			return fmt.Errorf("%w: unknown suit %q", ErrSchema, play.Card.Suit)
		}
		if !cards.ValidRank(play.Card.Rank) {
			return fmt.Errorf("%w: unknown rank %q", ErrSchema, play.Card.Rank)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrSchema, msg.Event)
	}
}

func requireIDs(msg protocol.ClientMessage) error {
	if msg.GameID == "" {
		return fmt.Errorf("%w: missing gameId", ErrSchema)
	}
	if msg.PlayerID == "" {
		return fmt.Errorf("%w: missing playerId", ErrSchema)
	}
	return nil
}
