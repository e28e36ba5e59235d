// internal/bot/play.go
package bot

import (
	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/protocol"
)

// ChoosePlay picks a legal card for the current trick. Leading, aggressive
// bots open with their strongest card and conservative ones with their
// weakest; following, the bot wins as cheaply as possible when it can and
// otherwise dumps its lowest legal card.
func (b *Bot) ChoosePlay(hand []cards.Card, trick []protocol.TrickPlay, trumpSuit cards.Suit) (cards.Card, bool) {
	if len(hand) == 0 {
		return cards.Card{}, false
	}

	var ledSuit cards.Suit
	if len(trick) > 0 {
		ledSuit = trick[0].Card.Suit
	}

	var legal []cards.Card
	for _, c := range hand {
		if c.CanPlay(hand, ledSuit) {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		// CanPlay always admits at least the off-suit fallback; nothing legal
		// means the hand is empty, handled above.
		return cards.Card{}, false
	}

	if len(trick) == 0 {
		if b.personality.AggressionLevel > 0.7 {
			return strongest(legal), true
		}
		return weakest(legal), true
	}

	best := trick[0]
	for _, tp := range trick[1:] {
		if tp.Card.Beats(best.Card, ledSuit, trumpSuit) {
			best = tp
		}
	}

	var winners []cards.Card
	for _, c := range legal {
		if c.Beats(best.Card, ledSuit, trumpSuit) {
			winners = append(winners, c)
		}
	}
	if len(winners) > 0 {
		return weakest(winners), true
	}
	return weakest(legal), true
}

func weakest(cs []cards.Card) cards.Card {
	pick := cs[0]
	for _, c := range cs[1:] {
		if c.Value() < pick.Value() {
			pick = c
		}
	}
	return pick
}

func strongest(cs []cards.Card) cards.Card {
	pick := cs[0]
	for _, c := range cs[1:] {
		if c.Value() > pick.Value() {
			pick = c
		}
	}
	return pick
}
