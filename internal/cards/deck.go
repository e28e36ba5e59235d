// internal/cards/deck.go
package cards

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// DeckSize is the number of cards in a full deck. len of a slice variable is
// not a constant expression, so this is a var.
var DeckSize = len(Suits) * len(Ranks)

// ErrInsufficientCards is returned by Deal when the deck cannot cover the
// requested hands.
var ErrInsufficientCards = errors.New("not enough cards in deck")

// NewDeck returns a full 52-card deck, uniformly shuffled with Fisher-Yates.
// The final card of the shuffled order carries IsLastCard, so it is the card
// dealt last.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	deck[len(deck)-1].IsLastCard = true
	return deck
}

// Deal distributes cards round-robin: on round i, hand j receives
// deck[i*numPlayers+j]. Hands are therefore interleaved, not contiguous
// blocks, and the flagged last card lands in the final round.
func Deal(deck []Card, numPlayers, perPlayer int) ([][]Card, error) {
	if numPlayers*perPlayer > len(deck) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, numPlayers*perPlayer, len(deck))
	}

	hands := make([][]Card, numPlayers)
	for j := range hands {
		hands[j] = make([]Card, 0, perPlayer)
	}
	for i := 0; i < perPlayer; i++ {
		for j := 0; j < numPlayers; j++ {
			hands[j] = append(hands[j], deck[i*numPlayers+j])
		}
	}
	return hands, nil
}
