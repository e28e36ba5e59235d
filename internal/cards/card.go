// internal/cards/card.go
package cards

import (
	"errors"
	"fmt"
	"strings"
)

// Suit is one of the four fixed suits: ♠, ♥, ♦, ♣.
type Suit string

// Rank is one of the thirteen fixed ranks: 2..10, J, Q, K, A.
type Rank string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits lists the valid suits in canonical order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Ranks lists the valid ranks in ascending strength order. A card's value is
// its index in this slice, so 2 is weakest and A is strongest.
var Ranks = []Rank{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

var (
	ErrInvalidSuit = errors.New("invalid suit")
	ErrInvalidRank = errors.New("invalid rank")
)

var rankValues = func() map[Rank]int {
	m := make(map[Rank]int, len(Ranks))
	for i, r := range Ranks {
		m[r] = i
	}
	return m
}()

// Card is an immutable playing card. IsLastCard marks the single card dealt
// last from a deck; that card wins any trick it is played into.
type Card struct {
	Suit       Suit `json:"suit"`
	Rank       Rank `json:"rank"`
	IsLastCard bool `json:"isLast,omitempty"`
}

// NewCard builds a card, rejecting suits and ranks outside the fixed
// enumerations.
func NewCard(suit Suit, rank Rank, isLast bool) (Card, error) {
	if !ValidSuit(suit) {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidSuit, suit)
	}
	if !ValidRank(rank) {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidRank, rank)
	}
	return Card{Suit: suit, Rank: rank, IsLastCard: isLast}, nil
}

// ValidSuit reports whether s is one of the four fixed suits.
func ValidSuit(s Suit) bool {
	for _, v := range Suits {
		if v == s {
			return true
		}
	}
	return false
}

// ValidRank reports whether r is one of the thirteen fixed ranks.
func ValidRank(r Rank) bool {
	_, ok := rankValues[r]
	return ok
}

// Value returns the rank ordinal (0 for 2 up to 12 for A).
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// IsHigh reports whether the card is one of A, K, Q, J.
func (c Card) IsHigh() bool {
	switch c.Rank {
	case "A", "K", "Q", "J":
		return true
	}
	return false
}

// Beats reports whether c wins against other in a trick. Precedence:
//
//  1. A last card beats everything and loses to nothing.
//  2. A trump card beats any non-trump; between two trumps higher rank wins.
//  3. A card of the led suit beats an off-suit card; between two cards of the
//     led suit higher rank wins.
//
// Two off-suit non-trump cards are not ordered by this function alone; trick
// resolution folds left to right against the current best card, so such a
// pair never decides a trick.
func (c Card) Beats(other Card, ledSuit, trumpSuit Suit) bool {
	if c.IsLastCard {
		return true
	}
	if other.IsLastCard {
		return false
	}

	if trumpSuit != "" {
		if c.Suit == trumpSuit && other.Suit != trumpSuit {
			return true
		}
		if c.Suit != trumpSuit && other.Suit == trumpSuit {
			return false
		}
		if c.Suit == trumpSuit && other.Suit == trumpSuit {
			return c.Value() > other.Value()
		}
	}

	if c.Suit == ledSuit && other.Suit != ledSuit {
		return true
	}
	if c.Suit != ledSuit && other.Suit == ledSuit {
		return false
	}
	if c.Suit == other.Suit {
		return c.Value() > other.Value()
	}
	return c.Suit == ledSuit
}

// CanPlay reports whether playing c from hand is legal given the suit that
// was led. Legal when nothing has been led yet, when the hand holds no card
// of the led suit, or when c follows suit.
func (c Card) CanPlay(hand []Card, ledSuit Suit) bool {
	if ledSuit == "" {
		return true
	}
	hasLed := false
	for _, h := range hand {
		if h.Suit == ledSuit {
			hasLed = true
			break
		}
	}
	if !hasLed {
		return true
	}
	return c.Suit == ledSuit
}

// String renders the card as suit+rank, with a trailing '*' for the last
// card, e.g. "♠A" or "♥10*".
func (c Card) String() string {
	if c.IsLastCard {
		return string(c.Suit) + string(c.Rank) + "*"
	}
	return string(c.Suit) + string(c.Rank)
}

// Parse is the inverse of String.
func Parse(s string) (Card, error) {
	isLast := strings.HasSuffix(s, "*")
	s = strings.TrimSuffix(s, "*")
	for _, suit := range Suits {
		if strings.HasPrefix(s, string(suit)) {
			return NewCard(suit, Rank(strings.TrimPrefix(s, string(suit))), isLast)
		}
	}
	return Card{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidSuit, s)
}
