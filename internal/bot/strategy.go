// internal/bot/strategy.go
package bot

import (
	"math"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/scoring"
)

// HandAnalysis is the hand-strength summary feeding bid decisions.
type HandAnalysis struct {
	TotalCards       int
	SuitCounts       map[cards.Suit]int
	HighCards        int
	PotentialTricks  float64
	LastCardPower    bool
	AverageCardValue float64
	TrumpStrength    int
}

// RiskAssessment scores the danger of each bid variant on a 0-1 scale.
type RiskAssessment struct {
	OverbidRisk  float64
	UnderbidRisk float64
	NilRisk      float64
	BlindRisk    float64
	OverallRisk  float64
}

// DecideBid is the top-level bid decision: analyze the hand, assess risk,
// pick a bid type by difficulty, and size the amount.
func (b *Bot) DecideBid(hand []cards.Card, state GameState) scoring.Bid {
	b.updateGameHistory(state)

	analysis := b.AnalyzeHand(hand, state)
	risk := b.AssessRisk(hand, state)
	bidType := b.chooseBidType(analysis, risk)
	return scoring.Bid{
		Type: bidType,
		N:    b.bidAmount(bidType, analysis, risk),
	}
}

// AnalyzeHand computes suit distribution, high-card count, estimated trick
// potential, and trump strength for a hand.
func (b *Bot) AnalyzeHand(hand []cards.Card, state GameState) HandAnalysis {
	counts := map[cards.Suit]int{cards.Spades: 0, cards.Hearts: 0, cards.Diamonds: 0, cards.Clubs: 0}
	highCards := 0
	total := 0
	trumpStrength := 0
	for _, c := range hand {
		counts[c.Suit]++
		total += c.Value()
		if c.IsHigh() {
			highCards++
		}
		if state.TrumpSuit != "" && c.Suit == state.TrumpSuit {
			trumpStrength += c.Value()
		}
	}

	avg := 0.0
	if len(hand) > 0 {
		avg = float64(total) / float64(len(hand))
	}

	lastPower := false
	if len(hand) > 0 {
		lastPower = qualifiesForLastCardPower(hand[len(hand)-1], state.TrumpSuit)
	}

	potential := 0.7 * float64(highCards)
	if state.TrumpSuit != "" {
		potential += 0.5 * float64(counts[state.TrumpSuit])
	}
	if lastPower {
		potential += 1.5
	}
	// Normalize to a 13-card hand, never promising more tricks than cards.
	potential *= float64(len(hand)) / 13
	potential = math.Min(potential, float64(len(hand)))

	return HandAnalysis{
		TotalCards:       len(hand),
		SuitCounts:       counts,
		HighCards:        highCards,
		PotentialTricks:  potential,
		LastCardPower:    lastPower,
		AverageCardValue: avg,
		TrumpStrength:    trumpStrength,
	}
}

// qualifiesForLastCardPower estimates whether a card is strong enough to
// carry the hand's closing trick: an ace, any trump, or a court card.
func qualifiesForLastCardPower(c cards.Card, trumpSuit cards.Suit) bool {
	if c.Rank == "A" {
		return true
	}
	if trumpSuit != "" && c.Suit == trumpSuit {
		return true
	}
	switch c.Rank {
	case "K", "Q", "J":
		return true
	}
	return false
}

// AssessRisk estimates the danger of each bid variant from the hand and the
// bids already on the table.
func (b *Bot) AssessRisk(hand []cards.Card, state GameState) RiskAssessment {
	analysis := b.AnalyzeHand(hand, state)

	totalBids := 0
	for _, bid := range state.OtherBids {
		totalBids += bid.N
	}
	remainingCards := cards.DeckSize - len(state.PlayedCards)
	cardsPerPlayer := float64(remainingCards) / 4

	overbid := 0.2
	if float64(totalBids) > cardsPerPlayer {
		overbid = 0.8
	}
	underbid := 0.7
	if analysis.PotentialTricks > float64(totalBids) {
		underbid = 0.3
	}
	nilRisk := 0.1
	if analysis.HighCards > 2 {
		nilRisk = 0.9
	}
	blindRisk := 0.3
	if analysis.PotentialTricks < 7 {
		blindRisk = 0.95
	}

	return RiskAssessment{
		OverbidRisk:  overbid,
		UnderbidRisk: underbid,
		NilRisk:      nilRisk,
		BlindRisk:    blindRisk,
		OverallRisk:  (overbid + underbid + nilRisk + blindRisk) / 4,
	}
}

// chooseBidType picks a variant by difficulty tier. Experts may go nil or
// blind; medium and hard tiers go nil only under a stricter threshold;
// everyone else bids normal.
func (b *Bot) chooseBidType(analysis HandAnalysis, risk RiskAssessment) scoring.BidType {
	if b.cfg.Difficulty == Expert {
		if analysis.HighCards <= 1 && analysis.AverageCardValue < 8 && risk.NilRisk < 0.3 {
			return scoring.BidNil
		}
		if analysis.PotentialTricks >= 7 && analysis.LastCardPower &&
			risk.BlindRisk < 0.4 && b.personality.AggressionLevel > 0.7 {
			return scoring.BidBlind
		}
	}

	if b.cfg.Difficulty == Medium || b.cfg.Difficulty == Hard {
		if analysis.HighCards == 0 && analysis.AverageCardValue < 6 && risk.NilRisk < 0.2 {
			return scoring.BidNil
		}
	}

	return scoring.BidNormal
}

// bidAmount sizes the bid: nil is zero, blind is at least seven, and normal
// bids start from the trick potential adjusted by aggression and overall
// risk, clamped to the hand size.
func (b *Bot) bidAmount(bidType scoring.BidType, analysis HandAnalysis, risk RiskAssessment) int {
	switch bidType {
	case scoring.BidNil:
		return 0
	case scoring.BidBlind:
		n := int(math.Floor(analysis.PotentialTricks))
		if n < 7 {
			n = 7
		}
		return n
	}

	amount := int(math.Floor(analysis.PotentialTricks))
	if b.personality.AggressionLevel > 0.7 {
		amount++
	} else if b.personality.AggressionLevel < 0.3 {
		amount--
	}
	if risk.OverallRisk > 0.7 {
		amount--
	}
	if amount < 0 {
		amount = 0
	}
	if amount > analysis.TotalCards {
		amount = analysis.TotalCards
	}
	return amount
}
