// internal/bot/bot.go
package bot

import (
	"fmt"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/scoring"
)

// Difficulty selects one of the four fixed strategy presets.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
)

// Config parameterizes the strategy. Values are immutable once the bot is
// built; there is one behavioral shape, tuned purely by configuration.
type Config struct {
	Difficulty      Difficulty
	RiskTolerance   float64 // 0-1
	AggressionLevel float64 // 0-1
	MemoryDepth     int     // how many observed states to remember
}

// Personality derives the secondary traits from a Config.
type Personality struct {
	RiskTolerance    float64
	AggressionLevel  float64
	BluffingTendency float64
	LearningRate     float64
}

var bluffingByDifficulty = map[Difficulty]float64{
	Easy:   0.1,
	Medium: 0.3,
	Hard:   0.6,
	Expert: 0.8,
}

var learningByDifficulty = map[Difficulty]float64{
	Easy:   0.1,
	Medium: 0.3,
	Hard:   0.6,
	Expert: 0.9,
}

// NewPersonality derives traits: harder bots bluff more (scaled by
// aggression) and learn faster.
func NewPersonality(cfg Config) Personality {
	return Personality{
		RiskTolerance:    cfg.RiskTolerance,
		AggressionLevel:  cfg.AggressionLevel,
		BluffingTendency: bluffingByDifficulty[cfg.Difficulty] * cfg.AggressionLevel,
		LearningRate:     learningByDifficulty[cfg.Difficulty],
	}
}

// GameState is the observed context a bid decision runs against.
type GameState struct {
	TrumpSuit      cards.Suit
	PlayedCards    []cards.Card
	RoundNumber    int
	PlayerPosition int
	OtherBids      []scoring.Bid
}

// Bot is a stateless strategy plus a bounded observation history. All
// decision methods are pure functions of hand, state, and config.
type Bot struct {
	cfg         Config
	personality Personality
	history     []GameState
}

var presets = map[Difficulty]Config{
	Easy:   {Difficulty: Easy, RiskTolerance: 0.2, AggressionLevel: 0.3, MemoryDepth: 2},
	Medium: {Difficulty: Medium, RiskTolerance: 0.4, AggressionLevel: 0.5, MemoryDepth: 3},
	Hard:   {Difficulty: Hard, RiskTolerance: 0.6, AggressionLevel: 0.7, MemoryDepth: 5},
	Expert: {Difficulty: Expert, RiskTolerance: 0.8, AggressionLevel: 0.9, MemoryDepth: 10},
}

// New returns a bot for one of the four fixed difficulty presets.
func New(difficulty Difficulty) (*Bot, error) {
	cfg, ok := presets[difficulty]
	if !ok {
		return nil, fmt.Errorf("unknown difficulty: %q", difficulty)
	}
	return NewWithConfig(cfg), nil
}

// NewWithConfig builds a bot from an explicit configuration.
func NewWithConfig(cfg Config) *Bot {
	if cfg.MemoryDepth <= 0 {
		cfg.MemoryDepth = 1
	}
	return &Bot{
		cfg:         cfg,
		personality: NewPersonality(cfg),
	}
}

// Config returns the bot's immutable configuration.
func (b *Bot) Config() Config {
	return b.cfg
}

// Personality returns the derived traits.
func (b *Bot) Personality() Personality {
	return b.personality
}

// updateGameHistory appends the observed state to the bounded ring, evicting
// the oldest entry past MemoryDepth. The history is not consulted by the
// current bid formulas; it is retained for future strategy extensions.
func (b *Bot) updateGameHistory(state GameState) {
	b.history = append(b.history, state)
	if len(b.history) > b.cfg.MemoryDepth {
		b.history = b.history[1:]
	}
}

// HistoryLen reports how many observed states are currently remembered.
func (b *Bot) HistoryLen() int {
	return len(b.history)
}

// Reset clears the observation history for a new game.
func (b *Bot) Reset() {
	b.history = nil
}
