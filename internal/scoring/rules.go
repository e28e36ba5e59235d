// internal/scoring/rules.go
package scoring

import (
	"encoding/json"
	"fmt"
	"os"
)

// Rules is the injected score table. All scoring constants live here rather
// than in the formulas, so alternate house tables can be loaded from file.
type Rules struct {
	NormalBase    int `json:"base"`
	NormalOver1   int `json:"over1"`
	NormalPenalty int `json:"penalty"`
	NilSuccess    int `json:"nilSuccess"`
	NilFail       int `json:"nilFail"`
	BlindMin      int `json:"blindMin"`
	BlindBase     int `json:"blindBase"`
	BlindBonus    int `json:"blindBonusPerTrick"`
}

// DefaultRules returns the standard Call Bray table.
func DefaultRules() Rules {
	return Rules{
		NormalBase:    10,
		NormalOver1:   5,
		NormalPenalty: 10,
		NilSuccess:    100,
		NilFail:       -100,
		BlindMin:      4,
		BlindBase:     80,
		BlindBonus:    20,
	}
}

// LoadRules reads a rule table from a JSON file, filling any omitted field
// from the defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	r := DefaultRules()
	if err := json.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return r, nil
}
