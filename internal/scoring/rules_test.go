// internal/scoring/rules_test.go
package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base": 25, "nilSuccess": 150}`), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 25, r.NormalBase)
	assert.Equal(t, 150, r.NilSuccess)

	// Omitted fields keep the standard table.
	def := DefaultRules()
	assert.Equal(t, def.NormalPenalty, r.NormalPenalty)
	assert.Equal(t, def.BlindMin, r.BlindMin)
	assert.Equal(t, def.BlindBonus, r.BlindBonus)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err = LoadRules(path)
	assert.Error(t, err)
}
