// internal/game/guard.go
package game

import (
	"sync"
	"time"
)

// ActionKind names a guarded action category. The guard is scoped per kind:
// it serializes duplicates of the same action, not unrelated actions, so a
// BID and a PLAY from the same player may still interleave. That granularity
// is a deliberate responsiveness trade-off, not a defect.
type ActionKind string

const (
	ActionBid  ActionKind = "BID"
	ActionPlay ActionKind = "PLAY"
)

const (
	// DefaultLockTTL is how long an abandoned action lock survives before
	// sweeps reclaim it.
	DefaultLockTTL = 5 * time.Second
	// DefaultPlayerTimeout is the silence window after which a player is
	// flagged inactive.
	DefaultPlayerTimeout = 30 * time.Second
)

type lockKey struct {
	gameID   string
	playerID string
	action   ActionKind
}

// Guard prevents two concurrent same-kind actions from the same player in
// the same game, and tracks player liveness. Advisory: callers must pair
// every successful Acquire with a Release on all exit paths.
type Guard struct {
	mu       sync.Mutex
	locks    map[lockKey]time.Time
	activity map[string]time.Time
	inactive map[string]bool

	lockTTL       time.Duration
	playerTimeout time.Duration
	now           func() time.Time
}

// NewGuard builds a guard with the default TTL and timeout windows.
func NewGuard() *Guard {
	return NewGuardWithWindows(DefaultLockTTL, DefaultPlayerTimeout)
}

// NewGuardWithWindows builds a guard with explicit lock TTL and player
// inactivity windows.
func NewGuardWithWindows(lockTTL, playerTimeout time.Duration) *Guard {
	return &Guard{
		locks:         make(map[lockKey]time.Time),
		activity:      make(map[string]time.Time),
		inactive:      make(map[string]bool),
		lockTTL:       lockTTL,
		playerTimeout: playerTimeout,
		now:           time.Now,
	}
}

// Acquire claims the (game, player, action) lock. It fails if an unexpired
// lock for the exact key exists; expired locks are reclaimed on the way.
func (g *Guard) Acquire(gameID, playerID string, action ActionKind) bool {
	key := lockKey{gameID, playerID, action}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if ts, held := g.locks[key]; held {
		if now.Sub(ts) <= g.lockTTL {
			return false
		}
		// Expired: previous holder abandoned it.
		delete(g.locks, key)
	}
	g.locks[key] = now
	return true
}

// Release drops the (game, player, action) lock unconditionally. It must run
// on every exit path of the guarded operation, including failures.
func (g *Guard) Release(gameID, playerID string, action ActionKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.locks, lockKey{gameID, playerID, action})
}

// Touch records player activity and clears any inactive flag.
func (g *Guard) Touch(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activity[playerID] = g.now()
	delete(g.inactive, playerID)
}

// TimedOut reports whether the player has been silent past the timeout
// window. A player never seen counts as timed out.
func (g *Guard) TimedOut(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.activity[playerID]
	return !ok || g.now().Sub(last) > g.playerTimeout
}

// Inactive reports whether a sweep has flagged the player.
func (g *Guard) Inactive(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inactive[playerID]
}

// SweepLocks deletes locks older than the TTL and returns how many were
// reclaimed. Safe to run concurrently with live traffic.
func (g *Guard) SweepLocks() int {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for key, ts := range g.locks {
		if now.Sub(ts) > g.lockTTL {
			delete(g.locks, key)
			removed++
		}
	}
	return removed
}

// SweepInactive flags players silent past the timeout window and returns the
// newly flagged ids. Flagging does not end any session.
func (g *Guard) SweepInactive() []string {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	var flagged []string
	for playerID, last := range g.activity {
		if now.Sub(last) > g.playerTimeout && !g.inactive[playerID] {
			g.inactive[playerID] = true
			flagged = append(flagged, playerID)
		}
	}
	return flagged
}
