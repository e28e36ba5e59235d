// internal/handlers/game_server.go
package handlers

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/bot"
	"github.com/braygame/bray/internal/game"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/security"
)

// GameServer is the explicit server aggregate: it owns the session registry,
// the concurrency guard, the rate limiter, the audit log, and the
// player-to-sink connection registry, and is injected into handlers rather
// than accessed ambiently.
type GameServer struct {
	Logger  *logrus.Logger
	Store   *game.Store
	Guard   *game.Guard
	Limiter *security.RateLimiter
	Audit   *security.AuditLog
	Config  game.Config

	mu    sync.Mutex
	sinks map[string]EventSink     // playerID -> sink
	bots  map[string][]*bot.Runner // gameID -> seated bot runners
}

// NewGameServer wires a fresh aggregate with default windows.
func NewGameServer(logger *logrus.Logger, cfg game.Config) *GameServer {
	return &GameServer{
		Logger:  logger,
		Store:   game.NewStore(),
		Guard:   game.NewGuard(),
		Limiter: security.NewRateLimiter(time.Minute, 100),
		Audit:   security.NewAuditLog(logger),
		Config:  cfg,
		sinks:   make(map[string]EventSink),
		bots:    make(map[string][]*bot.Runner),
	}
}

// RegisterSink binds a player id to an outbound sink. A newer registration
// replaces an older one, which is the reconnect path.
func (gs *GameServer) RegisterSink(playerID string, sink EventSink) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.sinks[playerID] = sink
}

// UnregisterSink unbinds a player id, but only while it still points at the
// given sink, so a reconnected peer is not torn down by its stale
// predecessor.
func (gs *GameServer) UnregisterSink(playerID string, sink EventSink) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.sinks[playerID] == sink {
		delete(gs.sinks, playerID)
	}
}

// broadcast fans a message out to the named recipients, skipping exclude.
// Send only enqueues: each sink drains its own queue on a dedicated writer
// goroutine, so the caller is never awaited and each peer still observes
// messages in session order. Players without a live sink, or with a full
// queue, silently miss the message; there is no replay.
func (gs *GameServer) broadcast(recipients []string, exclude string, msg protocol.ServerMessage) {
	gs.mu.Lock()
	targets := make([]EventSink, 0, len(recipients))
	for _, p := range recipients {
		if p == exclude {
			continue
		}
		if sink, ok := gs.sinks[p]; ok {
			targets = append(targets, sink)
		}
	}
	gs.mu.Unlock()

	for _, sink := range targets {
		sink.Send(msg)
	}
}

// sendTo delivers a message to a single player, if connected.
func (gs *GameServer) sendTo(playerID string, msg protocol.ServerMessage) {
	gs.mu.Lock()
	sink, ok := gs.sinks[playerID]
	gs.mu.Unlock()
	if ok {
		sink.Send(msg)
	}
}

// session returns the live session for gameID, creating it lazily with the
// broadcast functions wired in. Creation happens on first JOIN.
func (gs *GameServer) session(gameID string) *game.Session {
	return gs.Store.GetOrCreate(gameID, gs.Config, func(s *game.Session) {
		s.BroadcastFn = gs.broadcast
		s.SendToFn = gs.sendTo
		s.Logger = gs.Logger
	})
}

// Submit routes one client envelope to the owning session. It is the single
// entrypoint for network clients and bots alike. Failures are isolated per
// message: any rejection or panic answers the sender with an ERROR and never
// disturbs other clients or sessions.
func (gs *GameServer) Submit(origin string, msg protocol.ClientMessage, sink EventSink) {
	defer func() {
		if r := recover(); r != nil {
			gs.Logger.Errorf("panic processing %s from %s: %v", msg.Event, origin, r)
			sink.Send(protocol.Error("Invalid message format"))
		}
	}()

	if msg.PlayerID != "" {
		gs.Guard.Touch(msg.PlayerID)
	}

	if err := security.ValidateMessage(msg); err != nil {
		gs.Audit.Record(origin, security.EventValidationFailure, map[string]interface{}{
			"event": string(msg.Event),
			"error": err.Error(),
		})
		sink.Send(protocol.Error(err.Error()))
		return
	}
	gs.Audit.Record(origin, string(msg.Event), map[string]interface{}{
		"gameId": msg.GameID, "playerId": msg.PlayerID,
	})

	switch msg.Event {
	case protocol.EventPing:
		sink.Send(protocol.Pong())

	case protocol.EventJoin:
		gs.RegisterSink(msg.PlayerID, sink)
		if err := gs.session(msg.GameID).Join(msg.PlayerID); err != nil {
			sink.Send(protocol.Error(errorMessage(err)))
		}

	case protocol.EventBid:
		if !gs.Guard.Acquire(msg.GameID, msg.PlayerID, game.ActionBid) {
			sink.Send(protocol.Error("Action in progress"))
			return
		}
		defer gs.Guard.Release(msg.GameID, msg.PlayerID, game.ActionBid)

		sess, ok := gs.Store.Get(msg.GameID)
		if !ok {
			sink.Send(protocol.Error("Game not found"))
			return
		}
		var bid protocol.BidPayload
		if err := json.Unmarshal(msg.Payload, &bid); err != nil {
			sink.Send(protocol.Error("Invalid message format"))
			return
		}
		if err := sess.HandleBid(msg.PlayerID, bid); err != nil {
			sink.Send(protocol.Error(errorMessage(err)))
		}

	case protocol.EventPlay:
		if !gs.Guard.Acquire(msg.GameID, msg.PlayerID, game.ActionPlay) {
			sink.Send(protocol.Error("Action in progress"))
			return
		}
		defer gs.Guard.Release(msg.GameID, msg.PlayerID, game.ActionPlay)

		if gs.Guard.TimedOut(msg.PlayerID) {
			sink.Send(protocol.Error("Player timed out"))
			return
		}
		sess, ok := gs.Store.Get(msg.GameID)
		if !ok {
			sink.Send(protocol.Error("Game not found"))
			return
		}
		var play protocol.PlayPayload
		if err := json.Unmarshal(msg.Payload, &play); err != nil {
			sink.Send(protocol.Error("Invalid message format"))
			return
		}
		if err := sess.HandlePlay(msg.PlayerID, play.Card); err != nil {
			sink.Send(protocol.Error(errorMessage(err)))
		}

	case protocol.EventSyncRequest:
		sess, ok := gs.Store.Get(msg.GameID)
		if !ok {
			sink.Send(protocol.Error("Game not found"))
			return
		}
		// Snapshot goes to the requester only, never broadcast.
		sink.Send(protocol.ServerMessage{
			Event:   protocol.EventStateSync,
			Payload: sess.Snapshot(),
		})
	}
}

// AddBot seats a bot in a game. The runner joins through Submit like any
// other client.
func (gs *GameServer) AddBot(gameID string, difficulty bot.Difficulty) (*bot.Runner, error) {
	var runner *bot.Runner
	submit := func(m protocol.ClientMessage) {
		gs.Submit("bot:"+m.PlayerID, m, botSink{runner})
	}
	runner, err := bot.NewRunner(gameID, difficulty, submit, gs.Logger)
	if err != nil {
		return nil, err
	}

	gs.mu.Lock()
	gs.bots[gameID] = append(gs.bots[gameID], runner)
	gs.mu.Unlock()

	runner.Start()
	return runner, nil
}

// StartSweeps runs the periodic lock, inactivity, and session-retention
// passes until stop is closed. Both guard sweeps only delete or mark, so
// they are safe to run alongside live traffic.
func (gs *GameServer) StartSweeps(stop <-chan struct{}, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := gs.Guard.SweepLocks(); n > 0 {
					gs.Logger.Debugf("reclaimed %d expired action locks", n)
				}
				for _, p := range gs.Guard.SweepInactive() {
					gs.Logger.Infof("player %s flagged inactive", p)
				}
				if n := gs.Store.SweepEnded(retention); n > 0 {
					gs.Logger.Infof("disposed %d ended sessions", n)
				}
			case <-stop:
				return
			}
		}
	}()
}

// errorMessage maps engine errors to client-facing ERROR text.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrSessionFull):
		return "Game is full"
	default:
		return err.Error()
	}
}
