// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/auth"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/security"
)

// GameWSHandler upgrades the HTTP connection to WebSocket and runs the read
// loop. One connection serves any number of games: every envelope carries
// its own gameId and playerId, exactly as the client protocol defines.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := remoteHost(r.RemoteAddr)
		if gs.Limiter.IsBlocked(origin) {
			gs.Audit.Record(origin, "rate_limited", nil)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		// Resolve or mint the guest identity before the upgrade, while the
		// response can still carry a Set-Cookie header.
		guestID := auth.EnsureGuest(w, r)

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"bray"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "bray" {
			logger.Warnf("Client %s connected with invalid subprotocol: %s", r.RemoteAddr, c.Subprotocol())
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'bray' subprotocol.")
			return
		}
		logger.Infof("WebSocket connection established from %s (guest %s)", r.RemoteAddr, guestID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sink := newQueuedSink(&wsSink{conn: c, logger: logger}, logger)
		defer sink.Close()
		seen := readMessages(ctx, c, gs, sink, origin, guestID, logger)

		// The read loop exited: drop this connection's sink registrations.
		// Session state stays intact; the player reconnects with a re-JOIN
		// plus an optional SYNC_REQUEST.
		for playerID := range seen {
			gs.UnregisterSink(playerID, sink)
		}
		logger.Infof("WebSocket cleanup complete for %s", r.RemoteAddr)
	}
}

// readMessages reads client envelopes until the connection closes or the
// context is canceled, routing each through the server aggregate. It returns
// the set of player ids this connection registered sinks for. A bad message
// is answered with ERROR and never terminates the loop.
func readMessages(ctx context.Context, c *websocket.Conn, gs *GameServer, sink EventSink, origin, guestID string, logger *logrus.Logger) map[string]struct{} {
	seen := make(map[string]struct{})
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for %s", origin)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for %s", origin)
			} else {
				logger.Warnf("Error reading from WebSocket for %s: %v (Status: %d)", origin, err, status)
			}
			return seen
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from %s. Ignoring.", msgType, origin)
			continue
		}

		if gs.Limiter.IsBlocked(origin) {
			gs.Audit.Record(origin, "rate_limited", nil)
			sink.Send(protocol.Error("Rate limit exceeded"))
			continue
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from %s: %v", origin, err)
			gs.Audit.Record(origin, security.EventValidationFailure, map[string]interface{}{"error": err.Error()})
			sink.Send(protocol.Error("Invalid message format"))
			continue
		}
		if msg.PlayerID == "" {
			// The authenticated guest identity stands in when the client
			// omits an explicit player id.
			msg.PlayerID = guestID
		}
		seen[msg.PlayerID] = struct{}{}

		logger.Debugf("Received %s from %s (game %s, player %s)", msg.Event, origin, msg.GameID, msg.PlayerID)
		gs.Submit(origin, msg, sink)

		select {
		case <-ctx.Done():
			return seen
		default:
		}
	}
}

// remoteHost strips the port from a RemoteAddr for per-origin accounting.
func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
