// cmd/braycli/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/coder/websocket"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pterm/pterm"

	"github.com/braygame/bray/internal/cards"
	"github.com/braygame/bray/internal/protocol"
	"github.com/braygame/bray/internal/scoring"
)

const (
	maxReconnectAttempts = 3
	reconnectBackoff     = 5 * time.Second
)

// serverMessage mirrors protocol.ServerMessage with a raw payload for
// client-side decoding.
type serverMessage struct {
	Event   protocol.ServerEvent `json:"event"`
	Payload json.RawMessage      `json:"payload"`
}

// client is the interactive terminal player.
type client struct {
	url      string
	gameID   string
	playerID string

	conn    *websocket.Conn
	players []string
	hand    []cards.Card
	trick   []protocol.TrickPlay
	leader  string
	phase   string
	hasBid  bool
}

func main() {
	url := os.Getenv("BRAY_SERVER")
	if url == "" {
		url = "ws://localhost:8080/game/ws"
	}

	pterm.DefaultHeader.Println("Call Bray")

	gameID, _ := pterm.DefaultInteractiveTextInput.Show("Game id")
	playerID, _ := pterm.DefaultInteractiveTextInput.Show("Your name")
	if gameID == "" || playerID == "" {
		pterm.Error.Println("Both a game id and a name are required")
		os.Exit(1)
	}

	c := &client{url: url, gameID: gameID, playerID: playerID}
	if err := c.run(); err != nil {
		pterm.Error.Printfln("Session ended: %v", err)
		os.Exit(1)
	}
}

// run connects, joins, and processes events; on transport loss it retries
// with bounded attempts and a fixed backoff, then re-JOINs and requests a
// state snapshot. There is no missed-event replay.
func (c *client) run() error {
	if err := c.connect(); err != nil {
		return err
	}
	c.send(protocol.ClientMessage{Event: protocol.EventJoin, GameID: c.gameID, PlayerID: c.playerID})
	pterm.Success.Printfln("Joined game %s as %s", c.gameID, c.playerID)

	for {
		var msg serverMessage
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			if c.phase == "ENDED" {
				return nil
			}
			if err := c.reconnect(); err != nil {
				return err
			}
			continue
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			pterm.Warning.Printfln("Unreadable message from server: %v", err)
			continue
		}
		if done := c.handle(msg); done {
			return nil
		}
	}
}

func (c *client) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{
		Subprotocols: []string{"bray"},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

func (c *client) reconnect() error {
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		pterm.Warning.Printfln("Connection lost, retrying (%d/%d)...", attempt, maxReconnectAttempts)
		time.Sleep(reconnectBackoff)
		if err := c.connect(); err != nil {
			continue
		}
		// The server kept no slot for us; re-JOIN and pull a fresh snapshot.
		c.send(protocol.ClientMessage{Event: protocol.EventJoin, GameID: c.gameID, PlayerID: c.playerID})
		c.send(protocol.ClientMessage{Event: protocol.EventSyncRequest, GameID: c.gameID, PlayerID: c.playerID})
		pterm.Success.Println("Reconnected")
		return nil
	}
	return fmt.Errorf("gave up after %d reconnect attempts", maxReconnectAttempts)
}

func (c *client) send(msg protocol.ClientMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		pterm.Warning.Printfln("Failed to send %s: %v", msg.Event, err)
	}
}

// handle renders one server event and reacts to prompts. Returns true when
// the game is over.
func (c *client) handle(msg serverMessage) bool {
	switch msg.Event {
	case protocol.EventGameStart:
		var p protocol.GameStartPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		c.players = p.Players
		if len(c.players) > 0 {
			c.leader = c.players[0]
		}
		pterm.Info.Printfln("Game started with players: %v", p.Players)

	case protocol.EventHandDealt:
		var p protocol.HandDealtPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		c.hand = p.Hand
		c.showHand()

	case protocol.EventPhaseChange:
		var p protocol.PhaseChangePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		c.phase = p.Phase
		pterm.Info.Printfln("Phase: %s", p.Phase)
		if p.Phase == "BIDDING" && !c.hasBid {
			c.promptBid()
		}
		if p.Phase == "PLAYING" {
			c.maybePromptPlay()
		}

	case protocol.EventBidMade:
		var p protocol.BidMadePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		pterm.Info.Printfln("%s bid %s %d", p.PlayerID, p.Bid.Type, p.Bid.N)

	case protocol.EventCardPlayed:
		var p protocol.CardPlayedPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		c.trick = append(c.trick, protocol.TrickPlay{PlayerID: p.PlayerID, Card: p.Card})
		if p.PlayerID == c.playerID {
			c.removeFromHand(p.Card)
		}
		pterm.Info.Printfln("%s played %s", p.PlayerID, p.Card)
		c.maybePromptPlay()

	case protocol.EventTrickComplete:
		var p protocol.TrickCompletePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		c.trick = nil
		c.leader = p.Winner
		pterm.Success.Printfln("Trick won by %s (tricks so far: %v)", p.Winner, p.Scores)
		c.maybePromptPlay()

	case protocol.EventStateSync:
		var p protocol.StateSyncPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		c.phase = p.Phase
		c.players = p.Players
		c.trick = p.CurrentTrick
		c.leader = p.CurrentPlayer
		pterm.Info.Printfln("State: phase=%s players=%v tricks=%v", p.Phase, p.Players, p.Scores)

	case protocol.EventGameEnd:
		var p protocol.GameEndPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		pterm.DefaultHeader.Printfln("Game over! Winner: %s", p.Winner)
		for player, pts := range p.Points {
			pterm.Info.Printfln("  %s: %d points (bid %s %d, won %d)",
				player, pts, p.Bids[player].Type, p.Bids[player].N, p.Bids[player].TricksWon)
		}
		return true

	case protocol.EventError:
		var p protocol.ErrorPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return false
		}
		pterm.Error.Printfln("Server: %s", p.Message)

	case protocol.EventPong:
		pterm.Debug.Println("pong")
	}
	return false
}

func (c *client) showHand() {
	out := make([]string, len(c.hand))
	for i, card := range c.hand {
		out[i] = card.String()
	}
	pterm.Info.Printfln("Your hand: %v", out)
}

func (c *client) promptBid() {
	bidType, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"normal", "nil", "blind"}).
		Show("Bid type")

	n := 0
	if bidType != "nil" {
		raw, _ := pterm.DefaultInteractiveTextInput.Show("How many tricks")
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			pterm.Warning.Println("Not a number, bidding 0")
			parsed = 0
		}
		n = parsed
	}

	c.hasBid = true
	payload, _ := json.Marshal(scoring.Bid{Type: scoring.BidType(bidType), N: n})
	c.send(protocol.ClientMessage{
		Event:    protocol.EventBid,
		GameID:   c.gameID,
		PlayerID: c.playerID,
		Payload:  payload,
	})
}

// maybePromptPlay prompts for a card when the round-robin order from the
// trick leader reaches this seat.
func (c *client) maybePromptPlay() {
	if c.phase != "PLAYING" || len(c.players) == 0 || len(c.hand) == 0 {
		return
	}
	for _, tp := range c.trick {
		if tp.PlayerID == c.playerID {
			return
		}
	}
	leaderIdx := -1
	for i, p := range c.players {
		if p == c.leader {
			leaderIdx = i
			break
		}
	}
	if leaderIdx < 0 {
		return
	}
	if c.players[(leaderIdx+len(c.trick))%len(c.players)] != c.playerID {
		return
	}

	var ledSuit cards.Suit
	if len(c.trick) > 0 {
		ledSuit = c.trick[0].Card.Suit
	}
	var options []string
	for _, card := range c.hand {
		if card.CanPlay(c.hand, ledSuit) {
			options = append(options, card.String())
		}
	}

	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		Show("Your turn, pick a card")
	card, err := cards.Parse(choice)
	if err != nil {
		pterm.Error.Printfln("Bad card choice: %v", err)
		return
	}

	payload, _ := json.Marshal(protocol.PlayPayload{Card: card})
	c.send(protocol.ClientMessage{
		Event:    protocol.EventPlay,
		GameID:   c.gameID,
		PlayerID: c.playerID,
		Payload:  payload,
	})
}

func (c *client) removeFromHand(card cards.Card) {
	for i, h := range c.hand {
		if h.Suit == card.Suit && h.Rank == card.Rank {
			c.hand = append(c.hand[:i], c.hand[i+1:]...)
			return
		}
	}
}
