// internal/handlers/sinks.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/bot"
	"github.com/braygame/bray/internal/protocol"
)

// EventSink receives outbound messages for one participant. Send must return
// promptly: implementations queue or drop, never await the peer, so a dead
// connection cannot stall a session operation.
type EventSink interface {
	Send(msg protocol.ServerMessage)
}

// sendQueueSize bounds the per-connection backlog before messages drop.
const sendQueueSize = 64

// queuedSink decouples delivery from the caller. Send enqueues and returns;
// a single writer goroutine drains the queue in order, so each peer observes
// messages in session order while a slow peer delays only its own deliveries.
// A full queue drops the message, the same best-effort contract broadcasts
// promise.
type queuedSink struct {
	dst    EventSink
	logger *logrus.Logger
	queue  chan protocol.ServerMessage
	done   chan struct{}
	once   sync.Once
}

func newQueuedSink(dst EventSink, logger *logrus.Logger) *queuedSink {
	s := &queuedSink{
		dst:    dst,
		logger: logger,
		queue:  make(chan protocol.ServerMessage, sendQueueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *queuedSink) Send(msg protocol.ServerMessage) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.queue <- msg:
	case <-s.done:
	default:
		if s.logger != nil {
			s.logger.Warnf("dropping %s message to backlogged peer", msg.Event)
		}
	}
}

func (s *queuedSink) run() {
	for {
		select {
		case msg := <-s.queue:
			s.dst.Send(msg)
		case <-s.done:
			return
		}
	}
}

// Close stops the writer goroutine. Queued but undelivered messages are
// dropped; the peer resyncs with SYNC_REQUEST after reconnecting.
func (s *queuedSink) Close() {
	s.once.Do(func() { close(s.done) })
}

// wsSink writes messages to a WebSocket connection. Always wrapped in a
// queuedSink so the bounded write timeout is paid by the writer goroutine,
// not by the session.
type wsSink struct {
	conn   *websocket.Conn
	logger *logrus.Logger
}

func (s *wsSink) Send(msg protocol.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Errorf("failed to marshal %s message: %v", msg.Event, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.logger.Warnf("failed to write %s message: %v", msg.Event, err)
	}
}

// botSink delivers messages to an in-process bot runner. Deliver is already
// non-blocking, so no queue wrapper is needed.
type botSink struct {
	runner *bot.Runner
}

func (s botSink) Send(msg protocol.ServerMessage) {
	s.runner.Deliver(msg)
}
