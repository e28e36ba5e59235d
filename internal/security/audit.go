// internal/security/audit.go
package security

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/cache"
)

const (
	suspicionWindow       = 5 * time.Minute
	suspicionEventLimit   = 500
	suspicionFailureLimit = 10
)

// EventValidationFailure is the audit event name for rejected messages;
// repeated failures from one origin mark it suspicious.
const EventValidationFailure = "validation_failure"

type auditEvent struct {
	at      time.Time
	name    string
	details map[string]interface{}
}

// AuditLog records per-origin events in memory and flags origins with
// suspicious volume or failure patterns. When the shared Redis queue is
// connected, records are mirrored to it fire-and-forget for out-of-process
// analysis.
type AuditLog struct {
	Logger *logrus.Logger

	mu     sync.Mutex
	events map[string][]auditEvent
	now    func() time.Time
}

// NewAuditLog builds an empty audit log.
func NewAuditLog(logger *logrus.Logger) *AuditLog {
	return &AuditLog{
		Logger: logger,
		events: make(map[string][]auditEvent),
		now:    time.Now,
	}
}

// Record appends an event for the origin, trims entries older than the
// suspicion window, and warns once the origin turns suspicious.
func (a *AuditLog) Record(origin, event string, details map[string]interface{}) {
	now := a.now()

	a.mu.Lock()
	recent := a.events[origin][:0]
	for _, e := range a.events[origin] {
		if now.Sub(e.at) < suspicionWindow {
			recent = append(recent, e)
		}
	}
	recent = append(recent, auditEvent{at: now, name: event, details: details})
	a.events[origin] = recent
	suspicious := a.suspiciousLocked(origin)
	a.mu.Unlock()

	if cache.Enabled() {
		go cache.PublishAuditRecord(context.Background(), cache.AuditRecord{
			Origin:    origin,
			Event:     event,
			Details:   details,
			Timestamp: now.UnixMilli(),
		})
	}

	if suspicious && a.Logger != nil {
		a.Logger.Warnf("suspicious activity detected from origin %s", origin)
	}
}

// Suspicious reports whether the origin has exceeded the event volume or
// validation failure thresholds within the window.
func (a *AuditLog) Suspicious(origin string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.suspiciousLocked(origin)
}

func (a *AuditLog) suspiciousLocked(origin string) bool {
	now := a.now()
	count, failures := 0, 0
	for _, e := range a.events[origin] {
		if now.Sub(e.at) >= suspicionWindow {
			continue
		}
		count++
		if e.name == EventValidationFailure {
			failures++
		}
	}
	return count > suspicionEventLimit || failures >= suspicionFailureLimit
}
