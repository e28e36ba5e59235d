// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup;
// when left nil the audit queue is disabled and publishes are no-ops.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for audit records.
var DefaultQueueName = "bray_audit"

// AuditRecord is the minimal security-audit entry shipped to out-of-process
// consumers. It is operational telemetry, not game state.
type AuditRecord struct {
	Origin    string                 `json:"origin"`
	GameID    string                 `json:"game_id,omitempty"`
	PlayerID  string                 `json:"player_id,omitempty"`
	Event     string                 `json:"event"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// Enabled reports whether the audit queue is connected.
func Enabled() bool {
	return Rdb != nil
}

// PublishAuditRecord serializes the record and pushes it to the Redis queue.
// Callers treat failures as best-effort; the in-memory audit log remains the
// source of truth for suspicion decisions.
func PublishAuditRecord(ctx context.Context, record AuditRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AuditRecord: %w", err)
	}

	queueName := getEnv("AUDIT_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
