// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup;
// game-record publishing is a no-op while it is nil.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for finished-game records.
var DefaultQueueName = "blanks_game_records"

// GameRecord is the summary of one finished game, pushed for downstream
// consumers (stats, moderation review). Room state itself stays in memory.
type GameRecord struct {
	RoomID    uuid.UUID     `json:"room_id"`
	Rounds    int           `json:"rounds"`
	Reason    string        `json:"reason,omitempty"`
	Standings []PlayerScore `json:"standings"`
	Winners   []uuid.UUID   `json:"winners"`
	EndedAt   int64         `json:"ended_at"`
}

// PlayerScore is one scoreboard row inside a GameRecord.
type PlayerScore struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
}

// ConnectRedis initializes the global Redis client with environment
// variables:
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
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishGameRecord serializes the record to JSON and pushes it onto the
// record queue. Quick network send only; never blocks game logic.
func PublishGameRecord(ctx context.Context, record GameRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameRecord: %w", err)
	}

	queueName := getEnv("GAME_RECORD_QUEUE_NAME", DefaultQueueName)
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
