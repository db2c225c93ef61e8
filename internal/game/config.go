// internal/game/config.go
package game

import (
	"os"
	"strconv"
	"time"
)

// Config carries the thresholds and timer durations a room reads once at
// creation. The core treats these as injected configuration; the env
// overrides exist for deployments, tests pass a Config directly.
type Config struct {
	MinPlayers  int
	MaxPlayers  int
	PointsToWin int
	HandSize    int

	SubmissionTime time.Duration
	JudgingTime    time.Duration
	RoundEndDelay  time.Duration

	// TeardownGrace is how long a finished room waits for a play-again
	// signal before it is removed from the registry.
	TeardownGrace time.Duration

	// AllowMidGameJoins seats joiners during an active game; they are dealt
	// in and become czar-eligible at the next round. Off by default: late
	// joins are rejected with ErrGameInProgress.
	AllowMidGameJoins bool

	// AllowShortHands lets a round proceed with partially filled hands when
	// the white deck runs dry. Off by default: exhaustion ends the game.
	AllowShortHands bool
}

// DefaultConfig mirrors the reference thresholds: 3..20 players, 10 points
// to win, 10-card hands, 60s submissions, 30s judging, 5s between rounds.
func DefaultConfig() Config {
	return Config{
		MinPlayers:     3,
		MaxPlayers:     20,
		PointsToWin:    10,
		HandSize:       10,
		SubmissionTime: 60 * time.Second,
		JudgingTime:    30 * time.Second,
		RoundEndDelay:  5 * time.Second,
		TeardownGrace:  60 * time.Second,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies any BLANKS_* env
// overrides.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MinPlayers = envInt("BLANKS_MIN_PLAYERS", cfg.MinPlayers)
	cfg.MaxPlayers = envInt("BLANKS_MAX_PLAYERS", cfg.MaxPlayers)
	cfg.PointsToWin = envInt("BLANKS_POINTS_TO_WIN", cfg.PointsToWin)
	cfg.HandSize = envInt("BLANKS_HAND_SIZE", cfg.HandSize)
	cfg.SubmissionTime = envDuration("BLANKS_SUBMISSION_TIME", cfg.SubmissionTime)
	cfg.JudgingTime = envDuration("BLANKS_JUDGING_TIME", cfg.JudgingTime)
	cfg.RoundEndDelay = envDuration("BLANKS_ROUND_END_DELAY", cfg.RoundEndDelay)
	cfg.TeardownGrace = envDuration("BLANKS_TEARDOWN_GRACE", cfg.TeardownGrace)
	cfg.AllowMidGameJoins = envBool("BLANKS_ALLOW_MIDGAME_JOINS", cfg.AllowMidGameJoins)
	cfg.AllowShortHands = envBool("BLANKS_ALLOW_SHORT_HANDS", cfg.AllowShortHands)
	return cfg
}

func envInt(key string, def int) int {
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

func envDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
