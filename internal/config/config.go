// Package config loads process configuration from the environment,
// with a local .env file picked up automatically in development.
package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/parlorhq/parlor/internal/engine"
)

// Config gathers everything the process reads from the environment.
type Config struct {
	LogLevel    string
	RedisAddr   string
	RedisDB     int
	DatabaseURL string

	Rules engine.Rules
}

// Load reads the environment into a Config. Missing or malformed
// values fall back to defaults, so Load never fails.
func Load() Config {
	defaults := engine.DefaultRules()
	return Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Rules: engine.Rules{
			SnapWindow:        getEnvDuration("SNAP_WINDOW", defaults.SnapWindow),
			SnapHandSize:      getEnvInt("SNAP_HAND_SIZE", defaults.SnapHandSize),
			BluffCardsPerPlay: getEnvInt("BLUFF_CARDS_PER_PLAY", defaults.BluffCardsPerPlay),
			ScatLives:         getEnvInt("SCAT_LIVES", defaults.ScatLives),
			SpadesTargetScore: getEnvInt("SPADES_TARGET_SCORE", defaults.SpadesTargetScore),
		},
	}
}

// NewLogger builds a logrus logger honoring LOG_LEVEL.
func (c Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else returns
// a default value.
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

// getEnvDuration parses an environment variable as a duration, else
// returns a default value.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return v
}
