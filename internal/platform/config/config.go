package config

import (
	"os"
	"strings"
	"time"

	strutil "passcheck/pkg/platform/strings"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean and deploys stay twelve-factor.
type Config struct {
	Env           string
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	JWTSigningKey string
	TokenTTL      time.Duration
}

// CacheTTL is the default retention for cached subscription and plan reads.
var CacheTTL = 5 * time.Minute

// FromEnv builds a Config from environment variables, applying development
// defaults where unset.
func FromEnv() Config {
	cfg := Config{
		Env:           getenv("PASSCHECK_ENV", "dev"),
		Addr:          getenv("PASSCHECK_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("PASSCHECK_DATABASE_URL"),
		RedisURL:      os.Getenv("PASSCHECK_REDIS_URL"),
		JWTSigningKey: getenv("PASSCHECK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      duration("PASSCHECK_TOKEN_TTL", time.Hour),
	}

	if brokers := os.Getenv("PASSCHECK_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strutil.DedupeAndTrim(strings.Split(brokers, ","))
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
