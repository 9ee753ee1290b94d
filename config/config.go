package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret        string
	JWTExpireSeconds int64

	// PresenceSweepInterval is how often the auto-away/auto-offline sweep runs.
	PresenceSweepInterval time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=messenger port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:          strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "messenger-events"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		JWTExpireSeconds:      86400,
		PresenceSweepInterval: time.Minute,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if v := os.Getenv("JWT_EXPIRE_SECONDS"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRE_SECONDS: %w", err)
		}
		cfg.JWTExpireSeconds = secs
	}

	if v := os.Getenv("PRESENCE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PRESENCE_SWEEP_INTERVAL: %w", err)
		}
		cfg.PresenceSweepInterval = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
