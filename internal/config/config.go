package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string

	KafkaBrokers []string
	KafkaTopic   string

	OutboxInterval  time.Duration
	OutboxBatchSize int

	PollInterval  time.Duration
	BatchSize     int
	Workers       int
	StaleAfter    time.Duration
	SweepInterval time.Duration
	DerivedBase   string
}

// Load читает .env (если есть) и окружение. DATABASE_URL обязателен,
// остальное имеет разумные дефолты.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8081"),
		KafkaBrokers:    strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getenv("KAFKA_TOPIC", "content-events"),
		OutboxInterval:  getdur("OUTBOX_INTERVAL", time.Second),
		OutboxBatchSize: getint("OUTBOX_BATCH_SIZE", 100),
		PollInterval:    getdur("POLL_INTERVAL", time.Second),
		BatchSize:       getint("BATCH_SIZE", 10),
		Workers:         getint("WORKERS", 4),
		StaleAfter:      getdur("STALE_AFTER", 30*time.Minute),
		SweepInterval:   getdur("SWEEP_INTERVAL", time.Minute),
		DerivedBase:     getenv("DERIVED_BASE", "/var/lib/content-pipeline/derived"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
