package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DBPath string

	// External source aggregation.
	SourceTimeout    time.Duration
	CacheToleranceKm float64
	CacheTTL         time.Duration
	MemoTTL          time.Duration
	PurgeInterval    time.Duration

	// Interpretation service (feature-flagged via INTERPRET_URL / INTERPRET_ENABLED).
	InterpretURL     string
	InterpretToken   string
	InterpretTimeout time.Duration
	InterpretEnabled bool

	// Evaluation event sink (feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED).
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	memoTTL, err := parseDuration("MEMO_TTL", "1h")
	if err != nil {
		return nil, err
	}
	purgeInterval, err := parseDuration("PURGE_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	interpretTimeout, err := parseDuration("INTERPRET_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	toleranceKm, err := parseFloat("CACHE_TOLERANCE_KM", 0.5)
	if err != nil {
		return nil, err
	}

	interpretURL := os.Getenv("INTERPRET_URL")
	interpretEnabled := interpretURL != ""
	if v := os.Getenv("INTERPRET_ENABLED"); v != "" {
		interpretEnabled = v == "true"
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBPath: envOrDefault("DB_PATH", "landrisk.db"),

		SourceTimeout:    sourceTimeout,
		CacheToleranceKm: toleranceKm,
		CacheTTL:         cacheTTL,
		MemoTTL:          memoTTL,
		PurgeInterval:    purgeInterval,

		InterpretURL:     interpretURL,
		InterpretToken:   os.Getenv("INTERPRET_TOKEN"),
		InterpretTimeout: interpretTimeout,
		InterpretEnabled: interpretEnabled,

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "land-risk-evaluations"),
		KafkaEnabled:   kafkaEnabled,
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.CacheToleranceKm <= 0 {
		return nil, errors.New("invalid CACHE_TOLERANCE_KM")
	}
	if cfg.InterpretEnabled && cfg.InterpretURL == "" {
		return nil, errors.New("INTERPRET_ENABLED is true but INTERPRET_URL is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
