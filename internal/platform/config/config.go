package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	PostgresDSN  string
	KafkaBrokers []string

	EnableExpiryEnforcement bool
	EnableLifecycleConsumer bool
	EnableExpirySweeper     bool
	SweepInterval           time.Duration
	DedupMaxEntries         int
	DedupTTL                time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "aegis"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		EnableExpiryEnforcement: envBool("ENABLE_EXPIRY_ENFORCEMENT", false),
		EnableLifecycleConsumer: envBool("ENABLE_LIFECYCLE_CONSUMER", true),
		EnableExpirySweeper:     envBool("ENABLE_EXPIRY_SWEEPER", true),
		SweepInterval:           envDuration("SWEEP_INTERVAL", time.Minute),
		DedupMaxEntries:         envInt("DEDUP_MAX_ENTRIES", 1024),
		DedupTTL:                envDuration("DEDUP_TTL", 7*24*time.Hour),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
