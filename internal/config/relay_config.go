package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// RelayConfig holds configuration for the outbox relay worker.
// This is a minimal config that only includes what the relay needs.
type RelayConfig struct {
	DatabaseURL string

	SinkHost      string
	SinkDatabase  string
	SinkTableName string
	SinkUser      string
	SinkPassword  string

	// TickInterval is the period between relay ticks.
	TickInterval time.Duration
	// BatchLimit caps rows claimed per tick; 0 claims everything pending.
	BatchLimit int
	// ChunkSize caps records per sink insert request.
	ChunkSize int

	Environment string
	HealthPort  string
}

func LoadRelayConfig() *RelayConfig {
	_ = godotenv.Load()

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	sinkHost := os.Getenv("SINK_HOST")
	if sinkHost == "" {
		panic("SINK_HOST environment variable is required")
	}

	return &RelayConfig{
		DatabaseURL:   dbURL,
		SinkHost:      sinkHost,
		SinkDatabase:  getEnv("SINK_DATABASE", "default"),
		SinkTableName: getEnv("SINK_TABLE_NAME", "event_log"),
		SinkUser:      getEnv("SINK_USER", "default"),
		SinkPassword:  os.Getenv("SINK_PASSWORD"),
		TickInterval:  getEnvDuration("TICK_INTERVAL", 5*time.Second),
		BatchLimit:    getEnvInt("BATCH_LIMIT", 500),
		ChunkSize:     getEnvInt("CHUNK_SIZE", 1000),
		Environment:   getEnv("ENVIRONMENT", "Local"),
		HealthPort:    getEnv("HEALTH_PORT", "8090"),
	}
}
