package config

import (
	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port              string
	LogLevel          string
	LogFormat         string
	Database          DatabaseConfig
	KeepaliveInterval Duration
	Archive           ArchiveConfig
	Metrics           MetricsConfig
}

// DatabaseConfig selects and addresses the persistence backend.
type DatabaseConfig struct {
	Driver string // memory, sqlite, or postgres
	URL    string
}

// ArchiveConfig controls completed-match exports.
type ArchiveConfig struct {
	Enabled       bool
	Dir           string
	RetentionDays int
}

// MetricsConfig controls telemetry export.
type MetricsConfig struct {
	Enabled      bool
	Port         string
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first when
// present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              envOrDefault(envPort, defaultPort),
		LogLevel:          envOrDefault(envLogLevel, "info"),
		LogFormat:         envOrDefault(envLogFormat, "text"),
		Database:          loadDatabase(),
		KeepaliveInterval: durationEnvOrDefault(envKeepaliveInterval, defaultKeepaliveInterval),
		Archive:           loadArchive(),
		Metrics:           loadMetrics(),
	}
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver: envOrDefault(envDatabaseDriver, defaultDatabaseDriver),
		URL:    envOrDefault(envDatabaseURL, defaultDatabaseURL),
	}
}

func loadArchive() ArchiveConfig {
	return ArchiveConfig{
		Enabled:       boolEnvOrDefault(envArchiveEnabled, true),
		Dir:           envOrDefault(envArchiveDir, defaultArchiveDir),
		RetentionDays: intEnvOrDefault(envArchiveRetention, defaultArchiveRetention),
	}
}

func loadMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:      boolEnvOrDefault(envMetricsOn, false),
		Port:         envOrDefault(envMetricsPort, defaultMetricsPort),
		ServiceName:  envOrDefault(envOtelService, "pickleball-score-service"),
		OtlpEndpoint: envOrDefault(envOtelEndpoint, ""),
		OtlpInsecure: boolEnvOrDefault(envOtelInsecure, false),
	}
}
