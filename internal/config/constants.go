package config

import "time"

const (
	envPort              = "PORT"
	envLogLevel          = "LOG_LEVEL"
	envLogFormat         = "LOG_FORMAT"
	envDatabaseDriver    = "DATABASE_DRIVER"
	envDatabaseURL       = "DATABASE_URL"
	envKeepaliveInterval = "KEEPALIVE_INTERVAL"
	envArchiveEnabled    = "ARCHIVE_ENABLED"
	envArchiveDir        = "ARCHIVE_DIR"
	envArchiveRetention  = "ARCHIVE_RETENTION_DAYS"
	envMetricsPort       = "METRICS_PORT"
	envMetricsOn         = "METRICS_ENABLED"
	envOtelEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService       = "OTEL_SERVICE_NAME"
	envOtelInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort = "4000"
	// memory keeps everything in-process; sqlite and postgres persist.
	defaultDatabaseDriver = "memory"
	defaultDatabaseURL    = "file:scoreboard.db"
	// Keepalive nudges overlay viewers often enough to recover from a
	// dropped event without hammering idle streams.
	defaultKeepaliveInterval = 30 * time.Second
	defaultArchiveDir        = "archive"
	defaultArchiveRetention  = 90
	defaultMetricsPort       = "9090"
)
