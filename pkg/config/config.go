package config

import "time"

// Config is the root configuration for the datacap daemon.
type Config struct {
	// Account configures the metered account.
	Account AccountConfig `yaml:"account"`

	// Storage configures persistence.
	Storage StorageConfig `yaml:"storage"`

	// Sensor configures the network usage sensor.
	Sensor SensorConfig `yaml:"sensor"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AccountConfig identifies the account the engine manages.
type AccountConfig struct {
	// ID is the account identifier. Rows in the database are keyed by it.
	ID string `yaml:"id"`
}

// StorageConfig configures the persistence backend and the write-behind
// queue in front of it.
type StorageConfig struct {
	// Backend selects the persistence backend: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Ignored by the memory backend.
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// QueueCapacity bounds the write-behind queue. Snapshots enqueued
	// beyond it are dropped.
	QueueCapacity int `yaml:"queue_capacity"`

	// Retention configures usage history pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls pruning of old usage history rows.
type RetentionConfig struct {
	// Days is how long usage rows are kept. 0 disables pruning.
	Days int `yaml:"days"`

	// Schedule is the cron expression for the prune job.
	Schedule string `yaml:"schedule"`
}

// SensorConfig configures the interface-counter sensor that feeds real
// traffic into the engine.
type SensorConfig struct {
	// Enabled turns the sensor on. Off by default.
	Enabled bool `yaml:"enabled"`

	// Interfaces are the interface names whose receive counters are summed.
	Interfaces []string `yaml:"interfaces"`

	// Interval is the polling period.
	Interval time.Duration `yaml:"interval"`
}

// TelemetryConfig configures logging and the metrics endpoint.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics listener on. Off by default.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the host:port the metrics server binds.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path the metrics are served on.
	Path string `yaml:"path"`
}
