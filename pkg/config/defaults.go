package config

import "time"

// Default values for configuration fields.
const (
	// Account defaults
	DefaultAccountID = "primary"

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultStoragePath        = "data/datacap.db"
	DefaultStorageBusyTimeout = 5 * time.Second
	DefaultQueueCapacity      = 1000
	DefaultRetentionDays      = 90
	DefaultRetentionSchedule  = "0 3 * * *"

	// Sensor defaults
	DefaultSensorInterval = 500 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsAddress = "127.0.0.1:9095"
	DefaultMetricsPath    = "/metrics"
)

// DefaultSensorInterfaces are the interfaces polled when none are
// configured.
var DefaultSensorInterfaces = []string{"eth0", "wlp3s0", "tun0"}

// ApplyDefaults fills in zero-valued fields with defaults. It is
// idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Account.ID == "" {
		cfg.Account.ID = DefaultAccountID
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.QueueCapacity == 0 {
		cfg.Storage.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Storage.Retention.Days == 0 {
		cfg.Storage.Retention.Days = DefaultRetentionDays
	}
	if cfg.Storage.Retention.Schedule == "" {
		cfg.Storage.Retention.Schedule = DefaultRetentionSchedule
	}

	if len(cfg.Sensor.Interfaces) == 0 {
		cfg.Sensor.Interfaces = append([]string(nil), DefaultSensorInterfaces...)
	}
	if cfg.Sensor.Interval == 0 {
		cfg.Sensor.Interval = DefaultSensorInterval
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
