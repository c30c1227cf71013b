package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for a single configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "storage.backend").
	Field string

	// Message is a human-readable description of the problem.
	Message string
}

// Error returns the message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects all field errors found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError when any
// rule fails. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Account.ID == "" {
		errs = append(errs, FieldError{"account.id", "must not be empty"})
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		if cfg.Storage.Path == "" {
			errs = append(errs, FieldError{"storage.path", "required for the sqlite backend"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{"storage.backend", fmt.Sprintf("unknown backend %q (want sqlite or memory)", cfg.Storage.Backend)})
	}
	if cfg.Storage.QueueCapacity < 0 {
		errs = append(errs, FieldError{"storage.queue_capacity", "must not be negative"})
	}
	if cfg.Storage.BusyTimeout < 0 {
		errs = append(errs, FieldError{"storage.busy_timeout", "must not be negative"})
	}
	if cfg.Storage.Retention.Days < 0 {
		errs = append(errs, FieldError{"storage.retention.days", "must not be negative"})
	}
	if cfg.Storage.Retention.Days > 0 && cfg.Storage.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Storage.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{"storage.retention.schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	if cfg.Sensor.Enabled {
		if len(cfg.Sensor.Interfaces) == 0 {
			errs = append(errs, FieldError{"sensor.interfaces", "at least one interface required when the sensor is enabled"})
		}
		if cfg.Sensor.Interval <= 0 {
			errs = append(errs, FieldError{"sensor.interval", "must be positive"})
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level)})
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format)})
	}
	if cfg.Telemetry.Metrics.Enabled {
		if cfg.Telemetry.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{"telemetry.metrics.listen_address", "required when metrics are enabled"})
		}
		if !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
			errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
