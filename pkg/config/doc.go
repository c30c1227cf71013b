// Package config defines the YAML configuration for the datacap daemon.
//
// Configuration is loaded from a file, filled in with defaults, optionally
// overridden by DATACAP_* environment variables, and validated before use.
// A file watcher supports live reload of the sections that are safe to
// change at runtime.
package config
