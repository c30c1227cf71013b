// Package command is the free-text surface over the metering engine.
//
// It translates commands like "YouTube 2GB" into allotment additions and
// "status" into an insight report. The parser is a stateless, regex-driven
// translation layer: it holds no account state and reaches the engine only
// through its public operations.
package command
