// Datacap is a metered data-quota daemon for a single account.
//
// It keeps the account's priority allotment buckets in memory, deducts
// usage against them, persists snapshots asynchronously to SQLite, and
// answers top-up and status commands on stdin:
//
//	# Start the daemon with default configuration
//	datacap run
//
//	# Start with a custom configuration file
//	datacap run --config /etc/datacap/config.yaml
//
//	# Validate the configuration without starting
//	datacap run --dry-run
//
//	# Show version information
//	datacap version
package main

func main() {
	Execute()
}
