package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "datacap",
	Short: "Datacap - metered data-quota daemon",
	Long: `Datacap manages a metered data account with priority allotment buckets.

Usage is deducted from category buckets first and General buckets second,
snapshots are persisted asynchronously to SQLite, and top-up commands like
"YouTube 2GB" are accepted on stdin while the daemon runs.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
