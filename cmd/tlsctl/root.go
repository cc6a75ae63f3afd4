package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/pagetls/pkg/pagetls"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	strict  bool
)

var rootCmd = &cobra.Command{
	Use:   "tlsctl",
	Short: "Exercise and inspect the page-protected TLS engine",
	Long: `tlsctl drives the pagetls engine from the command line. It runs the
copy-on-write clone scenario, stress-tests concurrent region lifecycles, and
reports engine statistics.`,
	Version: "0.1.0",
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and engine debug logs")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict-bounds", false, "Bound accesses by the requested size instead of page capacity")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns a development logger in verbose mode and a no-op logger otherwise.
func newLogger() *zap.Logger {
	if !verbose || quiet {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// newEngine builds an engine from the global flags.
func newEngine() (*pagetls.Engine, func()) {
	log := newLogger()
	opts := pagetls.DefaultOptions()
	opts.Logger = log
	opts.StrictBounds = strict
	return pagetls.New(opts), func() { _ = log.Sync() }
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printStats prints engine statistics in text form
func printStats(st pagetls.Stats) {
	printInfo("\nEngine Statistics:\n")
	printInfo("  Page size:     %d bytes\n", st.PageSize)
	printInfo("  Regions:       %d\n", st.Regions)
	printInfo("  Live pages:    %d\n", st.LivePages)
	printInfo("  COW splits:    %d\n", st.COWSplits)
	printInfo("  Terminations:  %d\n", st.Terminations)
	printInfo("  Initialized:   %v\n", st.Initialized)
}
