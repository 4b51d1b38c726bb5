// Package app contains the Cobra command tree for siteinsight.
package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor   bool
	flagJSON      bool
	flagVerbose   bool
	flagConfig    string
	flagNoHistory bool
)

// errMissingMode is returned when siteinsight is run without a mode.
var errMissingMode = errors.New("missing mode: use server, agent, both, or interactive")

var rootCmd = &cobra.Command{
	Use:   "siteinsight <server|agent|both|interactive>",
	Short: "Simulated Google Analytics server with a rule-based insight agent",
	Long: `siteinsight serves simulated Google Analytics data over HTTP and runs an
agent that fetches traffic, engagement, and traffic source metrics, applies
threshold rules, and prints a severity-grouped insights report.

Modes:
  server       Start the analytics data server only
  agent        Run one analysis (the server must be running)
  both         Start the server, run one analysis, then stop
  interactive  Ask questions about the analytics data`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return errMissingMode
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if isUsageError(err) {
			fmt.Fprintln(os.Stderr)
			fmt.Fprint(os.Stderr, rootCmd.UsageString())
		}
		os.Exit(1)
	}
}

// isUsageError reports errors caused by a missing or unrecognised mode.
func isUsageError(err error) bool {
	return errors.Is(err, errMissingMode) || strings.HasPrefix(err.Error(), "unknown command")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/siteinsight/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record analysis runs in the history database")
}
