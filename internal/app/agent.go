package app

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/config"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

var (
	analysisStart    string
	analysisEnd      string
	analysisParallel bool
	analysisLocal    bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run one analysis against a running server",
	Long: `Fetch traffic, engagement, and traffic source metrics from the server,
apply the insight rules, and print the severity-grouped report followed by
the performance score. Families that cannot be fetched are reported as
diagnostics and the analysis continues with the rest.

Examples:
  siteinsight agent                                  # last 30 days
  siteinsight agent --start 2024-01-01 --end 2024-01-31
  siteinsight agent --parallel                       # fetch families concurrently
  siteinsight agent --local                          # no server, in-process data
  siteinsight agent --json`,
	RunE: runAgent,
}

func init() {
	addAnalysisFlags(agentCmd)
	agentCmd.Flags().BoolVar(&analysisLocal, "local", false, "Analyze in-process simulated data instead of calling the server")
	rootCmd.AddCommand(agentCmd)
}

// addAnalysisFlags registers the flags shared by agent and both.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&analysisStart, "start", "", "Start date in YYYY-MM-DD format")
	cmd.Flags().StringVar(&analysisEnd, "end", "", "End date in YYYY-MM-DD format")
	cmd.Flags().BoolVar(&analysisParallel, "parallel", false, "Fetch metric families concurrently")
}

func analysisOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("parallel") {
			cfg.Analysis.Parallel = analysisParallel
		}
	}
}

// analysisRange returns the explicit date range, or nil for the default
// window.
func analysisRange(start, end string) (*metrics.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, errors.New("--start and --end must be given together")
	}
	dr := metrics.DateRange{Start: start, End: end}
	if err := dr.Validate(); err != nil {
		return nil, err
	}
	return &dr, nil
}

func runAgent(cmd *cobra.Command, args []string) error {
	e, err := setup(analysisOverrides(cmd))
	if err != nil {
		return err
	}
	dr, err := analysisRange(analysisStart, analysisEnd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	res := e.agent(e.source(analysisLocal)).Analyze(ctx, dr)
	e.record(res, "agent")
	return printResult(os.Stdout, res)
}
