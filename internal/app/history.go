package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/output"
	"github.com/blackwell-systems/siteinsight/internal/store"
)

var (
	historyLimit  int
	historyID     int64
	historyMetric string
	historyPrune  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded analysis runs",
	Long: `List analysis runs recorded by agent, both, interactive, and watch, with
score changes between consecutive runs.

Examples:
  siteinsight history                         # last 10 runs
  siteinsight history --id 7                  # stored report for run 7
  siteinsight history --metric engagement.bounce_rate
  siteinsight history --prune 50              # keep only the newest 50 runs`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().Int64Var(&historyID, "id", 0, "Show a single run")
	historyCmd.Flags().StringVar(&historyMetric, "metric", "", "Show one metric across runs as family.name")
	historyCmd.Flags().IntVar(&historyPrune, "prune", -1, "Delete all but the newest N runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, err := setup(); err != nil {
		return err
	}
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	w := os.Stdout
	switch {
	case historyPrune >= 0:
		n, err := db.Prune(historyPrune)
		if err != nil {
			return fmt.Errorf("pruning runs: %w", err)
		}
		fmt.Fprintf(w, "Removed %d run(s).\n", n)
		return nil

	case historyID > 0:
		run, err := db.GetRun(historyID)
		if err != nil {
			return fmt.Errorf("loading run %d: %w", historyID, err)
		}
		if run == nil {
			return fmt.Errorf("run %d not found", historyID)
		}
		if flagJSON {
			return writeJSON(w, run)
		}
		renderRun(w, run)
		return nil

	case historyMetric != "":
		family, name, ok := strings.Cut(historyMetric, ".")
		if !ok || family == "" || name == "" {
			return fmt.Errorf("--metric must be family.name, got %q", historyMetric)
		}
		points, err := db.MetricSeries(family, name, historyLimit)
		if err != nil {
			return fmt.Errorf("loading metric series: %w", err)
		}
		if flagJSON {
			return writeJSON(w, points)
		}
		renderSeries(w, historyMetric, points, higherIsBetter(name))
		return nil
	}

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if flagJSON {
		return writeJSON(w, runs)
	}
	renderRuns(w, runs)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// higherIsBetter reports whether an increase in the named metric is good.
func higherIsBetter(name string) bool {
	return name != "bounce_rate"
}

func scoreText(s *int) string {
	if s == nil {
		return "-"
	}
	return strconv.Itoa(*s)
}

// renderRuns prints runs newest first with the score change from the run
// before each.
func renderRuns(w io.Writer, runs []store.Run) {
	fmt.Fprintln(w, output.Section("ANALYSIS HISTORY"))
	if len(runs) == 0 {
		fmt.Fprintln(w, " No runs recorded yet. Run 'siteinsight agent' to record one.")
		return
	}

	tbl := output.NewTable("ID", "WHEN", "COMMAND", "RANGE", "SCORE", "TREND", "INSIGHTS").AlignRight(0, 4, 6)
	for i, r := range runs {
		trend := ""
		if i+1 < len(runs) && r.Score != nil && runs[i+1].Score != nil {
			trend = output.TrendArrow(float64(*r.Score-*runs[i+1].Score), true)
		}
		tbl.AddRow(
			strconv.FormatInt(r.ID, 10),
			humanize.Time(r.RanAt),
			r.Command,
			r.StartDate+" .. "+r.EndDate,
			scoreText(r.Score),
			trend,
			strconv.Itoa(r.InsightCount),
		)
	}
	tbl.Fprint(w)
}

// renderRun prints one stored run: its report, failures, and metrics.
func renderRun(w io.Writer, r *store.Run) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("RUN %d", r.ID)))
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Recorded"), r.RanAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Command"), r.Command)
	fmt.Fprintf(w, " %s %s .. %s\n", output.StyleLabel.Render("Date range"), r.StartDate, r.EndDate)
	if r.Score != nil {
		fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Score"), output.ScoreBar(float64(*r.Score), 20))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, " %s\n", output.Diagnostic("%s unavailable (%s): %s", f.Family, f.Kind, f.Message))
	}

	if len(r.Metrics) > 0 {
		fmt.Fprintln(w, output.Section("METRICS"))
		tbl := output.NewTable("FAMILY", "METRIC", "VALUE").AlignRight(2)
		for _, m := range r.Metrics {
			tbl.AddRow(m.Family, m.Name, humanize.Ftoa(m.Value))
		}
		tbl.Fprint(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Report)
}

// renderSeries prints a metric across runs, oldest first, with the change
// from the previous point.
func renderSeries(w io.Writer, metric string, points []store.MetricPoint, higherBetter bool) {
	fmt.Fprintln(w, output.Section(strings.ToUpper(metric)))
	if len(points) == 0 {
		fmt.Fprintln(w, " No values recorded for this metric.")
		return
	}
	tbl := output.NewTable("RUN", "WHEN", "VALUE", "CHANGE").AlignRight(0, 2)
	for i, p := range points {
		change := ""
		if i > 0 {
			change = output.TrendArrow(p.Value-points[i-1].Value, higherBetter)
		}
		tbl.AddRow(strconv.FormatInt(p.RunID, 10), humanize.Time(p.RanAt), humanize.Ftoa(p.Value), change)
	}
	tbl.Fprint(w)
}
