package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/config"
	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/output"
	"github.com/blackwell-systems/siteinsight/internal/watcher"
)

// minWatchInterval keeps the watcher from hammering the server.
const minWatchInterval = 30 * time.Second

var (
	watchDaemon   bool
	watchInterval time.Duration
	watchStop     bool
	watchQuiet    bool
	watchDesktop  bool
	watchMinLevel string
	watchLocal    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the analysis periodically and alert on changes",
	Long: `Run the analysis on an interval and compare each run with the previous
one. New high or critical insights, score and traffic drops, rising bounce
rate, and metric families that stop responding raise alerts. Every run is
recorded in the history database.

Examples:
  siteinsight watch                    # run in foreground (ctrl-c to stop)
  siteinsight watch --interval 5m      # check every 5 minutes (default: 10m)
  siteinsight watch --notify           # also raise desktop notifications
  siteinsight watch --daemon           # write PID file, log alerts to file
  siteinsight watch --stop             # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", config.DefaultWatch.Interval, "Check interval (e.g. 5m, 1h)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().BoolVar(&watchDesktop, "notify", false, "Raise desktop notifications for alerts")
	watchCmd.Flags().StringVar(&watchMinLevel, "min-level", "info", "Lowest alert level to report: info, warning, critical")
	watchCmd.Flags().BoolVar(&watchLocal, "local", false, "Analyze in-process simulated data instead of calling the server")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon()
	}

	e, err := setup(func(cfg *config.Config) {
		if cmd.Flags().Changed("interval") {
			cfg.Watch.Interval = watchInterval
		}
	})
	if err != nil {
		return err
	}
	interval := e.cfg.Watch.Interval
	if interval < minWatchInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minWatchInterval, interval)
	}
	switch watchMinLevel {
	case "info", "warning", "critical":
	default:
		return fmt.Errorf("invalid --min-level %q", watchMinLevel)
	}

	if watchDaemon {
		return runDaemon(cmd.Context(), e, interval)
	}
	return runForeground(cmd.Context(), e, interval)
}

// newWatcher builds a watcher that records every run and passes alerts to
// alertFn.
func newWatcher(e *env, interval time.Duration, alertFn func(watcher.Alert)) *watcher.Watcher {
	w := watcher.New(e.agent(e.source(watchLocal)), interval, alertFn)
	w.OnRun = func(res agent.Result) {
		e.record(res, "watch")
	}
	return w
}

// runForeground runs the watcher with live terminal output.
func runForeground(parent context.Context, e *env, interval time.Duration) error {
	ctx, stop := signalContext(parent)
	defer stop()

	if !watchQuiet {
		fmt.Printf("siteinsight watching %s... (checking every %s)\n", e.cfg.BaseURL(), interval)
	}

	notifier := watcher.NewNotifier(watchDesktop, watchMinLevel)
	alertFn := func(a watcher.Alert) {
		if !notifier.Allows(a) {
			return
		}
		if watchDesktop {
			_ = notifier.Notify(a)
		}
		if !watchQuiet {
			printAlert(a)
		}
	}

	w := newWatcher(e, interval, alertFn)
	first := true
	onRun := w.OnRun
	w.OnRun = func(res agent.Result) {
		onRun(res)
		if first && !watchQuiet {
			first = false
			fmt.Printf("[%s] %s Baseline (%s)\n", time.Now().Format("15:04:05"), checkMark(), baselineSummary(res))
		}
	}

	err := w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Println("\nStopped.")
		}
		return nil
	}
	return err
}

// baselineSummary describes the first run in one line.
func baselineSummary(res agent.Result) string {
	parts := []string{fmt.Sprintf("%d insights", res.Report.Len())}
	if res.Scored {
		parts = append(parts, fmt.Sprintf("score %d", res.Score))
	}
	if n := len(res.Failures); n > 0 {
		parts = append(parts, fmt.Sprintf("%d families unavailable", n))
	}
	return strings.Join(parts, ", ")
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(parent context.Context, e *env, interval time.Duration) error {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	// The daemon logs everything to its file.
	e.logger = logging.NewWithWriter(logFile, e.cfg.Log.Level, e.cfg.Log.Format)
	if e.logger.GetLevel() < logging.ParseLevel("info") {
		e.logger.SetLevel(logging.ParseLevel("info"))
	}

	ctx, stop := signalContext(parent)
	defer stop()

	e.logger.WithFields(logging.Fields{"pid": pid, "interval": interval.String()}).Info("siteinsight daemon started")

	notifier := watcher.NewNotifier(watchDesktop, watchMinLevel)
	notifier.Fallback = logFile
	alertFn := func(a watcher.Alert) {
		if !notifier.Allows(a) {
			return
		}
		if watchDesktop {
			_ = notifier.Notify(a)
		}
		e.logger.WithFields(logging.Fields{"level": a.Level, "title": a.Title}).Warn(a.Message)
	}

	err = newWatcher(e, interval, alertFn).Run(ctx)
	if errors.Is(err, context.Canceled) {
		e.logger.Info("daemon stopped")
		return nil
	}
	return err
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// printAlert formats and prints an alert to the terminal.
func printAlert(a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	fmt.Printf("[%s] %s %s\n", timestamp, alertIcon(a.Level), output.SeverityStyle(alertSeverity(a.Level)).Render(a.Title))
	if a.Message != "" {
		fmt.Printf("         %s\n", a.Message)
	}
}

// alertSeverity maps an alert level onto the severity palette.
func alertSeverity(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "warning":
		return "medium"
	default:
		return "low"
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return "\xf0\x9f\x94\xb4" // red circle
	case "warning":
		return "\xe2\x9a\xa0\xef\xb8\x8f" // warning sign
	case "info":
		return "\xe2\x9c\x93" // check mark
	default:
		return " "
	}
}

// checkMark returns a terminal check mark indicator.
func checkMark() string {
	return "\xe2\x9c\x93"
}
