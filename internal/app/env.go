package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/ask"
	"github.com/blackwell-systems/siteinsight/internal/config"
	"github.com/blackwell-systems/siteinsight/internal/insight"
	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/output"
	"github.com/blackwell-systems/siteinsight/internal/simulate"
	"github.com/blackwell-systems/siteinsight/internal/source"
	"github.com/blackwell-systems/siteinsight/internal/store"
	"github.com/blackwell-systems/siteinsight/internal/tools"
)

// env is the per-command runtime built from configuration and flags.
type env struct {
	cfg    *config.Config
	logger logging.Logger
}

// setup loads .env files and the config, applies command overrides, and
// builds the logger. Color is configured as a side effect.
func setup(overrides ...func(*config.Config)) (*env, error) {
	loaded := config.LoadEnv()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Log.Format)
	if len(loaded) > 0 {
		logger.WithField("files", loaded).Debug("loaded env files")
	}

	output.ConfigureColor(cfg.Output.Color && !flagNoColor)
	return &env{cfg: cfg, logger: logger}, nil
}

// registry builds the simulated tool registry for the configured data mode.
func (e *env) registry() *tools.Registry {
	st := simulate.NewStore(simulate.Mode(e.cfg.Server.Mode), e.cfg.Server.Seed)
	return tools.NewRegistry(st, nil)
}

// httpSource returns a client for the server at baseURL.
func (e *env) httpSource(baseURL string) *source.HTTPSource {
	return source.NewHTTP(source.HTTPConfig{
		BaseURL: baseURL,
		Timeout: e.cfg.Client.Timeout,
		Retries: e.cfg.Client.Retries,
	}, e.logger)
}

// source picks the in-process registry or the configured server.
func (e *env) source(local bool) source.Source {
	if local {
		return source.NewLocal(e.registry())
	}
	return e.httpSource(e.cfg.BaseURL())
}

func (e *env) agent(src source.Source) *agent.Agent {
	return agent.New(src, e.logger, agent.Options{
		Parallel:   e.cfg.Analysis.Parallel,
		WindowDays: e.cfg.Analysis.WindowDays,
	})
}

func (e *env) answerer(src source.Source) *ask.Answerer {
	a := ask.NewAnswerer(src, e.logger)
	a.TopPagesLimit = e.cfg.Analysis.TopPagesLimit
	return a
}

// openHistory opens the history database, creating its directory.
func openHistory() (*store.DB, error) {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// record saves an analysis run. Failures are logged, never fatal.
func (e *env) record(res agent.Result, command string) {
	if flagNoHistory {
		return
	}
	db, err := openHistory()
	if err != nil {
		e.logger.WithError(err).Warn("history unavailable")
		return
	}
	defer func() { _ = db.Close() }()

	id, err := db.RecordRun(store.NewRun(res, command, appVersion))
	if err != nil {
		e.logger.WithError(err).Warn("recording run failed")
		return
	}
	e.logger.WithField("run_id", id).Debug("run recorded")
}

// printDiagnostics writes one warning line per family that failed to fetch.
func printDiagnostics(w io.Writer, res agent.Result) {
	for _, f := range res.Failures {
		fmt.Fprintln(w, output.Diagnostic("could not fetch %s metrics: %s", f.Family, f.Msg))
	}
}

// printResult writes an analysis result as text or JSON. Family failures
// go to stderr as diagnostics.
func printResult(w io.Writer, res agent.Result) error {
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printDiagnostics(os.Stderr, res)

	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Text())

	if res.Scored {
		fmt.Fprintln(w, output.Section("PERFORMANCE SCORE"))
		fmt.Fprintf(w, " %s\n", output.ScoreBar(float64(res.Score), 20))
		fmt.Fprintf(w, " %s\n", output.StyleMuted.Render(insight.ScoreInterpretation(res.Score)))
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
