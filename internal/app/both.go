package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/server"
	"github.com/blackwell-systems/siteinsight/internal/source"
)

// readyTimeout bounds how long both waits for the server's health check.
const readyTimeout = 5 * time.Second

var bothCmd = &cobra.Command{
	Use:   "both",
	Short: "Start the server, run one analysis, then stop",
	Long: `Start the analytics data server in-process, wait until it answers its
health check, run one analysis against it over HTTP, print the report, and
shut the server down.`,
	RunE: runBoth,
}

func init() {
	addServerFlags(bothCmd)
	addAnalysisFlags(bothCmd)
	rootCmd.AddCommand(bothCmd)
}

func runBoth(cmd *cobra.Command, args []string) error {
	e, err := setup(serverOverrides(cmd), analysisOverrides(cmd))
	if err != nil {
		return err
	}
	dr, err := analysisRange(analysisStart, analysisEnd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ln, err := net.Listen("tcp", e.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", e.cfg.Addr(), err)
	}

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	srv := server.New(e.registry(), e.logger, appVersion)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(srvCtx, ln) }()

	fmt.Fprintln(os.Stderr, "Waiting for server to start...")
	src := e.httpSource("http://" + ln.Addr().String())
	if err := waitReady(ctx, src, readyTimeout); err != nil {
		stopServer()
		<-errCh
		return err
	}

	res := e.agent(src).Analyze(ctx, dr)

	stopServer()
	if err := <-errCh; err != nil {
		e.logger.WithError(err).Warn("server shutdown")
	}

	e.record(res, "both")
	return printResult(os.Stdout, res)
}

// waitReady polls the health endpoint until it answers or timeout elapses.
func waitReady(ctx context.Context, src *source.HTTPSource, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		err := src.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}
