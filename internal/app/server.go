package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/config"
	"github.com/blackwell-systems/siteinsight/internal/output"
	"github.com/blackwell-systems/siteinsight/internal/server"
)

var (
	serverHost string
	serverPort int
	serverMode string
	serverSeed uint64
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the simulated analytics data server",
	Long: `Serve simulated Google Analytics data over HTTP until interrupted.

Endpoints:
  GET  /             server info and tool names
  GET  /tools        tool descriptions and parameters
  POST /call_tool    {"tool_name": ..., "parameters": {...}}
  POST /tools/:name  {"parameters": {...}}
  GET  /health       liveness
  GET  /metrics      Prometheus metrics

Examples:
  siteinsight server                      # random data on localhost:8000
  siteinsight server --mode static        # fixed fixture values
  siteinsight server --port 9000 --seed 42`,
	RunE: runServer,
}

func init() {
	addServerFlags(serverCmd)
	rootCmd.AddCommand(serverCmd)
}

// addServerFlags registers the flags shared by server and both.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serverHost, "host", config.DefaultServer.Host, "Listen host")
	cmd.Flags().IntVar(&serverPort, "port", config.DefaultServer.Port, "Listen port")
	cmd.Flags().StringVar(&serverMode, "mode", config.DefaultServer.Mode, "Data mode: random or static")
	cmd.Flags().Uint64Var(&serverSeed, "seed", 0, "Random seed (0 seeds from entropy)")
}

// serverOverrides applies explicitly set server flags over the config.
func serverOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		if cmd.Flags().Changed("mode") {
			cfg.Server.Mode = serverMode
		}
		if cmd.Flags().Changed("seed") {
			cfg.Server.Seed = serverSeed
		}
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	e, err := setup(serverOverrides(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	srv := server.New(e.registry(), e.logger, appVersion)
	addr := e.cfg.Addr()

	fmt.Printf("%s listening on http://%s (%s data). Press Ctrl+C to stop.\n",
		output.StyleBold.Render(server.Name), addr, e.cfg.Server.Mode)

	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	fmt.Println("\nStopped.")
	return nil
}
