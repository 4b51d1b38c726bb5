package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/mcp"
	"github.com/blackwell-systems/siteinsight/internal/source"
)

var mcpRemote bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server over the analytics tools",
	Long: `Start a Model Context Protocol stdio server exposing the five analytics
tools plus:

  analyze_site   Full insight report for a date range
  ask_question   Keyword question answering

Data comes from the in-process simulated store unless --remote is given, in
which case analyze_site and ask_question call the configured HTTP server.

Add to an MCP client configuration:
  {"mcpServers":{"siteinsight":{"command":"siteinsight","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpRemote, "remote", false, "Analyze and answer via the configured HTTP server")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	// stdout carries the protocol; keep logs on stderr and quiet by default.
	if !flagVerbose {
		e.logger = logging.New("error", e.cfg.Log.Format)
	}

	reg := e.registry()
	var src source.Source = source.NewLocal(reg)
	if mcpRemote {
		src = e.httpSource(e.cfg.BaseURL())
	}

	srv := mcp.NewServer(reg, e.agent(src), e.answerer(src), appVersion).WithLogger(e.logger)
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
