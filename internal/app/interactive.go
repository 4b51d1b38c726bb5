package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/ask"
	"github.com/blackwell-systems/siteinsight/internal/output"
)

var interactiveLocal bool

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Ask questions about the analytics data",
	Long: `Start a question loop. Free text is answered from the matching metric
family; 'analyze' prints a full report; 'quit', 'exit', or 'q' leaves.`,
	RunE: runInteractive,
}

func init() {
	interactiveCmd.Flags().BoolVar(&interactiveLocal, "local", false, "Answer from in-process simulated data instead of calling the server")
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	src := e.source(interactiveLocal)
	s := &session{
		agent:    e.agent(src),
		answerer: e.answerer(src),
		onAnalyze: func(res agent.Result) {
			e.record(res, "interactive")
		},
	}
	return s.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// session is one interactive question loop.
type session struct {
	agent     *agent.Agent
	answerer  *ask.Answerer
	onAnalyze func(agent.Result)
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// run reads lines from in until quit, EOF, or cancellation.
func (s *session) run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, output.StyleHeader.Render("Analytics Agent - Interactive Mode"))
	fmt.Fprintln(out, "Ask me questions about your website analytics!")
	fmt.Fprintln(out, "Type 'analyze' for a full report, or 'quit' to exit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprint(out, "Your question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case isQuit(line):
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case strings.EqualFold(line, "analyze"):
			res := s.agent.Analyze(ctx, nil)
			if s.onAnalyze != nil {
				s.onAnalyze(res)
			}
			fmt.Fprintln(out)
			printDiagnostics(out, res)
			fmt.Fprintf(out, "%s\n\n", res.Text())
		default:
			fmt.Fprintf(out, "%s\n\n", s.answerer.Ask(ctx, line))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintln(out, "Goodbye!")
	return nil
}
