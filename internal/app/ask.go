package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askLocal bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question about the analytics data",
	Long: `Match the question to a metric family by keyword, fetch that family,
and print a one-paragraph answer.

Examples:
  siteinsight ask "how is my traffic?"
  siteinsight ask what is my bounce rate
  siteinsight ask --local "where do visitors come from"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askLocal, "local", false, "Answer from in-process simulated data instead of calling the server")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer := e.answerer(e.source(askLocal)).Ask(cmd.Context(), question)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{"question": question, "answer": answer})
	}
	fmt.Println(answer)
	return nil
}
