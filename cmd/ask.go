package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight/internal/agent"
	"github.com/coinsight/coinsight/internal/errors"
)

var (
	askInteractive  bool
	askRebuildIndex bool
	askShowSQL      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question, or start an interactive session",
	Long: `Answer a natural-language question about the tracked cryptocurrency data.

Examples:
  coinsight ask "What is the current price of Bitcoin?"
  coinsight ask --sql "Which coin gained the most in the last 24 hours?"
  coinsight ask --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "Start an interactive question loop")
	askCmd.Flags().BoolVar(&askRebuildIndex, "rebuild-index", false, "Rebuild the schema index before answering")
	askCmd.Flags().BoolVar(&askShowSQL, "sql", false, "Print the generated SQL alongside the answer")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !askInteractive && len(args) == 0 {
		return errors.New(errors.ErrTypeValidation, "provide a question or use --interactive")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	idx, err := a.openIndex(ctx, askRebuildIndex)
	if err != nil {
		return err
	}

	ag, err := a.buildAgent(idx)
	if err != nil {
		return err
	}

	if askInteractive {
		return interactiveLoop(ctx, ag)
	}

	result, err := askOnce(ctx, ag, strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}

	printResult(result)

	return nil
}

func askOnce(ctx context.Context, ag *agent.Agent, question string) (agent.Result, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr), spinner.WithSuffix(" thinking..."))
	s.Start()

	result, err := ag.Ask(ctx, question)

	s.Stop()

	return result, err
}

func printResult(result agent.Result) {
	if askShowSQL {
		fmt.Printf("sql: %s\n\n", result.SQL)
	}

	fmt.Println(result.Answer)
}

// interactiveLoop reads questions until EOF or an exit word. Failures are
// printed and the loop continues; a bad question should not end the
// session.
func interactiveLoop(ctx context.Context, ag *agent.Agent) error {
	fmt.Println("Ask about cryptocurrency market data. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("coinsight> ")

		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			return nil
		}

		result, err := askOnce(ctx, ag, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", errors.UserMessage(err))
			continue
		}

		printResult(result)
		fmt.Println()
	}
}
