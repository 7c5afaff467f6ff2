package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coinsight",
	Short: "Ask questions about cryptocurrency market data in plain English",
	Long: `coinsight answers natural-language questions about cryptocurrency market
data. It retrieves the relevant table schemas from a local vector index,
generates a read-only SQL query with an LLM, validates it, runs it against
the configured warehouse (a local DuckDB demo database or Snowflake), and
summarizes the result rows as prose.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flagBackend overrides the configured warehouse backend for one invocation.
var flagBackend string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "",
		"Warehouse backend: mock or snowflake (overrides config)")
}

func Execute() error {
	ctx := context.Background()
	return rootCmd.ExecuteContext(ctx)
}
