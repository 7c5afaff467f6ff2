package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight/internal/warehouse"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create and populate the local demo database",
	Long: `Create the local DuckDB demo database with deterministic sample data for
the tracked top-10 coins. Running it again drops and recreates the tables,
so the data always matches a fresh install.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	path := a.cfg.Warehouse.MockDBPath

	a.logger.Info("seeding demo database", "path", path)

	if err := warehouse.Seed(path); err != nil {
		return err
	}

	fmt.Printf("Demo database ready at %s\n", path)

	return nil
}
