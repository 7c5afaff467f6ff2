package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect the schema vector index",
	Long: `Build the schema vector index from the schema catalog file, or show the
state of an existing index. With --rebuild the index is re-embedded from
scratch, which is required after editing the catalog or switching
embedding models.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Re-embed the index from scratch")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	idx, err := a.openIndex(cmd.Context(), indexRebuild)
	if err != nil {
		return err
	}

	fmt.Printf("Index: %s\n", a.cfg.Index.Path)
	fmt.Printf("  collection: %s\n", a.cfg.Index.Collection)
	fmt.Printf("  model:      %s\n", idx.Model())
	fmt.Printf("  chunks:     %d\n", idx.Count())
	fmt.Printf("  tables:     %s\n", strings.Join(idx.TableNames(), ", "))

	return nil
}
