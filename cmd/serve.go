package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight/internal/api"
)

var serveRebuildIndex bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Endpoints:

  POST /v1/query   answer a question
  GET  /v1/health  readiness probe
  GET  /v1/schema  indexed tables and active backend
  GET  /v1/metrics Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveRebuildIndex, "rebuild-index", false, "Rebuild the schema index before serving")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	idx, err := a.openIndex(ctx, serveRebuildIndex)
	if err != nil {
		return err
	}

	ag, err := a.buildAgent(idx)
	if err != nil {
		return err
	}

	readTimeout, writeTimeout, err := a.httpTimeouts()
	if err != nil {
		return err
	}

	server := api.NewServer(ag, ag.Backend(), idx.TableNames, a.logger)

	return server.ListenAndServe(ctx, a.cfg.HTTP.Address, readTimeout, writeTimeout)
}
