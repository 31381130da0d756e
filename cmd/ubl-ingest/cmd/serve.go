package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-ingest/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion HTTP API",
	Long: `Start the HTTP API: batch ingestion, single-file inspection,
document queries and the error log.

Examples:
  ubl-ingest serve
  ubl-ingest serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	addr := cfg.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.NewServer(&server.Config{
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Debug:        verbose || cfg.App.Env == "development",
	}, st, log)

	log.Info().Str("addr", addr).Msg("starting server")
	return srv.Run()
}
