package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-ingest/internal/store"
	"github.com/rezonia/ubl-ingest/internal/store/memory"
	"github.com/rezonia/ubl-ingest/internal/store/postgres"
	"github.com/rezonia/ubl-ingest/pkg/config"
	"github.com/rezonia/ubl-ingest/pkg/logger"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configFile   string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ubl-ingest",
	Short: "Ingest SUNAT UBL 2.1 electronic documents",
	Long: `ubl-ingest parses SUNAT UBL 2.1 XML documents (facturas, boletas,
notas de crédito y débito) into a canonical record set, deduplicates
them against the store and reconciles issuer/customer master records.

Examples:
  # Ingest XML files and zip batches
  ubl-ingest ingest F001-123.xml emitidos-2026-08.zip

  # Ingest everything under a directory
  ubl-ingest ingest ./descargas/

  # Map one file without persisting
  ubl-ingest inspect F001-123.xml

  # Run the HTTP API
  ubl-ingest serve --addr :8080`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (env vars are read either way)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level := cfg.App.LogLevel
	if verbose {
		level = "debug"
	}
	log = logger.New(cfg.App.Env, level)
}

// openStore returns the configured store: PostgreSQL when a connection
// string is set, otherwise the in-memory store (useful for dry runs and
// demos, but gone when the process exits).
func openStore(ctx context.Context) (store.Store, func(), error) {
	dsn := cfg.DB.ConnectionString()
	if dsn == "" {
		log.Warn().Msg("no database configured, using in-memory store")
		return memory.New(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	st := postgres.New(pool)
	return st, st.Close, nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
