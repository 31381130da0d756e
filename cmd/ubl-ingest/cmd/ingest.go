package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-ingest/internal/ingest"
)

var (
	dryRun  bool
	timeout time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files|dirs...]",
	Short: "Ingest UBL documents into the store",
	Long: `Ingest one or more UBL XML files or zip batches.

Directories are walked for .xml and .zip files; zip members that are
not XML are skipped. The whole batch is persisted in one transaction:
duplicates are rejected, issuer and customer master records are merged.

Examples:
  ubl-ingest ingest F001-123.xml
  ubl-ingest ingest emitidos-2026-08.zip
  ubl-ingest ingest ./descargas/ --dry-run -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Map the batch and report, but persist nothing")
	ingestCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Batch processing timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to ingest")
	}
	printVerbose("Found %d files to ingest\n", len(files))

	payloads := make([]ingest.FilePayload, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		payloads = append(payloads, ingest.FilePayload{Name: filepath.Base(path), Data: data})
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	worker := ingest.NewWorker(log)
	var batch *ingest.BatchResult
	select {
	case batch = <-worker.Go(ctx, payloads):
	case <-ctx.Done():
		return ctx.Err()
	}

	if dryRun {
		return outputBatch(batch)
	}

	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	summary, err := ingest.NewResolver(st, log).SaveBatch(ctx, batch)
	if err != nil {
		return err
	}
	return outputSummary(summary, batch)
}

// collectFiles expands arguments into an ordered list of .xml and .zip
// paths; directories are walked, order follows the arguments.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("file not found: %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isSupportedFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".zip":
		return true
	default:
		return false
	}
}

func outputSummary(summary ingest.Summary, batch *ingest.BatchResult) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"summary":    summary,
			"errors":     batch.Errors,
			"recoveries": batch.Recoveries,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Queued:\t%d\n", summary.Queued)
	fmt.Fprintf(w, "Inserted:\t%d\n", summary.Inserted)
	fmt.Fprintf(w, "Duplicates:\t%d\n", summary.Duplicates)
	fmt.Fprintf(w, "Errors:\t%d\n", summary.Errors)
	if err := w.Flush(); err != nil {
		return err
	}
	for _, fe := range batch.Errors {
		fmt.Printf("  %s: [%s] %s\n", fe.Filename, fe.Code, fe.Detail)
	}
	return nil
}

func outputBatch(batch *ingest.BatchResult) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIPO\tSERIE-NUMERO\tMONEDA\tFECHA\tEMISOR\tTOTAL")
	for _, item := range batch.Documents {
		d := item.Document
		fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%s\t%s\n",
			d.Tipo, d.Serie, d.Numero, d.Moneda, d.IssueDate, d.Issuer.RUC, d.Total.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, fe := range batch.Errors {
		fmt.Printf("  %s: [%s] %s\n", fe.Filename, fe.Code, fe.Detail)
	}
	return nil
}
