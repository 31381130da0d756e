package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-ingest/internal/ingest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Map a single document without persisting it",
	Long: `Parse one UBL XML file (or zip batch) and print the canonical
document. Nothing is written to the store, so no database is needed.

Examples:
  ubl-ingest inspect F001-123.xml
  ubl-ingest inspect emitidos.zip -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	worker := ingest.NewWorker(log)
	batch := worker.Process(ctx, []ingest.FilePayload{
		{Name: filepath.Base(args[0]), Data: data},
	})

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	}

	for _, item := range batch.Documents {
		d := item.Document
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Tipo:\t%s\n", d.Tipo)
		fmt.Fprintf(w, "Serie-Numero:\t%s-%s\n", d.Serie, d.Numero)
		fmt.Fprintf(w, "Fecha:\t%s\n", d.IssueDate)
		fmt.Fprintf(w, "Moneda:\t%s\n", d.Moneda)
		fmt.Fprintf(w, "Emisor:\t%s (%s)\n", d.Issuer.Nombre, d.Issuer.RUC)
		fmt.Fprintf(w, "Cliente:\t%s (%s)\n", d.Customer.Nombre, d.Customer.DocNumber)
		fmt.Fprintf(w, "Subtotal:\t%s\n", d.Subtotal.StringFixed(2))
		fmt.Fprintf(w, "IGV:\t%s\n", d.TotalIGV.StringFixed(2))
		fmt.Fprintf(w, "Total:\t%s\n", d.Total.StringFixed(2))
		fmt.Fprintf(w, "Hash:\t%s\n", d.Hash)
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\nLineas (%d):\n", len(item.Lines))
		lw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(lw, "  N\tDESCRIPCION\tCANT\tP.UNIT\tVALOR\tIGV")
		for _, line := range item.Lines {
			fmt.Fprintf(lw, "  %d\t%s\t%s\t%s\t%s\t%s\n",
				line.LineNumber, truncate(line.Descripcion, 40),
				line.Cantidad.String(), line.PrecioUnitario.StringFixed(2),
				line.ValorLinea.StringFixed(2), line.IGVMonto.StringFixed(2))
		}
		if err := lw.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}

	for _, fe := range batch.Errors {
		fmt.Printf("Error %s: [%s] %s\n", fe.Filename, fe.Code, fe.Detail)
	}
	for _, rn := range batch.Recoveries {
		fmt.Printf("Aviso %s: campo %s con valor %q tomado como cero\n", rn.Filename, rn.Field, rn.Raw)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
