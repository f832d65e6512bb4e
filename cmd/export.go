package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/donexus/lease-extract/internal/export"
	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/store"
)

var (
	exportOutput string
	exportStatus string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journaled extractions to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := st.ListExtractions(ctx, store.ExtractionFilter{
			Status: model.ExtractionStatus(exportStatus),
			Limit:  exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "export: list extractions")
		}
		if len(results) == 0 {
			return eris.New("export: no extractions match the filter")
		}

		out := exportOutput
		if out == "" {
			out = export.SuggestFilename(time.Now())
		}

		if err := export.WriteXLSX(results, out); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("file", out),
			zap.Int("rows", len(results)))
		fmt.Printf("Wrote %d extractions to %s\n", len(results), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default extractions_<timestamp>.xlsx)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by status (success, partial, failed)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 10000, "max rows to export")
	rootCmd.AddCommand(exportCmd)
}
