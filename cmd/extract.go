package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/donexus/lease-extract/internal/model"
)

var extractConcurrency int

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract lease data from one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limit := extractConcurrency
		if limit == 0 {
			limit = cfg.Extract.MaxConcurrent
		}

		results, err := env.Pipeline.ProcessBatch(ctx, args, limit)
		if err != nil {
			return err
		}

		var failed int
		for _, r := range results {
			switch r.Status {
			case model.StatusFailed:
				failed++
				fmt.Printf("%-40s  FAILED    %s\n", r.Filename, r.ErrorMessage)
			default:
				tier := ""
				score := 0.0
				if r.Report != nil {
					tier = string(r.Report.QualityTier)
					score = r.Report.OverallScore
				}
				fmt.Printf("%-40s  %-8s  score=%.1f (%s)  %dms\n",
					r.Filename, r.Status, score, tier, r.ProcessingTimeMs)
			}
		}

		zap.L().Info("extraction batch finished",
			zap.Int("total", len(results)),
			zap.Int("failed", failed))
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 0, "max documents in flight (default from config)")
	rootCmd.AddCommand(extractCmd)
}
