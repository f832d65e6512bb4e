package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect the extraction journal",
	Long:  "Commands for listing, viewing, deleting, and summarizing journaled extractions.",
}

// -- records list --

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled extractions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		filename, _ := cmd.Flags().GetString("filename")
		limit, _ := cmd.Flags().GetInt("limit")

		results, err := st.ListExtractions(ctx, store.ExtractionFilter{
			Status:   model.ExtractionStatus(status),
			Filename: filename,
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "records list")
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No extractions found.")
			return nil
		}

		formatRecordsList(os.Stdout, results)
		return nil
	},
}

// -- records show --

var recordsShowCmd = &cobra.Command{
	Use:   "show <extraction-id>",
	Short: "Show full details of an extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		result, err := st.GetExtraction(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "records show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// -- records delete --

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <extraction-id>",
	Short: "Delete a journaled extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteExtraction(ctx, args[0]); err != nil {
			return eris.Wrap(err, "records delete")
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// -- records stats --

var recordsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate journal statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := st.ListExtractions(ctx, store.ExtractionFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "records stats")
		}

		formatRecordStats(os.Stdout, computeRecordStats(results))
		return nil
	},
}

func init() {
	recordsListCmd.Flags().String("status", "", "filter by status (processing, success, partial, failed)")
	recordsListCmd.Flags().String("filename", "", "filter by original filename")
	recordsListCmd.Flags().Int("limit", 50, "max number of extractions to display")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
	recordsCmd.AddCommand(recordsStatsCmd)
	rootCmd.AddCommand(recordsCmd)
}

// recordStats holds aggregate statistics over journaled extractions.
type recordStats struct {
	Total      int
	Success    int
	Partial    int
	Failed     int
	Other      int
	AvgScore   float64
	AvgDurMs   float64
	TierCounts map[model.QualityTier]int
}

func computeRecordStats(results []model.ExtractionResult) recordStats {
	s := recordStats{TierCounts: map[model.QualityTier]int{}}
	s.Total = len(results)

	var scoreSum float64
	var scored int
	var durSum int64
	var timed int

	for _, r := range results {
		switch r.Status {
		case model.StatusSuccess:
			s.Success++
		case model.StatusPartial:
			s.Partial++
		case model.StatusFailed:
			s.Failed++
		default:
			s.Other++
		}
		if r.Report != nil {
			scoreSum += r.Report.OverallScore
			scored++
			s.TierCounts[r.Report.QualityTier]++
		}
		if r.ProcessingTimeMs > 0 {
			durSum += r.ProcessingTimeMs
			timed++
		}
	}

	if scored > 0 {
		s.AvgScore = scoreSum / float64(scored)
	}
	if timed > 0 {
		s.AvgDurMs = float64(durSum) / float64(timed)
	}
	return s
}

func formatRecordsList(out io.Writer, results []model.ExtractionResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFILENAME\tSTATUS\tSCORE\tTIER\tDURATION\tCREATED")
	for _, r := range results {
		score, tier := "-", "-"
		if r.Report != nil {
			score = fmt.Sprintf("%.1f", r.Report.OverallScore)
			tier = string(r.Report.QualityTier)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dms\t%s\n",
			r.ID, r.Filename, r.Status, score, tier,
			r.ProcessingTimeMs, r.CreatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

func formatRecordStats(out io.Writer, s recordStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Success:\t%d\n", s.Success)
	_, _ = fmt.Fprintf(w, "Partial:\t%d\n", s.Partial)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	if s.Other > 0 {
		_, _ = fmt.Fprintf(w, "Other:\t%d\n", s.Other)
	}
	_, _ = fmt.Fprintf(w, "Avg score:\t%.1f\n", s.AvgScore)
	_, _ = fmt.Fprintf(w, "Avg duration:\t%.0fms\n", s.AvgDurMs)
	for tier, n := range s.TierCounts {
		_, _ = fmt.Fprintf(w, "Tier %s:\t%d\n", tier, n)
	}
	_ = w.Flush()
}
