package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightisle/cv-screener/internal/export"
	"github.com/brightisle/cv-screener/internal/history"
	"github.com/brightisle/cv-screener/internal/output"
	"github.com/brightisle/cv-screener/internal/ranking"
	"github.com/brightisle/cv-screener/internal/review"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded screening runs or browse the results of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to list")
	historyCmd.Flags().StringP("export", "o", "", "write the results of the run to this .xlsx or .csv file")
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cfg.History.Enabled {
		log.Info("exiting", zap.String("reason", "history is disabled in the config"))
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return report(log, "opening history", err)
	}
	defer store.Close()

	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.ListRuns(ctx, limit)
		if err != nil {
			return report(log, "listing runs", err)
		}
		if err := printRuns(runs); err != nil {
			return report(log, "listing runs", err)
		}
		return nil
	}

	runID := args[0]
	results, err := store.Results(ctx, runID)
	if errors.Is(err, history.ErrRunNotFound) {
		log.Info("exiting", zap.String("reason", "no run with this id"), zap.String("run_id", runID))
		return nil
	}
	if err != nil {
		return report(log, "loading run results", err)
	}

	exportPath, _ := cmd.Flags().GetString("export")
	if exportPath = strings.TrimSpace(exportPath); exportPath != "" {
		if err := export.Write(exportPath, ranking.ToTable(results)); err != nil {
			return report(log, "exporting results", err)
		}
		log.Info("results exported", zap.String("filename", exportPath), zap.String("run_id", runID))
		output.Success(os.Stdout, "Results of run %s exported to %s", runID, exportPath)
		return nil
	}

	err = review.Browse(results, review.Options{
		Out: os.Stdout,
		DumpJSON: func() (string, error) {
			return export.DumpJSON(results)
		},
	})
	if err != nil {
		return report(log, "browsing results", err)
	}
	return nil
}

func printRuns(runs []history.Run) error {
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		failure := run.Failure
		if failure == "" {
			failure = "-"
		}
		rows = append(rows, []string{
			run.ID,
			run.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(run.Strength),
			strconv.Itoa(run.Applicants),
			failure,
			firstLine(run.Criteria, 60),
		})
	}

	return output.RenderTable(os.Stdout, []string{"Run ID", "Created", "Strength", "Applicants", "Failure", "Criteria"}, rows)
}

func firstLine(s string, limit int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if len([]rune(s)) > limit {
		return string([]rune(s)[:limit]) + "..."
	}
	return s
}
