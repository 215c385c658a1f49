package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/brightisle/cv-screener/internal/ai/gemini"
	"github.com/brightisle/cv-screener/internal/applicant"
	"github.com/brightisle/cv-screener/internal/config"
	"github.com/brightisle/cv-screener/internal/export"
	"github.com/brightisle/cv-screener/internal/extract"
	"github.com/brightisle/cv-screener/internal/failure"
	"github.com/brightisle/cv-screener/internal/history"
	"github.com/brightisle/cv-screener/internal/intake"
	"github.com/brightisle/cv-screener/internal/output"
	"github.com/brightisle/cv-screener/internal/pipeline"
	"github.com/brightisle/cv-screener/internal/ranking"
	"github.com/brightisle/cv-screener/internal/review"
	"github.com/brightisle/cv-screener/internal/utils"
)

const (
	PromptYes         = "Yes"
	PromptNo          = "No"
	defaultExportPath = "Results.xlsx"
)

var screenCmd = &cobra.Command{
	Use:   "screen [files or directories...]",
	Short: "Screen resume and cover letter PDFs and rank the applicants",
	Long: `Screen pairs <Role>_<First>-<Last>_<anything>.pdf files by applicant, where
Role is Resume or CoverLetter, removes names, emails and phone numbers, and asks
Gemini to score every applicant against the criteria. Directories are expanded
to the PDF files they contain.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return screen(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("criteria", "c", "", "screening criteria")
	screenCmd.Flags().String("criteria-file", "", "file holding the screening criteria")
	screenCmd.Flags().IntP("strength", "s", config.DefaultStrength, "filter strength from 1 (lenient) to 5 (strict)")
	screenCmd.Flags().StringP("export", "o", "", "write the ranking to this .xlsx or .csv file")
	screenCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation and do not open the result browser")
	screenCmd.Flags().Bool("keep-partial", false, "keep results gathered before a fatal provider error")
	screenCmd.Flags().Bool("skip-screened", false, "skip files already screened in a recorded run")
	screenCmd.Flags().Bool("no-dedupe", false, "keep repeated file arguments")

	viper.BindPFlag("screen.criteria", screenCmd.Flags().Lookup("criteria"))
	viper.BindPFlag("screen.criteria-file", screenCmd.Flags().Lookup("criteria-file"))
	viper.BindPFlag("screen.strength", screenCmd.Flags().Lookup("strength"))
	viper.BindPFlag("export.path", screenCmd.Flags().Lookup("export"))
	viper.BindPFlag("screen.keep-partial-results", screenCmd.Flags().Lookup("keep-partial"))
	viper.BindPFlag("screen.skip-screened", screenCmd.Flags().Lookup("skip-screened"))
}

// screen is the main command for the cli.
func screen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting the cv-screener", zap.String("version", version))

	criteria, err := cfg.ResolveCriteria()
	if err != nil {
		return report(log, "reading criteria", err)
	}

	files, err := intake.Expand(args)
	if err != nil {
		return report(log, "expanding arguments", err)
	}

	req := pipeline.Request{Paths: files, Criteria: criteria, Strength: cfg.Screen.Strength}
	if err := pipeline.Validate(req); err != nil {
		return report(log, "validating input", err)
	}

	store := openHistory(cfg, log)
	if store != nil {
		defer store.Close()
	}

	deps := intake.Deps{Logger: log}
	if store != nil {
		deps.History = store
	}

	steps := intake.DefaultSteps(cfg.Screen.SkipScreened)
	if cmd.Flag("no-dedupe").Value.String() == "true" {
		intake.DisableByName(steps, "duplicates", "--no-dedupe")
	}
	for _, status := range intake.Describe(steps) {
		log.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	req.Paths, err = intake.Run(ctx, deps, steps, files)
	if err != nil {
		return report(log, "checking files", err)
	}

	applicants := applicant.Aggregate(req.Paths).Len()
	if applicants == 0 {
		log.Info("exiting", zap.String("reason", "no files follow the <Role>_<First>-<Last>_<anything>.pdf naming"))
		return nil
	}

	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return report(log, "loading gemini api key", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:            apiKey,
		Model:             cfg.AI.Gemini.Model,
		Timeout:           cfg.AI.Gemini.Timeout,
		RequestsPerMinute: cfg.AI.Gemini.RequestsPerMinute,
		MaxLogLength:      cfg.AI.Gemini.MaxLogLength,
		Logger:            log,
	})
	if err != nil {
		return report(log, "creating gemini client", err)
	}

	autoApprove := cmd.Flag("yes").Value.String() == "true"
	if !autoApprove {
		confirm := promptui.Select{
			Label: fmt.Sprintf("Send documents of %d applicants to %s?", applicants, generator.Model()),
			Items: []string{PromptYes, PromptNo},
		}
		_, answer, err := confirm.Run()
		if err != nil || answer != PromptYes {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return nil
		}
	}

	worker, err := pipeline.New(pipeline.Config{
		Extractor:    extract.NewPDF(),
		Evaluator:    generator,
		Logger:       log,
		KeepPartial:  cfg.Screen.KeepPartialResults,
		MaxLogLength: cfg.AI.Gemini.MaxLogLength,
		OnProgress: func(p pipeline.Progress) {
			log.Info("applicant",
				zap.String("name", p.Applicant),
				zap.String("status", string(p.Status)),
				zap.String("progress", fmt.Sprintf("%d/%d", p.Index, p.Total)),
			)
		},
	})
	if err != nil {
		return report(log, "creating worker", err)
	}

	outcome := <-worker.Start(ctx, req)

	if store != nil {
		run := history.Run{ID: outcome.RunID, Criteria: criteria, Strength: req.Strength}
		if outcome.Err != nil {
			run.Failure = failure.KindOf(outcome.Err).String()
		}
		if err := store.SaveRun(ctx, run, outcome.Results); err != nil {
			log.Warn("saving run to history", zap.Error(err))
		}
	}

	var reported error
	if outcome.Err != nil {
		reported = report(log, "screening", outcome.Err)
		if len(outcome.Results) == 0 {
			return reported
		}
		log.Warn("showing partial results", zap.Int("count", len(outcome.Results)))
	}

	if err := present(cfg, log, outcome.Results, autoApprove); err != nil {
		return report(log, "presenting results", err)
	}

	return reported
}

// present exports the ranking when an export path is configured and then
// either prints it or opens the interactive browser.
func present(cfg *config.Config, log *zap.Logger, results []ranking.Result, printOnly bool) error {
	exportPath := strings.TrimSpace(cfg.Export.Path)
	if exportPath != "" {
		if err := export.Write(exportPath, ranking.ToTable(results)); err != nil {
			return err
		}
		log.Info("results exported", zap.String("filename", exportPath))
	}

	if printOnly {
		return printRanking(results)
	}

	return review.Browse(results, review.Options{
		Out: os.Stdout,
		Export: func() (string, error) {
			path := exportPath
			if path == "" {
				path = defaultExportPath
			}
			return path, export.Write(path, ranking.ToTable(results))
		},
		DumpJSON: func() (string, error) {
			return export.DumpJSON(results)
		},
	})
}

// openHistory returns nil when history is disabled or cannot be opened.
func openHistory(cfg *config.Config, log *zap.Logger) *history.Store {
	if !cfg.History.Enabled || strings.TrimSpace(cfg.History.Path) == "" {
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Warn("run history is unavailable", zap.String("path", cfg.History.Path), zap.Error(err))
		return nil
	}
	return store
}

func printRanking(results []ranking.Result) error {
	table := ranking.ToTable(results)
	for _, row := range table.Rows {
		row[2] = output.Approval(row[2])
		row[3] = utils.TruncateForLog(strings.ReplaceAll(row[3], "\n", " "), 80)
	}
	return output.RenderTable(os.Stdout, table.Header, table.Rows)
}
