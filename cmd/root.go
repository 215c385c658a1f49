package cmd

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/brightisle/cv-screener/internal/config"
	"github.com/brightisle/cv-screener/internal/failure"
	"github.com/brightisle/cv-screener/internal/logger"
	"github.com/brightisle/cv-screener/internal/output"
)

const (
	app = config.AppName
)

// errReported marks failures that were already logged and shown to the user.
var errReported = errors.New("failure reported")

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "cv-screener ranks applicants by screening their resume and cover letter PDFs with Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if err != nil && !errors.Is(err, errReported) {
		cmd.PrintErrln("Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory or the user config directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setup loads .env and the config file and builds the logger. A config
// failure is logged and reported before it is returned.
func setup() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %s", err)
	}

	if viper.GetBool("json") {
		output.Plain()
	}

	dir := config.Dir()
	cfg, cfgErr := config.Load(viper.GetViper(), cfgFile, dir)

	errorLog := filepath.Join(dir, "error.log")
	if cfg != nil {
		errorLog = cfg.Log.ErrorFile
	}

	l, err := logger.New(logger.Options{
		JSON:     viper.GetBool("json"),
		Debug:    viper.GetBool("debug"),
		ErrorLog: errorLog,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	if cfgErr != nil {
		return nil, l, report(l, "loading config", cfgErr)
	}

	return cfg, l, nil
}

// report logs err at error level, which also appends it to the error log, and
// prints the fixed message for its failure kind.
func report(l *zap.Logger, step string, err error) error {
	kind := failure.KindOf(err)
	l.Error(step,
		zap.String(logger.FieldFailure, kind.String()),
		zap.Error(err),
	)
	output.Failure(rootCmd.ErrOrStderr(), failure.Message(err))
	return errReported
}
