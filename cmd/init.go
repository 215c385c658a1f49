package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brightisle/cv-screener/internal/config"
	"github.com/brightisle/cv-screener/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := config.Dir()
		path := cfgFile
		if path == "" {
			path = filepath.Join(dir, app+".yaml")
		}

		if err := config.WriteDefault(path, dir); err != nil {
			var exists viper.ConfigFileAlreadyExistsError
			if errors.As(err, &exists) {
				fmt.Fprintf(cmd.OutOrStdout(), "Config file %s already exists.\n", path)
				return nil
			}
			return err
		}

		output.Success(cmd.OutOrStdout(), "Config written to %s.", path)
		fmt.Fprintf(cmd.OutOrStdout(), "Set ai.gemini.api-key in it, or export %s, before running '%s screen'.\n", config.EnvAPIKey, app)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
