// Package config loads cv-screener settings from the config file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/brightisle/cv-screener/internal/failure"
	"github.com/brightisle/cv-screener/internal/secrets"
)

const AppName = "cv-screener"

// Environment variables bound to config keys.
const (
	EnvAPIKey     = "GEMINI_API_KEY"
	EnvAPIKeyFile = "GEMINI_API_KEY_FILE"
)

const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-2.5-flash"
	DefaultStrength = 3
)

type Config struct {
	AI      AIConfig      `mapstructure:"ai"`
	Screen  ScreenConfig  `mapstructure:"screen"`
	Export  ExportConfig  `mapstructure:"export"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

type AIConfig struct {
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
}

type ScreenConfig struct {
	Criteria           string `mapstructure:"criteria"`
	CriteriaFile       string `mapstructure:"criteria-file"`
	Strength           int    `mapstructure:"strength"`
	KeepPartialResults bool   `mapstructure:"keep-partial-results"`
	SkipScreened       bool   `mapstructure:"skip-screened"`
}

type ExportConfig struct {
	// Path is written after every successful batch when set. The extension
	// selects the format.
	Path string `mapstructure:"path"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	ErrorFile string `mapstructure:"error-file"`
}

// Dir is the per-user directory holding the config file, the error log and
// the history database.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(base, AppName)
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper, dir string) {
	v.SetDefault("ai.provider", DefaultProvider)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", DefaultModel)
	v.SetDefault("ai.gemini.timeout", "60s")
	v.SetDefault("ai.gemini.requests-per-minute", 10)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("screen.criteria", "")
	v.SetDefault("screen.criteria-file", "")
	v.SetDefault("screen.strength", DefaultStrength)
	v.SetDefault("screen.keep-partial-results", false)
	v.SetDefault("screen.skip-screened", false)

	v.SetDefault("export.path", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(dir, "history.db"))

	v.SetDefault("log.error-file", filepath.Join(dir, "error.log"))
}

// BindEnv binds the credential environment variables.
func BindEnv(v *viper.Viper) error {
	if err := v.BindEnv("ai.gemini.api-key", EnvAPIKey); err != nil {
		return fmt.Errorf("binding %s environment variable: %w", EnvAPIKey, err)
	}
	if err := v.BindEnv("ai.gemini.api-key-file", EnvAPIKeyFile); err != nil {
		return fmt.Errorf("binding %s environment variable: %w", EnvAPIKeyFile, err)
	}
	return nil
}

// Load reads file, or cv-screener.yaml from the working directory or dir when
// file is empty, and decodes the merged settings. A missing default file is
// not an error; a file that cannot be parsed is a MalformedConfig failure.
func Load(v *viper.Viper, file, dir string) (*Config, error) {
	SetDefaults(v, dir)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case errors.Is(err, fs.ErrNotExist):
			return nil, failure.New(failure.MalformedConfig, "load config", fmt.Errorf("config file %s does not exist", file))
		default:
			return nil, failure.New(failure.MalformedConfig, "load config", err)
		}
	}

	cfg, err := Decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode converts raw settings into a validated Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, failure.New(failure.MalformedConfig, "decode config", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	provider := strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if provider != "" && provider != DefaultProvider {
		return failure.Errorf(failure.MalformedConfig, "validate config", "unsupported ai provider: %s", c.AI.Provider)
	}
	if c.AI.Gemini.Timeout < 0 {
		return failure.Errorf(failure.MalformedConfig, "validate config", "ai.gemini.timeout must not be negative")
	}
	if c.AI.Gemini.RequestsPerMinute < 0 {
		return failure.Errorf(failure.MalformedConfig, "validate config", "ai.gemini.requests-per-minute must not be negative")
	}
	return nil
}

// ResolveAPIKey returns the Gemini API key from the key file or the inline
// value.
func (c *Config) ResolveAPIKey() (string, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: c.AI.Gemini.APIKey,
		File:  c.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		return "", fmt.Errorf("%w (set ai.gemini.api-key, %s or %s)", err, EnvAPIKey, EnvAPIKeyFile)
	}
	return key, nil
}

// ResolveCriteria returns the screening criteria, read from the criteria file
// when one is configured.
func (c *Config) ResolveCriteria() (string, error) {
	path := strings.TrimSpace(c.Screen.CriteriaFile)
	if path == "" {
		return strings.TrimSpace(c.Screen.Criteria), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", failure.New(failure.NoCriteria, "read criteria", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteDefault writes a config file with default settings and an empty API key
// to path. An existing file is never overwritten.
func WriteDefault(path, dir string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	SetDefaults(v, dir)
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
