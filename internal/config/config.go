// Package config provides configuration management for the option analytics application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/logging"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
)

// Config holds all application configuration.
type Config struct {
	Defaults    DefaultsConfig `mapstructure:"defaults"`
	UI          UIConfig       `mapstructure:"ui"`
	Server      ServerConfig   `mapstructure:"server"`
	Store       StoreConfig    `mapstructure:"store"`
	Analyst     AnalystConfig  `mapstructure:"analyst"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
	Dir         string         `mapstructure:"-"`
}

// DefaultsConfig holds the scenario used when a parameter flag is not given.
type DefaultsConfig struct {
	Spot       float64 `mapstructure:"spot"`
	Strike     float64 `mapstructure:"strike"`
	Days       float64 `mapstructure:"days"`
	Rate       float64 `mapstructure:"rate"`
	Volatility float64 `mapstructure:"volatility"`
}

// Params converts the defaults to model parameters.
func (d DefaultsConfig) Params() models.OptionParameters {
	return models.OptionParameters{
		Spot:         d.Spot,
		Strike:       d.Strike,
		TimeToExpiry: d.Days / pricing.DaysPerYear,
		RiskFreeRate: d.Rate,
		Volatility:   d.Volatility,
	}
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	Language     string `mapstructure:"language"` // en, zh
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig holds scenario store configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// AnalystConfig holds commentary service configuration.
type AnalystConfig struct {
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"` // OpenAI-compatible endpoint; empty uses api.openai.com
	MaxWords int           `mapstructure:"max_words"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// LogConfig converts to the logging package's configuration.
func (l LoggingConfig) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      l.Level,
		Console:    l.Console,
		File:       l.File,
		FilePath:   l.FilePath,
		MaxSize:    l.MaxSize,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAge,
	}
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/optionflow"
	}
	return filepath.Join(home, ".config", "optionflow")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. Missing files are
// created from templates and the built-in defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, apperrors.Wrapf(err, "loading %s", filepath.Join(configDir, "config.toml"))
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, apperrors.Wrapf(err, "loading %s", filepath.Join(configDir, "credentials.toml"))
	}

	loadDotEnv(configDir)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "validating config")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("defaults.spot", 100.0)
	v.SetDefault("defaults.strike", 100.0)
	v.SetDefault("defaults.days", 120.0)
	v.SetDefault("defaults.rate", 0.0365)
	v.SetDefault("defaults.volatility", 0.25)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.language", "en")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("store.path", filepath.Join(configDir, "optionflow.db"))

	v.SetDefault("analyst.model", "gpt-4o-mini")
	v.SetDefault("analyst.max_words", 150)
	v.SetDefault("analyst.timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "optionflow.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 14)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		return createTemplateCredentials(configDir)
	}

	return v.Unmarshal(creds)
}

// loadDotEnv loads .env files from the working directory and the config
// directory. Variables already set in the environment win.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Analyst.BaseURL = v
	}
	if v := os.Getenv("OPTIONFLOW_LANG"); v != "" {
		cfg.UI.Language = v
	}
	if v := os.Getenv("OPTIONFLOW_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("OPTIONFLOW_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("OPTIONFLOW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.UI.Language != "en" && c.UI.Language != "zh" {
		return fmt.Errorf("%w: invalid language: %s (must be 'en' or 'zh')", apperrors.ErrConfigInvalid, c.UI.Language)
	}

	if err := pricing.Validate(c.Defaults.Params()); err != nil {
		return fmt.Errorf("%w: defaults: %v", apperrors.ErrConfigInvalid, err)
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: invalid server mode: %s", apperrors.ErrConfigInvalid, c.Server.Mode)
	}

	if c.Analyst.MaxWords <= 0 {
		return fmt.Errorf("%w: analyst.max_words must be positive", apperrors.ErrConfigInvalid)
	}

	return nil
}

// HasAnalyst reports whether commentary credentials are configured.
func (c *Config) HasAnalyst() bool {
	return c.Credentials.OpenAI.APIKey != ""
}
