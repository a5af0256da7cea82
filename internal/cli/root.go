package cli

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"optionflow/internal/analyst"
	"optionflow/internal/config"
	apperrors "optionflow/internal/errors"
	"optionflow/internal/locale"
	"optionflow/internal/logging"
	"optionflow/internal/performance"
	"optionflow/internal/resilience"
	"optionflow/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Translator *locale.Translator
	LLMClient  analyst.LLMClient
	Breaker    *resilience.CircuitBreaker

	store store.ScenarioStore
	pool  *performance.WorkerPool
}

// NewApp wires the dependencies that do not touch disk. The scenario store and
// worker pool are opened on first use.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	app := &App{
		Config:     cfg,
		Logger:     logger,
		Translator: locale.New(locale.ParseLanguage(cfg.UI.Language)),
		Breaker:    resilience.NewCircuitBreaker("analyst", resilience.DefaultCircuitBreakerConfig()),
	}

	if cfg.HasAnalyst() {
		if cfg.Analyst.BaseURL != "" {
			app.LLMClient = analyst.NewOpenAIClientWithBaseURL(cfg.Credentials.OpenAI.APIKey, cfg.Analyst.Model, cfg.Analyst.BaseURL)
		} else {
			app.LLMClient = analyst.NewOpenAIClient(cfg.Credentials.OpenAI.APIKey, cfg.Analyst.Model)
		}
		logger.Debug().Str("model", cfg.Analyst.Model).Str("base_url", cfg.Analyst.BaseURL).Msg("OpenAI LLM client initialized")
	}

	return app
}

// Analyst builds the commentary collaborator, or returns nil when no LLM
// client is configured.
func (a *App) Analyst(opts ...analyst.Option) *analyst.Analyst {
	if a.LLMClient == nil {
		return nil
	}
	base := []analyst.Option{
		analyst.WithMaxWords(a.Config.Analyst.MaxWords),
		analyst.WithTimeout(a.Config.Analyst.Timeout),
		analyst.WithBreaker(a.Breaker),
		analyst.WithLogger(a.Logger),
	}
	return analyst.New(a.LLMClient, a.Translator, append(base, opts...)...)
}

// Store opens the scenario store on first use.
func (a *App) Store() (store.ScenarioStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.Config.Store.Path
	if path == "" {
		path = filepath.Join(a.Config.Dir, "optionflow.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.Wrapf(err, "creating store directory %s", filepath.Dir(path))
	}

	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", path).Msg("SQLite store initialized")
	a.store = st
	return st, nil
}

// Pool starts the evaluation worker pool on first use.
func (a *App) Pool() *performance.WorkerPool {
	if a.pool == nil {
		a.pool = performance.NewWorkerPool(runtime.NumCPU())
		a.pool.Start()
	}
	return a.pool
}

// Close releases the store and stops the pool.
func (a *App) Close() error {
	if a.pool != nil {
		a.pool.Stop()
		a.pool = nil
	}
	if a.store != nil {
		err := a.store.Close()
		a.store = nil
		return err
	}
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return newRootCmd(NewApp(cfg, logger))
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "optionflow",
		Short: "OptionFlow - Black-Scholes pricing and time decay explorer",
		Long: `OptionFlow prices European options with the Black-Scholes model.

It reports call and put values with their Greeks, projects month-by-month
time decay, sweeps value curves over time or price, evaluates strike
ladders, keeps named scenarios and can ask an LLM for a short risk summary.

Use 'optionflow <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			if cmd.Flags().Changed("lang") {
				lang, _ := cmd.Flags().GetString("lang")
				app.Translator = locale.New(locale.ParseLanguage(lang))
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor || !app.Config.UI.ColorEnabled {
				color.NoColor = true
			}

			format, _ := cmd.Flags().GetString("format")
			if _, err := ParseFormat(format); err != nil {
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/optionflow)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().String("format", "table", "output format: table, json, yaml or csv")
	rootCmd.PersistentFlags().String("lang", "", "label language: en or zh")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addPricingCommands(rootCmd, app)
	addScenarioCommands(rootCmd, app)
	addAnalystCommands(rootCmd, app)
	addServerCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			info := map[string]string{
				"version":    Version,
				"build_date": BuildDate,
				"go":         runtime.Version(),
			}
			if ok, err := output.Emit(info, []versionRow{{Version, BuildDate, runtime.Version()}}); ok {
				return err
			}
			output.Printf("OptionFlow v%s\n", Version)
			output.Dim("Build date: %s (%s)", BuildDate, runtime.Version())
			return nil
		},
	}
}

type versionRow struct {
	Version   string `csv:"version"`
	BuildDate string `csv:"build_date"`
	Go        string `csv:"go"`
}

// configView is the printable configuration with credentials redacted.
type configView struct {
	Dir      string                `json:"dir" yaml:"dir"`
	Defaults config.DefaultsConfig `json:"defaults" yaml:"defaults"`
	UI       config.UIConfig       `json:"ui" yaml:"ui"`
	Server   config.ServerConfig   `json:"server" yaml:"server"`
	Store    config.StoreConfig    `json:"store" yaml:"store"`
	Analyst  config.AnalystConfig  `json:"analyst" yaml:"analyst"`
	Logging  config.LoggingConfig  `json:"logging" yaml:"logging"`
	OpenAI   string                `json:"openai_api_key" yaml:"openai_api_key"`
}

func newConfigView(cfg *config.Config) configView {
	return configView{
		Dir:      cfg.Dir,
		Defaults: cfg.Defaults,
		UI:       cfg.UI,
		Server:   cfg.Server,
		Store:    cfg.Store,
		Analyst:  cfg.Analyst,
		Logging:  cfg.Logging,
		OpenAI:   redact(cfg.Credentials.OpenAI.APIKey),
	}
}

func redact(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return "********"
	default:
		return secret[:3] + "..." + secret[len(secret)-4:]
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			view := newConfigView(app.Config)
			if output.Format() == FormatYAML {
				return output.YAML(view)
			}
			if output.IsStructured() {
				return output.JSON(view)
			}
			showConfig(output, view)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.JSON(map[string]string{"path": app.Config.Dir})
			}
			output.Println(app.Config.Dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsStructured() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, view configView) {
	d := view.Defaults
	output.Bold("Defaults")
	output.Printf("  Spot:            %s\n", FormatMoney(d.Spot))
	output.Printf("  Strike:          %s\n", FormatMoney(d.Strike))
	output.Printf("  Days:            %s\n", FormatFixed(d.Days, 0))
	output.Printf("  Rate:            %s\n", FormatRate(d.Rate))
	output.Printf("  Volatility:      %s\n", FormatRate(d.Volatility))
	output.Println()

	output.Bold("Interface")
	output.Printf("  Language:        %s\n", view.UI.Language)
	output.Printf("  Color:           %v\n", view.UI.ColorEnabled)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", view.Server.Addr)
	output.Printf("  Mode:            %s\n", view.Server.Mode)
	output.Printf("  Read Timeout:    %s\n", view.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", view.Server.WriteTimeout)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:        %s\n", view.Store.Path)
	output.Println()

	output.Bold("Analyst")
	output.Printf("  Model:           %s\n", view.Analyst.Model)
	if view.Analyst.BaseURL != "" {
		output.Printf("  Endpoint:        %s\n", view.Analyst.BaseURL)
	}
	output.Printf("  Max Words:       %d\n", view.Analyst.MaxWords)
	output.Printf("  Timeout:         %s\n", view.Analyst.Timeout)
	output.Printf("  API Key:         %s\n", view.OpenAI)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", view.Logging.Level)
	output.Printf("  File:            %v (%s)\n", view.Logging.File, view.Logging.FilePath)
}
