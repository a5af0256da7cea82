package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"optionflow/internal/api"
)

// addServerCommands adds the HTTP server command.
func addServerCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newServeCmd(app))
}

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var rateLimit float64
	var burst int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pricing engine over HTTP",
		Long: `Start a JSON HTTP server exposing the pricing engine.

Endpoints:
  GET /healthz
  GET /v1/price        ?spot&strike&days|years&rate&vol&scenario
  GET /v1/decay        same parameters
  GET /v1/curve        same parameters plus mode=time|price
  GET /v1/ladder       same parameters plus from, to, step
  GET /v1/scenarios
  GET /v1/scenarios/:name
  GET /v1/scenarios/:name/history?limit

Missing parameters fall back to the [defaults] section of config.toml.`,
		Example: `  optionflow serve
  optionflow serve --addr 127.0.0.1:9090 --rate-limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			srvCfg := app.Config.Server

			if cmd.Flags().Changed("addr") {
				srvCfg.Addr = addr
			}
			if rateLimit < 0 {
				return invalidFlag("rate-limit", FormatFixed(rateLimit, 2), "must not be negative")
			}

			st, err := app.Store()
			if err != nil {
				return err
			}

			server := api.NewServer(api.Options{
				Addr:         srvCfg.Addr,
				Mode:         srvCfg.Mode,
				ReadTimeout:  srvCfg.ReadTimeout,
				WriteTimeout: srvCfg.WriteTimeout,
				Version:      Version,
				Defaults:     app.Config.Defaults.Params(),
				Analyst:      app.Analyst(),
				RateLimit:    rateLimit,
				Burst:        burst,
			}, st, app.Pool(), app.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output.Info("Listening on %s (Ctrl+C to stop)", srvCfg.Addr)
			if err := server.Run(ctx); err != nil {
				return err
			}
			output.Dim("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "requests per second, 0 for unlimited")
	cmd.Flags().IntVar(&burst, "burst", 0, "rate limit burst (default: rate)")
	return cmd
}
