package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"optionflow/internal/analyst"
	apperrors "optionflow/internal/errors"
	"optionflow/internal/locale"
	"optionflow/internal/logging"
)

// addAnalystCommands adds the LLM commentary command.
func addAnalystCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var maxWords int

	cmd := &cobra.Command{
		Use:     "analyze",
		Aliases: []string{"explain"},
		Short:   "Ask an LLM to explain the option's risks",
		Long: `Price the option and ask an LLM for a short plain-language risk summary
covering theta, moneyness and an overall verdict.

Requires an OpenAI API key in credentials.toml or OPENAI_API_KEY. The
commentary follows --lang.`,
		Example: `  optionflow analyze --spot 95 --strike 100 --days 30
  optionflow analyze --scenario leaps --lang zh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tr := app.Translator
			logger := logging.WithOperation(app.Logger, "analyze")

			if app.LLMClient == nil {
				output.Error("%s: no OpenAI API key configured", tr.T(locale.AnalysisError))
				output.Dim("Set api_key under [openai] in %s/credentials.toml or export OPENAI_API_KEY.", app.Config.Dir)
				return apperrors.NewAnalystError("analyze", apperrors.ErrAnalystUnavailable)
			}

			p, scenario, err := resolveParams(cmd, app)
			if err != nil {
				return err
			}
			if scenario != "" {
				logger = logging.WithScenario(logger, scenario)
			}

			words := app.Config.Analyst.MaxWords
			if cmd.Flags().Changed("max-words") {
				if maxWords < 1 {
					return invalidFlag("max-words", FormatFixed(float64(maxWords), 0), "must be at least 1")
				}
				words = maxWords
			}

			a := app.Analyst(analyst.WithMaxWords(words), analyst.WithLogger(logger))

			if !output.IsStructured() {
				output.Dim("Asking %s...", app.Config.Analyst.Model)
			}
			commentary, err := a.Explain(cmd.Context(), p)
			if err != nil {
				if !output.IsStructured() {
					output.Error("%s: %v", tr.T(locale.AnalysisError), err)
				}
				return err
			}
			journal(cmd, app, scenario, p, commentary.Result)

			if output.Format() == FormatCSV {
				return output.JSON(commentary)
			}
			if ok, err := output.Emit(commentary, nil); ok {
				return err
			}

			output.Box(tr.T(locale.AITitle), strings.Split(commentary.Text, "\n"))
			output.Dim("%s %s · %s %s · %s",
				tr.T(locale.CallPrice), FormatMoney(commentary.Result.CallPrice),
				tr.T(locale.PutPrice), FormatMoney(commentary.Result.PutPrice),
				commentary.Moneyness)
			return nil
		},
	}
	addParamFlags(cmd)
	cmd.Flags().IntVar(&maxWords, "max-words", analyst.DefaultMaxWords, "commentary length limit")
	return cmd
}
