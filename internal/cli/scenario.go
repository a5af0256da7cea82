package cli

import (
	"github.com/spf13/cobra"

	"optionflow/internal/locale"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
	"optionflow/internal/store"
)

// addScenarioCommands adds scenario management commands.
func addScenarioCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "scenario",
		Aliases: []string{"scenarios", "sc"},
		Short:   "Manage saved parameter sets",
		Long: `Save, list, inspect and delete named parameter sets.

Pricing commands accept --scenario <name> to start from a saved set and
record each evaluation in the scenario's history.`,
	}

	cmd.AddCommand(newScenarioSaveCmd(app))
	cmd.AddCommand(newScenarioListCmd(app))
	cmd.AddCommand(newScenarioShowCmd(app))
	cmd.AddCommand(newScenarioDeleteCmd(app))
	cmd.AddCommand(newScenarioHistoryCmd(app))

	rootCmd.AddCommand(cmd)
}

func newScenarioSaveCmd(app *App) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current parameters under a name",
		Long: `Save parameters under a name. Flags that are not given fall back to
the configured defaults, or to the existing scenario when --scenario is set.
Saving over an existing name replaces its parameters.`,
		Example: `  optionflow scenario save leaps --days 730 --vol 0.3
  optionflow scenario save leaps --scenario leaps --spot 105`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			p, _, err := resolveParams(cmd, app)
			if err != nil {
				return err
			}
			st, err := app.Store()
			if err != nil {
				return err
			}

			sc := &models.Scenario{Name: args[0], Params: p, Notes: notes}
			if err := st.SaveScenario(cmd.Context(), sc); err != nil {
				return err
			}
			app.Logger.Info().Str("scenario", sc.Name).Msg("Scenario saved")

			if ok, err := output.Emit(sc, []scenarioRow{newScenarioRow(*sc)}); ok {
				return err
			}
			output.Success("✓ Saved scenario %s", sc.Name)
			return nil
		},
	}
	addParamFlags(cmd)
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

// scenarioRow is the flat CSV form of a scenario.
type scenarioRow struct {
	Name         string  `csv:"name"`
	Spot         float64 `csv:"spot"`
	Strike       float64 `csv:"strike"`
	TimeToExpiry float64 `csv:"time_to_expiry"`
	RiskFreeRate float64 `csv:"risk_free_rate"`
	Volatility   float64 `csv:"volatility"`
	Notes        string  `csv:"notes"`
	UpdatedAt    string  `csv:"updated_at"`
}

func newScenarioRow(sc models.Scenario) scenarioRow {
	return scenarioRow{
		Name:         sc.Name,
		Spot:         sc.Params.Spot,
		Strike:       sc.Params.Strike,
		TimeToExpiry: sc.Params.TimeToExpiry,
		RiskFreeRate: sc.Params.RiskFreeRate,
		Volatility:   sc.Params.Volatility,
		Notes:        sc.Notes,
		UpdatedAt:    sc.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func newScenarioListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.Store()
			if err != nil {
				return err
			}
			scenarios, err := st.ListScenarios(cmd.Context())
			if err != nil {
				return err
			}
			if scenarios == nil {
				scenarios = []models.Scenario{}
			}

			rows := make([]scenarioRow, len(scenarios))
			for i, sc := range scenarios {
				rows[i] = newScenarioRow(sc)
			}
			if ok, err := output.Emit(scenarios, rows); ok {
				return err
			}

			if len(scenarios) == 0 {
				output.Dim("No saved scenarios. Create one with 'optionflow scenario save <name>'.")
				return nil
			}

			table := NewTable(output, "Name", "Spot", "Strike", "Days", "σ", "r", "Updated", "Notes")
			for _, sc := range scenarios {
				p := sc.Params
				table.AddRow(output.Cyan(sc.Name),
					FormatFixed(p.Spot, 2),
					FormatFixed(p.Strike, 2),
					FormatDays(p.TimeToExpiry),
					FormatRate(p.Volatility),
					FormatRate(p.RiskFreeRate),
					FormatDateTime(sc.UpdatedAt),
					TruncateString(sc.Notes, 32))
			}
			table.Render()
			output.Dim("%d scenario(s)", len(scenarios))
			return nil
		},
	}
}

// scenarioView is the structured output of scenario show.
type scenarioView struct {
	Scenario  *models.Scenario     `json:"scenario" yaml:"scenario"`
	Result    models.PricingResult `json:"result" yaml:"result"`
	Moneyness models.Moneyness     `json:"moneyness" yaml:"moneyness"`
}

func newScenarioShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved scenario priced today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.Store()
			if err != nil {
				return err
			}
			sc, err := st.GetScenario(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := pricing.Price(sc.Params)
			if err != nil {
				return err
			}
			moneyness := pricing.Classify(sc.Params.Spot, sc.Params.Strike)

			view := scenarioView{Scenario: sc, Result: result, Moneyness: moneyness}
			if ok, err := output.Emit(view, []priceRow{newPriceRow(sc.Params, result)}); ok {
				return err
			}

			displayPrice(output, app.Translator, priceView{
				Scenario:  sc.Name,
				Params:    sc.Params,
				Days:      sc.Params.Days(),
				Result:    result,
				Moneyness: moneyness,
			})
			if sc.Notes != "" {
				output.Println()
				output.Dim("%s", sc.Notes)
			}
			return nil
		},
	}
}

func newScenarioDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved scenario",
		Long:    "Delete a saved scenario. Its evaluation history is kept.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.Store()
			if err != nil {
				return err
			}
			if err := st.DeleteScenario(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.Logger.Info().Str("scenario", args[0]).Msg("Scenario deleted")

			if output.IsStructured() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Deleted scenario %s", args[0])
			return nil
		},
	}
}

// evaluationRow is the flat CSV form of a journaled evaluation.
type evaluationRow struct {
	ID        string  `csv:"id"`
	Scenario  string  `csv:"scenario"`
	CreatedAt string  `csv:"created_at"`
	Spot      float64 `csv:"spot"`
	Strike    float64 `csv:"strike"`
	Days      float64 `csv:"days"`
	CallPrice float64 `csv:"call_price"`
	PutPrice  float64 `csv:"put_price"`
	CallDelta float64 `csv:"call_delta"`
	CallTheta float64 `csv:"call_theta"`
}

func newScenarioHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "Show journaled evaluations, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tr := app.Translator

			if limit < 1 {
				return invalidFlag("limit", FormatFixed(float64(limit), 0), "must be at least 1")
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			evals, err := st.GetEvaluations(cmd.Context(), name, limit)
			if err != nil {
				return err
			}
			if evals == nil {
				evals = []models.Evaluation{}
			}

			rows := make([]evaluationRow, len(evals))
			for i, e := range evals {
				rows[i] = evaluationRow{
					ID:        e.ID,
					Scenario:  e.Scenario,
					CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
					Spot:      e.Params.Spot,
					Strike:    e.Params.Strike,
					Days:      e.Params.Days(),
					CallPrice: e.Result.CallPrice,
					PutPrice:  e.Result.PutPrice,
					CallDelta: e.Result.CallDelta,
					CallTheta: e.Result.CallTheta,
				}
			}
			if ok, err := output.Emit(evals, rows); ok {
				return err
			}

			if len(evals) == 0 {
				output.Dim("No evaluations recorded yet.")
				return nil
			}

			table := NewTable(output, "When", "Scenario", "Spot", "Strike", tr.T(locale.DaysLeft),
				tr.T(locale.CallPrice), tr.T(locale.PutPrice), tr.T(locale.DeltaCall), tr.T(locale.Theta))
			for _, e := range evals {
				table.AddRow(FormatDateTime(e.CreatedAt),
					output.Cyan(e.Scenario),
					FormatFixed(e.Params.Spot, 2),
					FormatFixed(e.Params.Strike, 2),
					FormatDays(e.Params.TimeToExpiry),
					output.Green(FormatMoney(e.Result.CallPrice)),
					output.Red(FormatMoney(e.Result.PutPrice)),
					FormatFixed(e.Result.CallDelta, 3),
					FormatFixed(e.Result.CallTheta, 3))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultHistoryLimit, "maximum number of evaluations")
	return cmd
}
