package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"optionflow/internal/locale"
	"optionflow/internal/logging"
	"optionflow/internal/models"
	"optionflow/internal/performance"
	"optionflow/internal/pricing"
)

// addPricingCommands adds the price, decay, curve and ladder commands.
func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newDecayCmd(app))
	rootCmd.AddCommand(newCurveCmd(app))
	rootCmd.AddCommand(newLadderCmd(app))
}

// priceView is the structured output of the price command.
type priceView struct {
	Scenario  string                  `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Params    models.OptionParameters `json:"params" yaml:"params"`
	Days      float64                 `json:"days" yaml:"days"`
	Result    models.PricingResult    `json:"result" yaml:"result"`
	Moneyness models.Moneyness        `json:"moneyness" yaml:"moneyness"`
}

// priceRow is the flat CSV form of priceView.
type priceRow struct {
	Spot         float64          `csv:"spot"`
	Strike       float64          `csv:"strike"`
	TimeToExpiry float64          `csv:"time_to_expiry"`
	RiskFreeRate float64          `csv:"risk_free_rate"`
	Volatility   float64          `csv:"volatility"`
	Moneyness    models.Moneyness `csv:"moneyness"`
	CallPrice    float64          `csv:"call_price"`
	PutPrice     float64          `csv:"put_price"`
	CallDelta    float64          `csv:"call_delta"`
	PutDelta     float64          `csv:"put_delta"`
	Gamma        float64          `csv:"gamma"`
	CallTheta    float64          `csv:"call_theta"`
	PutTheta     float64          `csv:"put_theta"`
	Vega         float64          `csv:"vega"`
	CallRho      float64          `csv:"call_rho"`
	PutRho       float64          `csv:"put_rho"`
}

func newPriceRow(p models.OptionParameters, r models.PricingResult) priceRow {
	return priceRow{
		Spot:         p.Spot,
		Strike:       p.Strike,
		TimeToExpiry: p.TimeToExpiry,
		RiskFreeRate: p.RiskFreeRate,
		Volatility:   p.Volatility,
		Moneyness:    pricing.Classify(p.Spot, p.Strike),
		CallPrice:    r.CallPrice,
		PutPrice:     r.PutPrice,
		CallDelta:    r.CallDelta,
		PutDelta:     r.PutDelta,
		Gamma:        r.Gamma,
		CallTheta:    r.CallTheta,
		PutTheta:     r.PutTheta,
		Vega:         r.Vega,
		CallRho:      r.CallRho,
		PutRho:       r.PutRho,
	}
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a call and put with Greeks",
		Long: `Price a European call and put with the Black-Scholes model.

Inputs default to the [defaults] section of config.toml. A saved scenario
can be used as the starting point with --scenario; explicit flags win.`,
		Example: `  optionflow price
  optionflow price --spot 110 --strike 100 --days 45 --vol 0.3
  optionflow price --scenario leaps --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			p, scenario, err := resolveParams(cmd, app)
			if err != nil {
				return err
			}

			result, err := pricing.Price(p)
			if err != nil {
				return err
			}
			journal(cmd, app, scenario, p, result)

			view := priceView{
				Scenario:  scenario,
				Params:    p,
				Days:      p.Days(),
				Result:    result,
				Moneyness: pricing.Classify(p.Spot, p.Strike),
			}
			if ok, err := output.Emit(view, []priceRow{newPriceRow(p, result)}); ok {
				return err
			}

			displayPrice(output, app.Translator, view)
			return nil
		},
	}
	addParamFlags(cmd)
	return cmd
}

// journal logs an evaluation and records it against a named scenario.
func journal(cmd *cobra.Command, app *App, scenario string, p models.OptionParameters, r models.PricingResult) {
	logging.LogEvaluation(app.Logger, p, r)
	if scenario == "" {
		return
	}
	st, err := app.Store()
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Scenario store unavailable, evaluation not journaled")
		return
	}
	eval := &models.Evaluation{Scenario: scenario, Params: p, Result: r}
	if err := st.LogEvaluation(cmd.Context(), eval); err != nil {
		logger := logging.WithScenario(app.Logger, scenario)
		logger.Warn().Err(err).Msg("Failed to journal evaluation")
	}
}

func paramLines(tr *locale.Translator, p models.OptionParameters) []string {
	days := tr.Format(locale.ApproxDays, "days", FormatDays(p.TimeToExpiry))
	return []string{
		tr.T(locale.SpotPrice) + ": " + FormatFixed(p.Spot, 2),
		tr.T(locale.StrikePrice) + ": " + FormatFixed(p.Strike, 2),
		tr.T(locale.TimeToExp) + ": " + FormatFixed(p.TimeToExpiry, 2) + " (" + days + ")",
		tr.T(locale.Volatility) + ": " + FormatRate(p.Volatility),
		tr.T(locale.RiskFree) + ": " + FormatRate(p.RiskFreeRate),
	}
}

func displayPrice(output *Output, tr *locale.Translator, v priceView) {
	title := tr.T(locale.AppTitle) + " · " + tr.T(locale.AppSubtitle)
	if v.Scenario != "" {
		title += " [" + v.Scenario + "]"
	}
	output.Box(title, paramLines(tr, v.Params))
	output.Println()

	r := v.Result
	output.Printf("  %s  %s\n", output.Cyan(tr.T(locale.CallPrice)+":"), output.Green(FormatMoney(r.CallPrice)))
	output.Printf("  %s  %s\n", output.Magenta(tr.T(locale.PutPrice)+":"), output.Red(FormatMoney(r.PutPrice)))
	output.Printf("  %s  %s\n", tr.T(locale.Moneyness)+":", moneynessText(output, v.Moneyness))
	output.Println()

	call, put := r.CallGreeks(), r.PutGreeks()
	output.Bold("%s", tr.T(locale.GreeksTitle))
	table := NewTable(output, "", tr.T(locale.CallValue), tr.T(locale.PutValue), "")
	table.AddRow(tr.T(locale.DeltaCall)+" / "+tr.T(locale.DeltaPut),
		output.SignColor(call.Delta, FormatFixed(call.Delta, 3)),
		output.SignColor(put.Delta, FormatFixed(put.Delta, 3)),
		output.DimText(tr.T(locale.DeltaDesc)))
	table.AddRow(tr.T(locale.Theta),
		output.SignColor(call.Theta, FormatFixed(call.Theta, 3)),
		output.SignColor(put.Theta, FormatFixed(put.Theta, 3)),
		output.DimText(tr.T(locale.ThetaDesc)))
	table.AddRow(tr.T(locale.Gamma), FormatFixed(call.Gamma, 4), FormatFixed(put.Gamma, 4),
		output.DimText(tr.T(locale.GammaDesc)))
	table.AddRow(tr.T(locale.Vega), FormatFixed(call.Vega, 3), FormatFixed(put.Vega, 3),
		output.DimText(tr.T(locale.VegaDesc)))
	table.AddRow(tr.T(locale.Rho),
		output.SignColor(call.Rho, FormatFixed(call.Rho, 3)),
		output.SignColor(put.Rho, FormatFixed(put.Rho, 3)),
		"")
	table.Render()
}

func moneynessText(output *Output, m models.Moneyness) string {
	switch m {
	case models.InTheMoney:
		return output.Green(string(m))
	case models.OutOfTheMoney:
		return output.Red(string(m))
	default:
		return output.Yellow(string(m))
	}
}

// decayView is the structured output of the decay command.
type decayView struct {
	Params models.OptionParameters `json:"params" yaml:"params"`
	Result models.PricingResult    `json:"result" yaml:"result"`
	Rows   []decayRow              `json:"rows" yaml:"rows"`
}

// decayRow adds the rendered period label to a schedule row.
type decayRow struct {
	Label                   string `json:"label" yaml:"label"`
	models.DecayScheduleRow `yaml:",inline"`
}

// decayCSVRow is the flat CSV form of a decayRow.
type decayCSVRow struct {
	Label          string  `csv:"label"`
	Days           int     `csv:"days"`
	CallStart      float64 `csv:"call_start"`
	CallEnd        float64 `csv:"call_end"`
	CallLoss       float64 `csv:"call_loss"`
	CallLossPct    float64 `csv:"call_loss_pct"`
	CallCumLossPct float64 `csv:"call_cum_loss_pct"`
	PutStart       float64 `csv:"put_start"`
	PutEnd         float64 `csv:"put_end"`
	PutLoss        float64 `csv:"put_loss"`
	PutLossPct     float64 `csv:"put_loss_pct"`
	PutCumLossPct  float64 `csv:"put_cum_loss_pct"`
}

func newDecayCSVRow(row decayRow) decayCSVRow {
	return decayCSVRow{
		Label:          row.Label,
		Days:           row.Days,
		CallStart:      row.CallStart,
		CallEnd:        row.CallEnd,
		CallLoss:       row.CallLoss,
		CallLossPct:    row.CallLossPct,
		CallCumLossPct: row.CallCumLossPct,
		PutStart:       row.PutStart,
		PutEnd:         row.PutEnd,
		PutLoss:        row.PutLoss,
		PutLossPct:     row.PutLossPct,
		PutCumLossPct:  row.PutCumLossPct,
	}
}

func newDecayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Project month-by-month time decay",
		Long: `Project how call and put values erode month by month until expiry,
assuming the underlying price and volatility stay where they are.

Each row covers 30 days; the last row covers whatever is left.`,
		Example: `  optionflow decay --days 200
  optionflow decay --format csv > decay.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tr := app.Translator

			p, scenario, err := resolveParams(cmd, app)
			if err != nil {
				return err
			}
			result, err := pricing.Price(p)
			if err != nil {
				return err
			}
			journal(cmd, app, scenario, p, result)
			schedule, err := pricing.Schedule(p, result)
			if err != nil {
				return err
			}

			rows := make([]decayRow, 0, len(schedule))
			flat := make([]decayCSVRow, 0, len(schedule))
			for _, row := range schedule {
				r := decayRow{Label: tr.Period(row.PeriodLabel), DecayScheduleRow: row}
				rows = append(rows, r)
				flat = append(flat, newDecayCSVRow(r))
			}

			if ok, err := output.Emit(decayView{Params: p, Result: result, Rows: rows}, flat); ok {
				return err
			}

			displayDecay(output, tr, rows)
			return nil
		},
	}
	addParamFlags(cmd)
	return cmd
}

func displayDecay(output *Output, tr *locale.Translator, rows []decayRow) {
	output.Bold("%s", tr.T(locale.DecayTitle))
	output.Dim("%s", tr.T(locale.DecayNote))
	output.Println()

	if len(rows) == 0 {
		output.Warning("%s: 0", tr.T(locale.DaysLeft))
		return
	}

	headers := []string{
		tr.T(locale.Period), tr.T(locale.StartVal), tr.T(locale.EndVal),
		tr.T(locale.LossAmt), tr.T(locale.LossPct), tr.T(locale.CumLossPct),
	}

	output.Printf("%s\n", output.Cyan(tr.T(locale.CallDecay)))
	calls := NewTable(output, headers...)
	for _, row := range rows {
		calls.AddRow(row.Label,
			FormatMoney(row.CallStart),
			FormatMoney(row.CallEnd),
			output.Red(FormatLoss(row.CallLoss)),
			FormatLossPercent(row.CallLossPct),
			output.Red(FormatLossPercent(row.CallCumLossPct)))
	}
	calls.Render()
	output.Println()

	output.Printf("%s\n", output.Magenta(tr.T(locale.PutDecay)))
	puts := NewTable(output, headers...)
	for _, row := range rows {
		puts.AddRow(row.Label,
			FormatMoney(row.PutStart),
			FormatMoney(row.PutEnd),
			output.Red(FormatLoss(row.PutLoss)),
			FormatLossPercent(row.PutLossPct),
			output.Red(FormatLossPercent(row.PutCumLossPct)))
	}
	puts.Render()
}

// curveView is the structured output of the curve command.
type curveView struct {
	Mode    models.SweepMode        `json:"mode" yaml:"mode"`
	Params  models.OptionParameters `json:"params" yaml:"params"`
	Samples []models.CurveSample    `json:"samples" yaml:"samples"`
}

func newCurveCmd(app *App) *cobra.Command {
	var mode string
	var every int

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Sweep option value over time or underlying price",
		Long: `Sweep call and put values with their intrinsic values.

  --mode time    days to expiry from today down to zero (theta curve)
  --mode price   underlying from 50% to 150% of spot (delta curve)`,
		Example: `  optionflow curve --mode time
  optionflow curve --mode price --every 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tr := app.Translator

			sweep, ok := models.ParseSweepMode(mode)
			if !ok {
				return invalidFlag("mode", mode, "must be time or price")
			}
			if every < 1 {
				return invalidFlag("every", strconv.Itoa(every), "must be at least 1")
			}

			p, scenario, err := resolveParams(cmd, app)
			if err != nil {
				return err
			}
			samples, err := pricing.Sample(p, sweep)
			if err != nil {
				return err
			}
			if result, err := pricing.Price(p); err == nil {
				journal(cmd, app, scenario, p, result)
			}

			if ok, err := output.Emit(curveView{Mode: sweep, Params: p, Samples: samples}, samples); ok {
				return err
			}

			displayCurve(output, tr, sweep, samples, every)
			return nil
		},
	}
	addParamFlags(cmd)
	cmd.Flags().StringVar(&mode, "mode", "time", "sweep mode: time or price")
	cmd.Flags().IntVar(&every, "every", 1, "show every Nth sample in table output")
	return cmd
}

func displayCurve(output *Output, tr *locale.Translator, mode models.SweepMode, samples []models.CurveSample, every int) {
	title, xLabel, xPlaces := tr.T(locale.TimeDecayCurve), tr.T(locale.DaysLeft), int32(1)
	if mode == models.SweepPriceAction {
		title, xLabel, xPlaces = tr.T(locale.PriceActionCurve), tr.T(locale.UnderlyingPrice), 2
	}

	output.Bold("%s", title)
	table := NewTable(output, xLabel,
		tr.T(locale.CallValue), tr.T(locale.PutValue),
		tr.T(locale.IntrinsicCall), tr.T(locale.IntrinsicPut))
	for i, s := range samples {
		// The last sample is always shown so the expiry or high end is visible.
		if i%every != 0 && i != len(samples)-1 {
			continue
		}
		table.AddRow(FormatFixed(s.X, xPlaces),
			output.Green(FormatFixed(s.CallPrice, 2)),
			output.Red(FormatFixed(s.PutPrice, 2)),
			output.DimText(FormatFixed(s.IntrinsicCall, 2)),
			output.DimText(FormatFixed(s.IntrinsicPut, 2)))
	}
	table.Render()
}

// ladderView is the structured output of the ladder command.
type ladderView struct {
	Params models.OptionParameters `json:"params" yaml:"params"`
	Rows   []performance.LadderRow `json:"rows" yaml:"rows"`
}

// ladderRow is the flat CSV form of a ladder rung.
type ladderRow struct {
	Strike    float64          `csv:"strike"`
	Moneyness models.Moneyness `csv:"moneyness"`
	CallPrice float64          `csv:"call_price"`
	PutPrice  float64          `csv:"put_price"`
	CallDelta float64          `csv:"call_delta"`
	PutDelta  float64          `csv:"put_delta"`
	Gamma     float64          `csv:"gamma"`
	CallTheta float64          `csv:"call_theta"`
	PutTheta  float64          `csv:"put_theta"`
	Vega      float64          `csv:"vega"`
}

func newLadderCmd(app *App) *cobra.Command {
	var from, to, step float64

	cmd := &cobra.Command{
		Use:   "ladder",
		Short: "Price a range of strikes in parallel",
		Long: `Price calls and puts for every strike from --from to --to in --step
increments, holding the other inputs fixed. Strikes are evaluated on a
worker pool and printed in ascending order.`,
		Example: `  optionflow ladder --from 80 --to 120 --step 5
  optionflow ladder --scenario leaps --from 50 --to 150 --step 10 --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tr := app.Translator

			p, scenario, err := resolveParams(cmd, app)
			if err != nil {
				return err
			}
			strikes, err := performance.StrikeLadder(from, to, step)
			if err != nil {
				return err
			}

			rows, err := performance.EvaluateLadder(cmd.Context(), app.Pool(), p, strikes)
			if err != nil {
				return err
			}
			app.Logger.Debug().Int("strikes", len(rows)).Msg("Ladder evaluated")
			if result, err := pricing.Price(p); err == nil {
				journal(cmd, app, scenario, p, result)
			}

			flat := make([]ladderRow, len(rows))
			for i, row := range rows {
				r := row.Result
				flat[i] = ladderRow{
					Strike:    row.Strike,
					Moneyness: row.Moneyness,
					CallPrice: r.CallPrice,
					PutPrice:  r.PutPrice,
					CallDelta: r.CallDelta,
					PutDelta:  r.PutDelta,
					Gamma:     r.Gamma,
					CallTheta: r.CallTheta,
					PutTheta:  r.PutTheta,
					Vega:      r.Vega,
				}
			}
			if ok, err := output.Emit(ladderView{Params: p, Rows: rows}, flat); ok {
				return err
			}

			output.Bold("%s · %s %s", tr.T(locale.StrikePrice), tr.T(locale.SpotPrice), FormatFixed(p.Spot, 2))
			table := NewTable(output, "Strike", tr.T(locale.Moneyness),
				tr.T(locale.CallPrice), tr.T(locale.PutPrice),
				tr.T(locale.DeltaCall), tr.T(locale.DeltaPut),
				tr.T(locale.Gamma), tr.T(locale.Theta), tr.T(locale.Vega))
			for _, row := range flat {
				table.AddRow(FormatFixed(row.Strike, 2),
					moneynessText(output, row.Moneyness),
					output.Green(FormatMoney(row.CallPrice)),
					output.Red(FormatMoney(row.PutPrice)),
					FormatFixed(row.CallDelta, 3),
					FormatFixed(row.PutDelta, 3),
					FormatFixed(row.Gamma, 4),
					FormatFixed(row.CallTheta, 3),
					FormatFixed(row.Vega, 3))
			}
			table.Render()
			return nil
		},
	}
	addParamFlags(cmd)
	cmd.Flags().Float64Var(&from, "from", 0, "lowest strike")
	cmd.Flags().Float64Var(&to, "to", 0, "highest strike")
	cmd.Flags().Float64Var(&step, "step", 0, "strike increment")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("step")
	return cmd
}
