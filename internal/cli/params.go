package cli

import (
	"github.com/spf13/cobra"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
)

// addParamFlags registers the pricing input flags on cmd.
func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("spot", 0, "underlying price (S)")
	cmd.Flags().Float64("strike", 0, "strike price (K)")
	cmd.Flags().Float64("days", 0, "calendar days to expiry (overrides --years)")
	cmd.Flags().Float64("years", 0, "time to expiry in years (T)")
	cmd.Flags().Float64("rate", 0, "risk-free rate as a decimal, e.g. 0.0365")
	cmd.Flags().Float64("vol", 0, "annualized volatility as a decimal, e.g. 0.25")
	cmd.Flags().String("scenario", "", "start from a saved scenario")
}

// resolveParams merges the configured defaults, an optional saved scenario and
// any flags the user set. It returns the scenario name when one was used.
func resolveParams(cmd *cobra.Command, app *App) (models.OptionParameters, string, error) {
	p := app.Config.Defaults.Params()

	name, _ := cmd.Flags().GetString("scenario")
	if name != "" {
		st, err := app.Store()
		if err != nil {
			return p, "", err
		}
		sc, err := st.GetScenario(cmd.Context(), name)
		if err != nil {
			return p, "", err
		}
		p = sc.Params
		name = sc.Name
	}

	flags := cmd.Flags()
	if flags.Changed("spot") {
		p.Spot, _ = flags.GetFloat64("spot")
	}
	if flags.Changed("strike") {
		p.Strike, _ = flags.GetFloat64("strike")
	}
	if flags.Changed("years") {
		p.TimeToExpiry, _ = flags.GetFloat64("years")
	}
	if flags.Changed("days") {
		days, _ := flags.GetFloat64("days")
		p.TimeToExpiry = days / pricing.DaysPerYear
	}
	if flags.Changed("rate") {
		p.RiskFreeRate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("vol") {
		p.Volatility, _ = flags.GetFloat64("vol")
	}

	return p, name, pricing.Validate(p)
}

// invalidFlag reports a bad flag value the same way parameter validation does.
func invalidFlag(flag, value, message string) error {
	return apperrors.NewValidationError(flag, value, message)
}
