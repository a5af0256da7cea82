package models

import "time"

// OptionParameters holds the five Black-Scholes inputs for a single evaluation.
type OptionParameters struct {
	Spot         float64 `json:"spot" yaml:"spot"`                     // S
	Strike       float64 `json:"strike" yaml:"strike"`                 // K
	TimeToExpiry float64 `json:"time_to_expiry" yaml:"time_to_expiry"` // T, years
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"` // r, continuously compounded
	Volatility   float64 `json:"volatility" yaml:"volatility"`         // sigma, annualized
}

// WithTime returns a copy of p with a different time to expiry.
func (p OptionParameters) WithTime(t float64) OptionParameters {
	p.TimeToExpiry = t
	return p
}

// WithSpot returns a copy of p with a different underlying price.
func (p OptionParameters) WithSpot(s float64) OptionParameters {
	p.Spot = s
	return p
}

// Days returns the time to expiry expressed in calendar days.
func (p OptionParameters) Days() float64 {
	return p.TimeToExpiry * 365
}

// PricingResult represents call/put prices and Greeks for one parameter set.
type PricingResult struct {
	CallPrice float64 `json:"call_price" yaml:"call_price"`
	PutPrice  float64 `json:"put_price" yaml:"put_price"`
	CallDelta float64 `json:"call_delta" yaml:"call_delta"`
	PutDelta  float64 `json:"put_delta" yaml:"put_delta"`
	Gamma     float64 `json:"gamma" yaml:"gamma"`
	CallTheta float64 `json:"call_theta" yaml:"call_theta"` // per calendar day
	PutTheta  float64 `json:"put_theta" yaml:"put_theta"`   // per calendar day
	Vega      float64 `json:"vega" yaml:"vega"`             // per 1 vol point
	CallRho   float64 `json:"call_rho" yaml:"call_rho"`     // per 1 rate point
	PutRho    float64 `json:"put_rho" yaml:"put_rho"`       // per 1 rate point
}

// OptionGreeks represents the Greeks of a single side.
type OptionGreeks struct {
	Delta float64 `json:"delta" yaml:"delta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
	Theta float64 `json:"theta" yaml:"theta"`
	Vega  float64 `json:"vega" yaml:"vega"`
	Rho   float64 `json:"rho" yaml:"rho"`
}

// CallGreeks returns the call-side view of the result.
func (r PricingResult) CallGreeks() OptionGreeks {
	return OptionGreeks{Delta: r.CallDelta, Gamma: r.Gamma, Theta: r.CallTheta, Vega: r.Vega, Rho: r.CallRho}
}

// PutGreeks returns the put-side view of the result.
func (r PricingResult) PutGreeks() OptionGreeks {
	return OptionGreeks{Delta: r.PutDelta, Gamma: r.Gamma, Theta: r.PutTheta, Vega: r.Vega, Rho: r.PutRho}
}

// PeriodLabel identifies a decay period without committing to a language.
// Final is set for the trailing partial period shorter than a full month.
type PeriodLabel struct {
	Index int  `json:"period" yaml:"period" csv:"period"`
	Days  int  `json:"days" yaml:"days" csv:"days"`
	Final bool `json:"final" yaml:"final" csv:"final"`
}

// DecayScheduleRow is one ~30 day period of projected value erosion.
// Percentages are on a 0-100 scale.
type DecayScheduleRow struct {
	PeriodLabel `yaml:",inline"`

	CallStart      float64 `json:"call_start" yaml:"call_start" csv:"call_start"`
	CallEnd        float64 `json:"call_end" yaml:"call_end" csv:"call_end"`
	CallLoss       float64 `json:"call_loss" yaml:"call_loss" csv:"call_loss"`
	CallLossPct    float64 `json:"call_loss_pct" yaml:"call_loss_pct" csv:"call_loss_pct"`
	CallCumLossPct float64 `json:"call_cum_loss_pct" yaml:"call_cum_loss_pct" csv:"call_cum_loss_pct"`

	PutStart      float64 `json:"put_start" yaml:"put_start" csv:"put_start"`
	PutEnd        float64 `json:"put_end" yaml:"put_end" csv:"put_end"`
	PutLoss       float64 `json:"put_loss" yaml:"put_loss" csv:"put_loss"`
	PutLossPct    float64 `json:"put_loss_pct" yaml:"put_loss_pct" csv:"put_loss_pct"`
	PutCumLossPct float64 `json:"put_cum_loss_pct" yaml:"put_cum_loss_pct" csv:"put_cum_loss_pct"`
}

// SweepMode selects which parameter a curve sweeps.
type SweepMode string

const (
	SweepTimeDecay   SweepMode = "TIME_DECAY"
	SweepPriceAction SweepMode = "PRICE_ACTION"
)

// ParseSweepMode accepts the canonical names and the short CLI aliases.
func ParseSweepMode(s string) (SweepMode, bool) {
	switch s {
	case "TIME_DECAY", "time", "time-decay", "theta":
		return SweepTimeDecay, true
	case "PRICE_ACTION", "price", "price-action", "delta":
		return SweepPriceAction, true
	}
	return "", false
}

// CurveSample is one point on a swept price curve.
// X is days to expiry for SweepTimeDecay and the underlying price for SweepPriceAction.
type CurveSample struct {
	X             float64 `json:"x" yaml:"x" csv:"x"`
	CallPrice     float64 `json:"call_price" yaml:"call_price" csv:"call_price"`
	PutPrice      float64 `json:"put_price" yaml:"put_price" csv:"put_price"`
	IntrinsicCall float64 `json:"intrinsic_call" yaml:"intrinsic_call" csv:"intrinsic_call"`
	IntrinsicPut  float64 `json:"intrinsic_put" yaml:"intrinsic_put" csv:"intrinsic_put"`
}

// Moneyness classifies spot against strike from the call's perspective.
type Moneyness string

const (
	InTheMoney    Moneyness = "ITM"
	AtTheMoney    Moneyness = "ATM"
	OutOfTheMoney Moneyness = "OTM"
)

// Scenario is a named, saved parameter set.
type Scenario struct {
	Name      string           `json:"name" yaml:"name"`
	Params    OptionParameters `json:"params" yaml:"params"`
	Notes     string           `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" yaml:"updated_at"`
}

// Evaluation is a journaled pricing run.
type Evaluation struct {
	ID        string           `json:"id" yaml:"id"`
	Scenario  string           `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Params    OptionParameters `json:"params" yaml:"params"`
	Result    PricingResult    `json:"result" yaml:"result"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
}
