// Package pricing implements closed-form Black-Scholes pricing for European
// options and the derived decay schedule and curve sweeps.
//
// Everything here is pure: no I/O, no logging, no shared mutable state. Callers
// are expected to recompute on every parameter change.
package pricing

import (
	"math"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
)

// DaysPerYear converts between calendar days and model years.
const DaysPerYear = 365.0

// Validate checks p against the model's domain. T == 0 is valid and takes the
// expiry branch in Price.
func Validate(p models.OptionParameters) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"time_to_expiry", p.TimeToExpiry},
		{"risk_free_rate", p.RiskFreeRate},
		{"volatility", p.Volatility},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.NewValidationError(f.name, f.value, "must be a finite number")
		}
	}

	if p.Spot <= 0 {
		return apperrors.NewValidationError("spot", p.Spot, "must be greater than 0")
	}
	if p.Strike <= 0 {
		return apperrors.NewValidationError("strike", p.Strike, "must be greater than 0")
	}
	if p.TimeToExpiry < 0 {
		return apperrors.NewValidationError("time_to_expiry", p.TimeToExpiry, "must not be negative")
	}
	if p.TimeToExpiry > 0 && p.Volatility <= 0 {
		return apperrors.NewValidationError("volatility", p.Volatility, "must be greater than 0 before expiry")
	}
	if math.Abs(p.RiskFreeRate*p.TimeToExpiry) > maxCarry {
		return apperrors.NewValidationError("risk_free_rate", p.RiskFreeRate, "rate times time to expiry is out of range")
	}
	if p.TimeToExpiry > 0 && math.IsInf(p.Volatility*p.Volatility*p.TimeToExpiry, 0) {
		return apperrors.NewValidationError("volatility", p.Volatility, "variance to expiry overflows")
	}
	return nil
}

// maxCarry bounds |r·T| so the discount factor exp(-r·T) stays finite.
const maxCarry = 700.0

// Price computes call/put prices and all Greeks for p in one pass.
//
// Theta is per calendar day. Vega and rho are per one percentage point of
// volatility and rate respectively.
func Price(p models.OptionParameters) (models.PricingResult, error) {
	if err := Validate(p); err != nil {
		return models.PricingResult{}, err
	}
	if p.TimeToExpiry == 0 {
		return expired(p), nil
	}

	S, K, T, r, sigma := p.Spot, p.Strike, p.TimeToExpiry, p.RiskFreeRate, p.Volatility

	sqrtT := math.Sqrt(T)
	volSqrtT := sigma * sqrtT

	d1 := (math.Log(S/K) + (r+sigma*sigma/2.0)*T) / volSqrtT
	d2 := d1 - volSqrtT

	nd1 := NormCDF(d1)
	nd2 := NormCDF(d2)
	nnd1 := NormCDF(-d1)
	nnd2 := NormCDF(-d2)
	pd1 := NormPDF(d1)

	discount := math.Exp(-r * T)
	decay := -(S * pd1 * sigma) / (2 * sqrtT)

	res := models.PricingResult{
		// Deep out of the money the CDF approximation can leave a price a few
		// ulps under zero.
		CallPrice: math.Max(0, S*nd1-K*discount*nd2),
		PutPrice:  math.Max(0, K*discount*nnd2-S*nnd1),
		CallDelta: nd1,
		PutDelta:  nd1 - 1,
		Gamma:     pd1 / (S * volSqrtT),
		Vega:      S * pd1 * sqrtT / 100,
		CallTheta: (decay - r*K*discount*nd2) / DaysPerYear,
		PutTheta:  (decay + r*K*discount*nnd2) / DaysPerYear,
		CallRho:   K * T * discount * nd2 / 100,
		PutRho:    -K * T * discount * nnd2 / 100,
	}
	if !finite(res) {
		return models.PricingResult{}, apperrors.NewValidationError("parameters", p, "inputs are too extreme to price")
	}
	return res, nil
}

// finite reports whether every price and Greek in r is a finite number.
func finite(r models.PricingResult) bool {
	for _, v := range []float64{
		r.CallPrice, r.PutPrice, r.CallDelta, r.PutDelta, r.Gamma,
		r.Vega, r.CallTheta, r.PutTheta, r.CallRho, r.PutRho,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// expired prices an option at expiry: intrinsic value, step deltas, no other Greeks.
func expired(p models.OptionParameters) models.PricingResult {
	call, put := Intrinsic(p.Spot, p.Strike)
	res := models.PricingResult{CallPrice: call, PutPrice: put}
	if p.Spot > p.Strike {
		res.CallDelta = 1
	}
	if p.Spot < p.Strike {
		res.PutDelta = -1
	}
	return res
}

// Intrinsic returns the immediate-exercise payoff of the call and the put.
func Intrinsic(spot, strike float64) (call, put float64) {
	return math.Max(0, spot-strike), math.Max(0, strike-spot)
}

// atmBand is the relative distance from strike still treated as at the money.
const atmBand = 0.01

// Classify reports the call's moneyness at the given spot and strike.
func Classify(spot, strike float64) models.Moneyness {
	if strike > 0 && math.Abs(spot-strike)/strike <= atmBand {
		return models.AtTheMoney
	}
	if spot > strike {
		return models.InTheMoney
	}
	return models.OutOfTheMoney
}
