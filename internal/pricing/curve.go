package pricing

import (
	"cmp"
	"math"
	"slices"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
)

// Curve sampling policy. Point counts are steps+1.
const (
	TimeSweepSteps  = 50
	PriceSweepSteps = 60
	// PriceSweepLow and PriceSweepHigh bound the spot sweep as multiples of spot.
	PriceSweepLow  = 0.5
	PriceSweepHigh = 1.5
	// MinSweepYears keeps the time sweep off the expiry branch.
	MinSweepYears = 1e-4
)

// Sample sweeps one parameter of p and prices every step. The result is
// always sorted ascending by X.
func Sample(p models.OptionParameters, mode models.SweepMode) ([]models.CurveSample, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	switch mode {
	case models.SweepTimeDecay:
		return sampleTime(p)
	case models.SweepPriceAction:
		return samplePrice(p)
	default:
		return nil, apperrors.NewValidationError("mode", mode, "unknown sweep mode")
	}
}

// sampleTime walks T down to zero. Intrinsic values do not depend on T.
func sampleTime(p models.OptionParameters) ([]models.CurveSample, error) {
	intrinsicCall, intrinsicPut := Intrinsic(p.Spot, p.Strike)
	samples := make([]models.CurveSample, 0, TimeSweepSteps+1)

	for i := 0; i <= TimeSweepSteps; i++ {
		t := p.TimeToExpiry * float64(TimeSweepSteps-i) / TimeSweepSteps

		res, err := Price(p.WithTime(math.Max(MinSweepYears, t)))
		if err != nil {
			return nil, err
		}
		samples = append(samples, models.CurveSample{
			X:             t * DaysPerYear,
			CallPrice:     res.CallPrice,
			PutPrice:      res.PutPrice,
			IntrinsicCall: intrinsicCall,
			IntrinsicPut:  intrinsicPut,
		})
	}

	slices.SortStableFunc(samples, func(a, b models.CurveSample) int {
		return cmp.Compare(a.X, b.X)
	})
	return samples, nil
}

// samplePrice walks spot across [PriceSweepLow*S, PriceSweepHigh*S] with T fixed.
func samplePrice(p models.OptionParameters) ([]models.CurveSample, error) {
	start := p.Spot * PriceSweepLow
	stepSize := (p.Spot*PriceSweepHigh - start) / PriceSweepSteps
	samples := make([]models.CurveSample, 0, PriceSweepSteps+1)

	for i := 0; i <= PriceSweepSteps; i++ {
		spot := start + float64(i)*stepSize

		res, err := Price(p.WithSpot(spot))
		if err != nil {
			return nil, err
		}
		intrinsicCall, intrinsicPut := Intrinsic(spot, p.Strike)
		samples = append(samples, models.CurveSample{
			X:             spot,
			CallPrice:     res.CallPrice,
			PutPrice:      res.PutPrice,
			IntrinsicCall: intrinsicCall,
			IntrinsicPut:  intrinsicPut,
		})
	}
	return samples, nil
}
