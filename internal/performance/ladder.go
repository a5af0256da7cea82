package performance

import (
	"context"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
)

// MaxLadderRungs bounds the number of strikes in one ladder.
const MaxLadderRungs = 500

// LadderRow is one strike priced independently of the others.
type LadderRow struct {
	Strike    float64              `json:"strike" yaml:"strike" csv:"strike"`
	Moneyness models.Moneyness     `json:"moneyness" yaml:"moneyness" csv:"moneyness"`
	Result    models.PricingResult `json:"result" yaml:"result" csv:"-"`
}

// StrikeLadder returns strikes from..to inclusive in step increments. Steps are
// accumulated in decimal so 0.1 increments do not drift.
func StrikeLadder(from, to, step float64) ([]float64, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{{"from", from}, {"to", to}, {"step", step}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return nil, apperrors.NewValidationError(f.name, f.value, "must be a finite number")
		}
	}

	switch {
	case from <= 0:
		return nil, apperrors.NewValidationError("from", from, "must be positive")
	case to < from:
		return nil, apperrors.NewValidationError("to", to, "must not be below from")
	case step <= 0:
		return nil, apperrors.NewValidationError("step", step, "must be positive")
	}

	start := decimal.NewFromFloat(from)
	end := decimal.NewFromFloat(to)
	inc := decimal.NewFromFloat(step)

	rungs := end.Sub(start).Div(inc).Floor().IntPart() + 1
	if rungs > MaxLadderRungs {
		return nil, apperrors.NewValidationError("step", step, "ladder has too many strikes")
	}

	strikes := make([]float64, 0, rungs)
	for k := start; k.LessThanOrEqual(end); k = k.Add(inc) {
		strikes = append(strikes, k.InexactFloat64())
	}
	return strikes, nil
}

// EvaluateLadder prices base at every strike on the pool and returns rows in
// strike order. Each rung is a separate single-option evaluation.
func EvaluateLadder(ctx context.Context, pool *WorkerPool, base models.OptionParameters, strikes []float64) ([]LadderRow, error) {
	if err := pricing.Validate(base); err != nil {
		return nil, err
	}

	rows := make([]LadderRow, len(strikes))
	errs := make([]error, len(strikes))

	var wg sync.WaitGroup
	for i, strike := range strikes {
		i, strike := i, strike
		wg.Add(1)
		err := pool.SubmitContext(ctx, func() {
			defer wg.Done()
			p := base
			p.Strike = strike
			res, err := pricing.Price(p)
			if err != nil {
				errs[i] = err
				return
			}
			rows[i] = LadderRow{
				Strike:    strike,
				Moneyness: pricing.Classify(p.Spot, strike),
				Result:    res,
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, apperrors.Wrap(err, "submitting ladder evaluation")
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}
