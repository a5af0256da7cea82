package pricing

import (
	"testing"

	"github.com/leanovate/gopter/prop"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
)

func TestSample_TimeDecay(t *testing.T) {
	p := defaultParams()
	samples, err := Sample(p, models.SweepTimeDecay)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}

	if len(samples) != TimeSweepSteps+1 {
		t.Fatalf("expected %d samples, got %d", TimeSweepSteps+1, len(samples))
	}
	if samples[0].X != 0 {
		t.Errorf("first sample should be at expiry, got x=%v", samples[0].X)
	}
	if !almostEqual(samples[len(samples)-1].X, 120, 1e-9) {
		t.Errorf("last sample should be today (120 days), got x=%v", samples[len(samples)-1].X)
	}

	today, _ := Price(p)
	last := samples[len(samples)-1]
	if !almostEqual(last.CallPrice, today.CallPrice, 1e-9) || !almostEqual(last.PutPrice, today.PutPrice, 1e-9) {
		t.Errorf("today's sample should match Price: got (%v, %v)", last.CallPrice, last.PutPrice)
	}
	for i, s := range samples {
		if s.IntrinsicCall != 0 || s.IntrinsicPut != 0 {
			t.Errorf("sample %d: ATM intrinsic should be zero", i)
		}
	}
}

func TestSample_PriceAction(t *testing.T) {
	p := defaultParams()
	samples, err := Sample(p, models.SweepPriceAction)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}

	if len(samples) != PriceSweepSteps+1 {
		t.Fatalf("expected %d samples, got %d", PriceSweepSteps+1, len(samples))
	}
	if !almostEqual(samples[0].X, 50, 1e-9) || !almostEqual(samples[len(samples)-1].X, 150, 1e-9) {
		t.Errorf("sweep range = [%v, %v], want [50, 150]", samples[0].X, samples[len(samples)-1].X)
	}

	mid := samples[PriceSweepSteps/2]
	if !almostEqual(mid.X, p.Spot, 1e-9) {
		t.Errorf("midpoint x = %v, want spot", mid.X)
	}
	for i, s := range samples {
		call, put := Intrinsic(s.X, p.Strike)
		if s.IntrinsicCall != call || s.IntrinsicPut != put {
			t.Errorf("sample %d intrinsic = (%v, %v), want (%v, %v)", i, s.IntrinsicCall, s.IntrinsicPut, call, put)
		}
		if i > 0 && s.CallPrice < samples[i-1].CallPrice-1e-6 {
			t.Errorf("call price should rise with spot at sample %d", i)
		}
	}
}

func TestSample_UnknownMode(t *testing.T) {
	_, err := Sample(defaultParams(), models.SweepMode("SIDEWAYS"))
	if !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSample_ExpiredTimeSweep(t *testing.T) {
	p := defaultParams()
	p.TimeToExpiry = 0

	samples, err := Sample(p, models.SweepTimeDecay)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if len(samples) != TimeSweepSteps+1 {
		t.Fatalf("expected %d samples, got %d", TimeSweepSteps+1, len(samples))
	}
	for _, s := range samples {
		if s.X != 0 {
			t.Fatalf("expired sweep should collapse onto x=0, got %v", s.X)
		}
	}
}

// Property: the time sweep has 51 strictly ascending points and the call never
// trades under intrinsic value.
func TestProperty_TimeSweepOrdering(t *testing.T) {
	properties := newProperties(100)

	properties.Property("time sweep ordering and no-arbitrage floor", prop.ForAll(
		func(p models.OptionParameters) bool {
			samples, err := Sample(p, models.SweepTimeDecay)
			if err != nil || len(samples) != TimeSweepSteps+1 {
				return false
			}
			for i, s := range samples {
				if i > 0 && s.X <= samples[i-1].X {
					t.Logf("x not strictly ascending at %d: %v <= %v", i, s.X, samples[i-1].X)
					return false
				}
				if s.CallPrice < s.IntrinsicCall-1e-4 {
					t.Logf("call under intrinsic at x=%v: %v < %v", s.X, s.CallPrice, s.IntrinsicCall)
					return false
				}
			}
			return true
		},
		paramsGen(),
	))

	properties.TestingRun(t)
}

// Property: with no carry the put respects its intrinsic floor too.
func TestProperty_ZeroRatePutFloor(t *testing.T) {
	properties := newProperties(100)

	properties.Property("put >= intrinsic when r = 0", prop.ForAll(
		func(p models.OptionParameters) bool {
			p.RiskFreeRate = 0
			samples, err := Sample(p, models.SweepTimeDecay)
			if err != nil {
				return false
			}
			for _, s := range samples {
				if s.PutPrice < s.IntrinsicPut-1e-4 {
					return false
				}
			}
			return true
		},
		paramsGen(),
	))

	properties.TestingRun(t)
}

// Property: the price sweep is ascending in spot and spans +/-50% of spot.
func TestProperty_PriceSweepRange(t *testing.T) {
	properties := newProperties(100)

	properties.Property("price sweep range", prop.ForAll(
		func(p models.OptionParameters) bool {
			samples, err := Sample(p, models.SweepPriceAction)
			if err != nil || len(samples) != PriceSweepSteps+1 {
				return false
			}
			for i := 1; i < len(samples); i++ {
				if samples[i].X <= samples[i-1].X {
					return false
				}
			}
			tol := 1e-9 * p.Spot
			return almostEqual(samples[0].X, p.Spot*PriceSweepLow, tol) &&
				almostEqual(samples[len(samples)-1].X, p.Spot*PriceSweepHigh, tol)
		},
		paramsGen(),
	))

	properties.TestingRun(t)
}
