package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Abramowitz & Stegun 26.2.17 coefficients. Absolute error < 7.5e-8.
const (
	cndA1 = 0.31938153
	cndA2 = -0.356563782
	cndA3 = 1.781477937
	cndA4 = -1.821255978
	cndA5 = 1.330274429
	cndP  = 0.2316419
	cndC  = 0.39894228
)

// NormCDF returns the standard normal cumulative distribution at x.
//
// The polynomial is only valid for x >= 0, so negative arguments evaluate the
// upper tail of |x| directly instead of computing 1 - NormCDF(-x). Both
// branches share t, which keeps NormCDF(x)+NormCDF(-x) == 1.
func NormCDF(x float64) float64 {
	if x >= 0 {
		t := 1.0 / (1.0 + cndP*x)
		return 1.0 - cndC*math.Exp(-x*x/2.0)*t*(t*(t*(t*(t*cndA5+cndA4)+cndA3)+cndA2)+cndA1)
	}
	t := 1.0 / (1.0 - cndP*x)
	return cndC * math.Exp(-x*x/2.0) * t * (t*(t*(t*(t*cndA5+cndA4)+cndA3)+cndA2) + cndA1)
}

// NormPDF returns the standard normal density at x.
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
