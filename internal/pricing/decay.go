package pricing

import (
	"math"

	"optionflow/internal/models"
)

// Decay schedule policy.
const (
	// DecayPeriodDays is the length of one full schedule period.
	DecayPeriodDays = 30
	// MaxDecayPeriods bounds the schedule for very long-dated inputs.
	MaxDecayPeriods = 36
	// minScheduleYears stops the schedule once less than this much time remains.
	minScheduleYears = 0.001
	// minDecayBase is the smallest price a loss percentage is computed against.
	minDecayBase = 0.001
)

// Schedule projects month-by-month value erosion from today until expiry,
// holding spot, strike, rate and volatility fixed while time advances.
//
// result must be Price(p); it seeds the first period and is the base for
// cumulative loss percentages. Percentages are on a 0-100 scale and fall back
// to 0 when the base price is below minDecayBase.
func Schedule(p models.OptionParameters, result models.PricingResult) ([]models.DecayScheduleRow, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	step := DecayPeriodDays / DaysPerYear
	rows := make([]models.DecayScheduleRow, 0, scheduleLen(p.TimeToExpiry))

	currentT := p.TimeToExpiry
	prevCall, prevPut := result.CallPrice, result.PutPrice

	for index := 1; currentT > minScheduleYears && index <= MaxDecayPeriods; index++ {
		nextT := currentT - step
		days := DecayPeriodDays
		if nextT < 0 {
			days = int(math.Round(currentT * DaysPerYear))
			nextT = 0
		}
		if days <= 0 {
			break
		}

		next, err := Price(p.WithTime(nextT))
		if err != nil {
			return nil, err
		}

		callLoss := prevCall - next.CallPrice
		putLoss := prevPut - next.PutPrice

		rows = append(rows, models.DecayScheduleRow{
			PeriodLabel: models.PeriodLabel{
				Index: index,
				Days:  days,
				Final: nextT == 0 && days < DecayPeriodDays,
			},
			CallStart:      prevCall,
			CallEnd:        next.CallPrice,
			CallLoss:       callLoss,
			CallLossPct:    lossPct(callLoss, prevCall),
			CallCumLossPct: lossPct(result.CallPrice-next.CallPrice, result.CallPrice),
			PutStart:       prevPut,
			PutEnd:         next.PutPrice,
			PutLoss:        putLoss,
			PutLossPct:     lossPct(putLoss, prevPut),
			PutCumLossPct:  lossPct(result.PutPrice-next.PutPrice, result.PutPrice),
		})

		prevCall, prevPut = next.CallPrice, next.PutPrice
		currentT = nextT
	}

	return rows, nil
}

func lossPct(loss, base float64) float64 {
	if base > minDecayBase {
		return loss / base * 100
	}
	return 0
}

// scheduleLen estimates the row count for preallocation.
func scheduleLen(t float64) int {
	n := int(math.Ceil(t*DaysPerYear/DecayPeriodDays)) + 1
	if n > MaxDecayPeriods {
		return MaxDecayPeriods
	}
	if n < 0 {
		return 0
	}
	return n
}
