package calculator

import (
	"fmt"
	"time"

	"GrowthWatch/internal/model"
)

var yieldWindow = model.Period{Name: "1y", Years: 1}

// DividendYield returns the dividends paid in the year ending at reference
// as a percentage of the last close on or before reference.
func DividendYield(dividends []model.Dividend, series *model.PriceSeries, reference time.Time) (float64, error) {
	reference = model.Day(reference)
	last, ok := series.Last(reference)
	if !ok {
		return 0, fmt.Errorf("%w: no close on or before %s", ErrEmptyRange, reference.Format(model.DateFormat))
	}
	if last.Close == 0 {
		return 0, fmt.Errorf("%w on %s", ErrDivisionByZero, last.Time.Format(model.DateFormat))
	}
	return 100 * TrailingDividends(dividends, reference) / last.Close, nil
}

// TrailingDividends sums the dividends paid after reference-1y up to reference.
func TrailingDividends(dividends []model.Dividend, reference time.Time) float64 {
	reference = model.Day(reference)
	start := ShiftDate(reference, yieldWindow)
	var sum float64
	for _, d := range dividends {
		day := model.Day(d.Date)
		if day.After(start) && !day.After(reference) {
			sum += d.Amount
		}
	}
	return sum
}
