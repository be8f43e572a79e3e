package calculator

import (
	"time"

	"GrowthWatch/internal/model"
)

// ShiftDate subtracts period from the day of t. Year and month offsets keep
// the day of month, clamped to the length of the target month, so
// 2024-02-29 minus 1y is 2023-02-28 and 2023-03-31 minus 1mo is 2023-02-28.
func ShiftDate(t time.Time, p model.Period) time.Time {
	y, m, d := model.Day(t).Date()

	months := y*12 + int(m-1) - (p.Years*12 + p.Months)
	ny, nm := months/12, time.Month(months%12+1)
	if months < 0 && months%12 != 0 {
		ny--
		nm = time.Month(months%12 + 13)
	}

	if last := daysIn(ny, nm); d > last {
		d = last
	}
	return time.Date(ny, nm, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -p.Days)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Earliest returns the earliest window start among periods ending at reference.
func Earliest(reference time.Time, periods []model.Period) time.Time {
	earliest := model.Day(reference)
	for _, p := range periods {
		if s := ShiftDate(reference, p); s.Before(earliest) {
			earliest = s
		}
	}
	return earliest
}
