package calculator

import (
	"GrowthWatch/internal/model"

	"gonum.org/v1/gonum/stat"
)

// PeriodSummary aggregates the defined cells of one growth row.
type PeriodSummary struct {
	Period model.Period `json:"period"`
	Count  int          `json:"count"`
	Mean   float64      `json:"mean"`
	StdDev float64      `json:"stddev"`
	Best   model.Cell   `json:"best"`
	Worst  model.Cell   `json:"worst"`
}

// Summarize returns one summary per row of table. Rows without any defined
// cell have Count 0 and zero statistics.
func Summarize(table *model.GrowthTable) []PeriodSummary {
	out := make([]PeriodSummary, 0, len(table.Rows))
	for _, row := range table.Rows {
		s := PeriodSummary{Period: row.Period}
		values := make([]float64, 0, len(row.Cells))
		for _, c := range row.Cells {
			if !c.Defined {
				continue
			}
			if len(values) == 0 || c.Growth > s.Best.Growth {
				s.Best = c
			}
			if len(values) == 0 || c.Growth < s.Worst.Growth {
				s.Worst = c
			}
			values = append(values, c.Growth)
		}
		s.Count = len(values)
		if s.Count > 0 {
			s.Mean = stat.Mean(values, nil)
		}
		if s.Count > 1 {
			s.StdDev = stat.StdDev(values, nil)
		}
		out = append(out, s)
	}
	return out
}
