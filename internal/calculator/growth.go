package calculator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"GrowthWatch/internal/model"
)

var (
	// ErrEmptyRange means no observation falls inside the requested window.
	ErrEmptyRange = errors.New("no observations in range")
	// ErrDivisionByZero means the first close of the window is zero.
	ErrDivisionByZero = errors.New("start price is zero")
	// ErrInsufficientHistory means the series starts too late to cover the window.
	// It wraps ErrEmptyRange so callers can treat both the same way.
	ErrInsufficientHistory = fmt.Errorf("history too short: %w", ErrEmptyRange)
)

// DefaultMaxStartGap is how far after the window start the first observation
// may fall before the history counts as too short. It absorbs weekends and
// exchange holidays.
const DefaultMaxStartGap = 7 * 24 * time.Hour

// CalculateGrowth returns the percentage change between the first and the last
// close of series within [start, end], both days inclusive.
func CalculateGrowth(series *model.PriceSeries, start, end time.Time) (float64, error) {
	bars := series.Between(start, end)
	if len(bars) == 0 {
		return 0, fmt.Errorf("%w: %s..%s", ErrEmptyRange, start.Format(model.DateFormat), end.Format(model.DateFormat))
	}
	first := bars[0].Close
	last := bars[len(bars)-1].Close
	if first == 0 {
		return 0, fmt.Errorf("%w on %s", ErrDivisionByZero, bars[0].Time.Format(model.DateFormat))
	}

	ratio := 100 * (last / first)
	if ratio < 100 {
		return -(100 - ratio), nil
	}
	return ratio - 100, nil
}

type compareOptions struct {
	maxStartGap time.Duration
}

// CompareOption tunes CompareGrowth.
type CompareOption func(*compareOptions)

// WithMaxStartGap overrides DefaultMaxStartGap. A negative gap disables the check.
func WithMaxStartGap(d time.Duration) CompareOption {
	return func(o *compareOptions) { o.maxStartGap = d }
}

// CompareGrowth computes the growth of every ticker over every period ending at
// reference. Cells that cannot be computed are left undefined with the reason;
// they never affect other cells. Rows follow the order of periods and cells
// the order of tickers.
func CompareGrowth(tickers []string, series map[string]*model.PriceSeries, reference time.Time, periods []model.Period, opts ...CompareOption) *model.GrowthTable {
	o := compareOptions{maxStartGap: DefaultMaxStartGap}
	for _, opt := range opts {
		opt(&o)
	}
	reference = model.Day(reference)

	starts := make([]time.Time, len(periods))
	for i, p := range periods {
		starts[i] = ShiftDate(reference, p)
	}

	// columns[t][p] is written only by the goroutine of ticker t.
	columns := make([][]model.Cell, len(tickers))
	var wg sync.WaitGroup
	for ti, ticker := range tickers {
		wg.Add(1)
		go func(ti int, ticker string) {
			defer wg.Done()
			col := make([]model.Cell, len(periods))
			for pi := range periods {
				col[pi] = growthCell(ticker, series[ticker], starts[pi], reference, o.maxStartGap)
			}
			columns[ti] = col
		}(ti, ticker)
	}
	wg.Wait()

	table := &model.GrowthTable{
		Reference: reference,
		Tickers:   append([]string(nil), tickers...),
		Rows:      make([]model.GrowthRow, len(periods)),
	}
	for pi, p := range periods {
		row := model.GrowthRow{Period: p, Start: starts[pi], Cells: make([]model.Cell, len(tickers))}
		for ti := range tickers {
			row.Cells[ti] = columns[ti][pi]
		}
		table.Rows[pi] = row
	}
	return table
}

func growthCell(ticker string, series *model.PriceSeries, start, end time.Time, maxGap time.Duration) model.Cell {
	cell := model.Cell{Ticker: ticker}
	if maxGap >= 0 {
		bars := series.Between(start, end)
		if len(bars) > 0 && bars[0].Time.Sub(start) > maxGap {
			cell.Reason = fmt.Sprintf("%v: first observation %s", ErrInsufficientHistory, bars[0].Time.Format(model.DateFormat))
			return cell
		}
	}
	growth, err := CalculateGrowth(series, start, end)
	if err != nil {
		cell.Reason = err.Error()
		return cell
	}
	cell.Growth = growth
	cell.Defined = true
	return cell
}
