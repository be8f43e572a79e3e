package cache

import (
	"errors"
	"strings"
	"time"

	"GrowthWatch/internal/model"
)

// ErrMiss is returned when the store holds nothing for the requested key.
var ErrMiss = errors.New("cache miss")

// Coverage is the date range a ticker was last fetched for, and when.
type Coverage struct {
	From      time.Time
	To        time.Time
	FetchedAt time.Time
}

// Covers reports whether [from, to] lies inside the covered range.
func (c Coverage) Covers(from, to time.Time) bool {
	return !model.Day(from).Before(c.From) && !model.Day(to).After(c.To)
}

// merge extends c with [from, to] fetched at fetchedAt when the ranges touch,
// otherwise replaces it. The merged range takes the new fetch time only when
// every day of c that was not yet final at c.FetchedAt was fetched again;
// otherwise it keeps the older time so those days still expire.
func (c Coverage) merge(from, to, fetchedAt time.Time) Coverage {
	from, to = model.Day(from), model.Day(to)
	if c.From.IsZero() || from.After(c.To.AddDate(0, 0, 1)) || to.Before(c.From.AddDate(0, 0, -1)) {
		return Coverage{From: from, To: to, FetchedAt: fetchedAt}
	}
	stamp := fetchedAt
	if open := model.Day(c.FetchedAt); !c.To.Before(open) {
		if open.Before(c.From) {
			open = c.From
		}
		if from.After(open) || to.Before(c.To) {
			if c.FetchedAt.Before(stamp) {
				stamp = c.FetchedAt
			}
		}
	}
	if c.From.Before(from) {
		from = c.From
	}
	if c.To.After(to) {
		to = c.To
	}
	return Coverage{From: from, To: to, FetchedAt: stamp}
}

// Store persists price series, dividends and growth tables.
type Store interface {
	SaveSeries(s *model.PriceSeries, from, to time.Time) error
	LoadSeries(ticker string, from, to time.Time) (*model.PriceSeries, error)
	SeriesCoverage(ticker string) (Coverage, error)

	SaveDividends(ticker string, divs []model.Dividend, from, to, fetchedAt time.Time) error
	LoadDividends(ticker string, from, to time.Time) ([]model.Dividend, error)
	DividendCoverage(ticker string) (Coverage, error)

	SaveGrowthTable(t *model.GrowthTable) error
	LoadGrowthTable(reference time.Time, tickers []string) (*model.GrowthTable, error)

	Close() error
}

func tickersKey(tickers []string) string {
	return strings.Join(tickers, ",")
}
