package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"GrowthWatch/internal/cache"
	"GrowthWatch/internal/calculator"
	"GrowthWatch/internal/model"
)

// Collector serves series and dividends cache-first and builds growth tables.
type Collector struct {
	Fetcher     Fetcher
	Store       cache.Store
	MaxAge      time.Duration // how long a fetch of a range reaching today stays fresh
	MaxStartGap time.Duration
	Now         func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store cache.Store, maxAge time.Duration) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Store:       store,
		MaxAge:      maxAge,
		MaxStartGap: calculator.DefaultMaxStartGap,
		Now:         time.Now,
	}
}

// fresh reports whether a cached range can serve [from, to]. Ranges ending
// before the fetch day are final and never expire.
func (c *Collector) fresh(cov cache.Coverage, from, to time.Time) bool {
	if !cov.Covers(from, to) {
		return false
	}
	if model.Day(to).Before(model.Day(cov.FetchedAt)) {
		return true
	}
	return c.Now().Sub(cov.FetchedAt) <= c.MaxAge
}

// Series returns the daily bars of ticker in [from, to].
func (c *Collector) Series(ctx context.Context, ticker string, from, to time.Time) (*model.PriceSeries, error) {
	cov, err := c.Store.SeriesCoverage(ticker)
	hit := err == nil
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		log.Printf("[WARN] series coverage %s: %v", ticker, err)
	}
	if hit && c.fresh(cov, from, to) {
		s, err := c.Store.LoadSeries(ticker, from, to)
		if err == nil {
			return s, nil
		}
		log.Printf("[WARN] load cached series %s: %v", ticker, err)
	}

	s, fetchErr := c.Fetcher.FetchHistory(ctx, ticker, from, to)
	if fetchErr != nil {
		if hit {
			if stale, err := c.Store.LoadSeries(ticker, from, to); err == nil && stale.Len() > 0 {
				log.Printf("[WARN] fetch %s from %s failed: %v, using cache from %s",
					ticker, c.Fetcher.Name(), fetchErr, cov.FetchedAt.Format("2006-01-02 15:04"))
				return stale, nil
			}
		}
		return nil, fmt.Errorf("fetch %s: %w", ticker, fetchErr)
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = c.Now()
	}
	if err := c.Store.SaveSeries(s, from, to); err != nil {
		log.Printf("[ERROR] cache series %s: %v", ticker, err)
	}
	return s, nil
}

// Dividends returns the dividends of ticker paid in [from, to].
func (c *Collector) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]model.Dividend, error) {
	cov, err := c.Store.DividendCoverage(ticker)
	hit := err == nil
	if hit && c.fresh(cov, from, to) {
		if divs, err := c.Store.LoadDividends(ticker, from, to); err == nil {
			return divs, nil
		}
	}

	divs, fetchErr := c.Fetcher.FetchDividends(ctx, ticker, from, to)
	if fetchErr != nil {
		if hit {
			if stale, err := c.Store.LoadDividends(ticker, from, to); err == nil {
				log.Printf("[WARN] fetch dividends %s failed: %v, using cache", ticker, fetchErr)
				return stale, nil
			}
		}
		return nil, fmt.Errorf("fetch dividends %s: %w", ticker, fetchErr)
	}
	if err := c.Store.SaveDividends(ticker, divs, from, to, c.Now()); err != nil {
		log.Printf("[ERROR] cache dividends %s: %v", ticker, err)
	}
	return divs, nil
}

// Compare builds the growth table of tickers at reference (today when zero).
// A ticker that cannot be fetched gets undefined cells carrying the fetch error.
// Tables for past reference days are final once every ticker was fetched, so
// they are stored and served from the cache.
func (c *Collector) Compare(ctx context.Context, tickers []string, reference time.Time, periods []model.Period) (*model.GrowthTable, error) {
	today := model.Day(c.Now())
	if reference.IsZero() {
		reference = today
	}
	reference = model.Day(reference)
	past := reference.Before(today)

	if past {
		t, err := c.Store.LoadGrowthTable(reference, tickers)
		switch {
		case err == nil && samePeriods(t.Periods(), periods):
			return t, nil
		case err != nil && !errors.Is(err, cache.ErrMiss):
			log.Printf("[WARN] load cached growth table: %v", err)
		}
	}
	from := calculator.Earliest(reference, periods)

	series := make(map[string]*model.PriceSeries, len(tickers))
	failed := make(map[string]error)
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := c.Series(ctx, t, from, reference)
		if err != nil {
			log.Printf("[WARN] %v", err)
			failed[t] = err
			continue
		}
		series[t] = s
	}

	table := calculator.CompareGrowth(tickers, series, reference, periods, calculator.WithMaxStartGap(c.MaxStartGap))
	for ri := range table.Rows {
		for ci, cell := range table.Rows[ri].Cells {
			if err, ok := failed[cell.Ticker]; ok {
				table.Rows[ri].Cells[ci].Reason = err.Error()
			}
		}
	}

	if past && len(failed) == 0 {
		if err := c.Store.SaveGrowthTable(table); err != nil {
			log.Printf("[ERROR] cache growth table: %v", err)
		}
	}
	return table, nil
}

func samePeriods(a, b []model.Period) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DividendYield returns the trailing one-year dividend yield of ticker at reference.
func (c *Collector) DividendYield(ctx context.Context, ticker string, reference time.Time) (float64, error) {
	if reference.IsZero() {
		reference = c.Now()
	}
	reference = model.Day(reference)
	// A couple of extra weeks so the last close before a holiday is present.
	from := reference.AddDate(-1, 0, -14)

	s, err := c.Series(ctx, ticker, from, reference)
	if err != nil {
		return 0, err
	}
	divs, err := c.Dividends(ctx, ticker, from, reference)
	if err != nil {
		return 0, err
	}
	return calculator.DividendYield(divs, s, reference)
}
