package collector

import (
	"context"
	"sync"
	"time"

	"GrowthWatch/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars      map[string][]model.OHLCV
	Dividends map[string][]model.Dividend
	Err       error            // returned for every symbol
	Errs      map[string]error // returned for one symbol
	// Price seeds a generated daily series for symbols missing from Bars.
	Price float64

	mu            sync.Mutex
	HistoryCalls  int
	DividendCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) err(symbol string) error {
	if m.Err != nil {
		return m.Err
	}
	return m.Errs[symbol]
}

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, from, to time.Time) (*model.PriceSeries, error) {
	m.mu.Lock()
	m.HistoryCalls++
	m.mu.Unlock()
	if err := m.err(symbol); err != nil {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok && m.Price > 0 {
		bars = generateMockBars(m.Price, from, to)
	}
	series := model.NewPriceSeries(symbol, bars)
	series.Bars = append([]model.OHLCV(nil), series.Between(from, to)...)
	series.FetchedAt = time.Now()
	return series, nil
}

func (m *MockFetcher) FetchDividends(_ context.Context, symbol string, from, to time.Time) ([]model.Dividend, error) {
	m.mu.Lock()
	m.DividendCalls++
	m.mu.Unlock()
	if err := m.err(symbol); err != nil {
		return nil, err
	}
	from, to = model.Day(from), model.Day(to)
	out := []model.Dividend{}
	for _, d := range m.Dividends[symbol] {
		day := model.Day(d.Date)
		if !day.Before(from) && !day.After(to) {
			out = append(out, d)
		}
	}
	return model.SortDividends(out), nil
}

// generateMockBars produces one weekday bar per day with a slow upward drift.
func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := model.Day(from); !d.After(model.Day(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
