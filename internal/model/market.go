package model

import (
	"sort"
	"time"
)

// DateFormat is the layout used for dates in cache keys, CSV and the HTTP API.
const DateFormat = "2006-01-02"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the daily bars of one ticker, sorted ascending by date
// with at most one bar per date.
type PriceSeries struct {
	Ticker    string    `json:"ticker"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Dividend is a cash distribution paid on Date.
type Dividend struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Day truncates t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// NewPriceSeries builds a series from bars in any order. Bar times are
// truncated to their day; when two bars share a day the later one wins.
func NewPriceSeries(ticker string, bars []OHLCV) *PriceSeries {
	sorted := make([]OHLCV, len(bars))
	for i, b := range bars {
		b.Time = Day(b.Time)
		sorted[i] = b
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return &PriceSeries{Ticker: ticker, Bars: out}
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Between returns the bars whose day lies in [from, to], both inclusive.
func (s *PriceSeries) Between(from, to time.Time) []OHLCV {
	if s == nil {
		return nil
	}
	from, to = Day(from), Day(to)
	lo := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Time.Before(from) })
	hi := sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Time.After(to) })
	if lo >= hi {
		return nil
	}
	return s.Bars[lo:hi]
}

// Last returns the last bar on or before day.
func (s *PriceSeries) Last(day time.Time) (OHLCV, bool) {
	if s == nil {
		return OHLCV{}, false
	}
	day = Day(day)
	i := sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Time.After(day) })
	if i == 0 {
		return OHLCV{}, false
	}
	return s.Bars[i-1], true
}

// SortDividends orders dividends by date and truncates their times to the day.
func SortDividends(divs []Dividend) []Dividend {
	for i := range divs {
		divs[i].Date = Day(divs[i].Date)
	}
	sort.SliceStable(divs, func(i, j int) bool { return divs[i].Date.Before(divs[j].Date) })
	return divs
}
