package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a named calendar offset such as "5y" or "3mo".
type Period struct {
	Name   string
	Years  int
	Months int
	Days   int
}

// DefaultPeriodNames is the row order of a growth table unless configured otherwise.
var DefaultPeriodNames = []string{"5y", "3y", "1y", "6mo", "3mo", "1mo"}

// ParsePeriod parses "<n>y", "<n>mo", "<n>w" or "<n>d".
func ParsePeriod(s string) (Period, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	var unit string
	for _, u := range []string{"mo", "y", "w", "d"} {
		if strings.HasSuffix(name, u) {
			unit = u
			break
		}
	}
	if unit == "" {
		return Period{}, fmt.Errorf("unknown period %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(name, unit))
	if err != nil || n <= 0 {
		return Period{}, fmt.Errorf("unknown period %q", s)
	}
	p := Period{Name: name}
	switch unit {
	case "y":
		p.Years = n
	case "mo":
		p.Months = n
	case "w":
		p.Days = 7 * n
	case "d":
		p.Days = n
	}
	return p, nil
}

// ParsePeriods parses each name in order.
func ParsePeriods(names []string) ([]Period, error) {
	periods := make([]Period, 0, len(names))
	for _, n := range names {
		p, err := ParsePeriod(n)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// DefaultPeriods returns the 5y/3y/1y/6mo/3mo/1mo periods.
func DefaultPeriods() []Period {
	periods, _ := ParsePeriods(DefaultPeriodNames)
	return periods
}

func (p Period) String() string { return p.Name }

func (p Period) MarshalText() ([]byte, error) { return []byte(p.Name), nil }

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Cell is the growth of one ticker over one period. An undefined cell has
// Defined=false and the reason in Reason.
type Cell struct {
	Ticker  string  `json:"ticker"`
	Growth  float64 `json:"growth"`
	Defined bool    `json:"defined"`
	Reason  string  `json:"reason,omitempty"`
}

// GrowthRow holds the cells of one period, in table ticker order.
type GrowthRow struct {
	Period Period    `json:"period"`
	Start  time.Time `json:"start"`
	Cells  []Cell    `json:"cells"`
}

// GrowthTable is the growth of every ticker over every period, relative to Reference.
type GrowthTable struct {
	Reference time.Time   `json:"reference"`
	Tickers   []string    `json:"tickers"`
	Rows      []GrowthRow `json:"rows"`
}

// Cell returns the cell for the given period name and ticker.
func (t *GrowthTable) Cell(period, ticker string) (Cell, bool) {
	for _, r := range t.Rows {
		if r.Period.Name != period {
			continue
		}
		for _, c := range r.Cells {
			if c.Ticker == ticker {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// Periods returns the row periods in order.
func (t *GrowthTable) Periods() []Period {
	periods := make([]Period, len(t.Rows))
	for i, r := range t.Rows {
		periods[i] = r.Period
	}
	return periods
}
