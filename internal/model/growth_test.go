package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"5y", Period{Name: "5y", Years: 5}},
		{"6mo", Period{Name: "6mo", Months: 6}},
		{"1MO", Period{Name: "1mo", Months: 1}},
		{"2w", Period{Name: "2w", Days: 14}},
		{" 10d ", Period{Name: "10d", Days: 10}},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "y", "mo", "0y", "-1mo", "3q", "1.5y"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestDefaultPeriods(t *testing.T) {
	periods := DefaultPeriods()
	require.Len(t, periods, len(DefaultPeriodNames))
	for i, p := range periods {
		assert.Equal(t, DefaultPeriodNames[i], p.String())
	}
}

func TestGrowthTable_JSONUsesPeriodNames(t *testing.T) {
	p, _ := ParsePeriod("3mo")
	table := GrowthTable{
		Reference: mustDate(t, "2023-03-01"),
		Tickers:   []string{"VOO"},
		Rows:      []GrowthRow{{Period: p, Start: mustDate(t, "2022-12-01"), Cells: []Cell{{Ticker: "VOO", Growth: 1.5, Defined: true}}}},
	}
	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"period":"3mo"`)

	var back GrowthTable
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back.Rows[0].Period)
	c, ok := back.Cell("3mo", "VOO")
	require.True(t, ok)
	assert.Equal(t, 1.5, c.Growth)
	assert.Equal(t, []Period{p}, back.Periods())
}
