package calculator

import (
	"testing"

	"GrowthWatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftDate(t *testing.T) {
	tests := []struct {
		ref    string
		period string
		want   string
	}{
		{"2024-02-29", "1y", "2023-02-28"},
		{"2024-02-29", "4y", "2020-02-29"},
		{"2023-03-01", "1mo", "2023-02-01"},
		{"2023-03-31", "1mo", "2023-02-28"},
		{"2024-03-31", "1mo", "2024-02-29"},
		{"2023-05-31", "6mo", "2022-11-30"},
		{"2023-01-15", "3mo", "2022-10-15"},
		{"2023-12-31", "3mo", "2023-09-30"},
		{"2023-03-01", "5y", "2018-03-01"},
		{"2023-03-01", "2w", "2023-02-15"},
		{"2023-03-01", "1d", "2023-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.ref+"-"+tt.period, func(t *testing.T) {
			p, err := model.ParsePeriod(tt.period)
			require.NoError(t, err)
			assert.Equal(t, date(t, tt.want), ShiftDate(date(t, tt.ref), p))
		})
	}
}

func TestEarliest(t *testing.T) {
	ref := date(t, "2023-03-01")
	assert.Equal(t, date(t, "2018-03-01"), Earliest(ref, model.DefaultPeriods()))
	assert.Equal(t, ref, Earliest(ref, nil))
}
