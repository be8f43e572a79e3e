package cache

import (
	"path/filepath"
	"testing"
	"time"

	"GrowthWatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SeriesRoundTrip(t *testing.T) {
	s := openStore(t)

	fetched := time.Unix(1700000000, 0)
	ps := model.NewPriceSeries("NVDA", []model.OHLCV{
		{Time: day(t, "2023-01-03"), Open: 14, High: 15, Low: 13.9, Close: 14.3, Volume: 400},
		{Time: day(t, "2023-01-04"), Open: 14.5, High: 14.9, Low: 14.1, Close: 14.7, Volume: 500},
		{Time: day(t, "2023-01-05"), Open: 14.6, High: 14.6, Low: 14.0, Close: 14.2, Volume: 300},
	})
	ps.FetchedAt = fetched
	require.NoError(t, s.SaveSeries(ps, day(t, "2023-01-01"), day(t, "2023-01-05")))

	got, err := s.LoadSeries("NVDA", day(t, "2023-01-04"), day(t, "2023-01-10"))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, ps.Bars[1:], got.Bars)
	assert.Equal(t, fetched, got.FetchedAt)

	cov, err := s.SeriesCoverage("NVDA")
	require.NoError(t, err)
	assert.Equal(t, day(t, "2023-01-01"), cov.From)
	assert.Equal(t, day(t, "2023-01-05"), cov.To)
	assert.True(t, cov.Covers(day(t, "2023-01-02"), day(t, "2023-01-05")))
	assert.False(t, cov.Covers(day(t, "2022-12-31"), day(t, "2023-01-05")))
}

func TestSQLiteStore_Miss(t *testing.T) {
	s := openStore(t)

	_, err := s.LoadSeries("NOPE", day(t, "2023-01-01"), day(t, "2023-02-01"))
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.SeriesCoverage("NOPE")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.LoadDividends("NOPE", day(t, "2023-01-01"), day(t, "2023-02-01"))
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.LoadGrowthTable(day(t, "2023-01-01"), []string{"NOPE"})
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSQLiteStore_CoverageMerges(t *testing.T) {
	s := openStore(t)
	save := func(from, to string) {
		ps := model.NewPriceSeries("KO", []model.OHLCV{{Time: day(t, from), Close: 60}})
		require.NoError(t, s.SaveSeries(ps, day(t, from), day(t, to)))
	}

	save("2023-01-01", "2023-01-31")
	save("2023-02-01", "2023-02-28")
	cov, err := s.SeriesCoverage("KO")
	require.NoError(t, err)
	assert.Equal(t, day(t, "2023-01-01"), cov.From)
	assert.Equal(t, day(t, "2023-02-28"), cov.To)

	// A disjoint range replaces the coverage, bars stay.
	save("2024-01-01", "2024-01-31")
	cov, err = s.SeriesCoverage("KO")
	require.NoError(t, err)
	assert.Equal(t, day(t, "2024-01-01"), cov.From)

	got, err := s.LoadSeries("KO", day(t, "2023-01-01"), day(t, "2024-12-31"))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestSQLiteStore_SaveSeriesIsIdempotent(t *testing.T) {
	s := openStore(t)
	ps := model.NewPriceSeries("IVV", []model.OHLCV{{Time: day(t, "2023-03-01"), Close: 400}})
	require.NoError(t, s.SaveSeries(ps, day(t, "2023-03-01"), day(t, "2023-03-01")))
	ps.Bars[0].Close = 401
	require.NoError(t, s.SaveSeries(ps, day(t, "2023-03-01"), day(t, "2023-03-01")))

	got, err := s.LoadSeries("IVV", day(t, "2023-03-01"), day(t, "2023-03-01"))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, 401.0, got.Bars[0].Close)
}

func TestSQLiteStore_Dividends(t *testing.T) {
	s := openStore(t)
	divs := []model.Dividend{
		{Date: day(t, "2023-03-20"), Amount: 0.4},
		{Date: day(t, "2023-06-20"), Amount: 0.5},
	}
	require.NoError(t, s.SaveDividends("VYM", divs, day(t, "2023-01-01"), day(t, "2023-12-31"), time.Unix(1700000000, 0)))

	got, err := s.LoadDividends("VYM", day(t, "2023-01-01"), day(t, "2023-12-31"))
	require.NoError(t, err)
	assert.Equal(t, divs, got)

	cov, err := s.DividendCoverage("VYM")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0), cov.FetchedAt)

	// Covered but empty window is not a miss.
	require.NoError(t, s.SaveDividends("GOOG", nil, day(t, "2023-01-01"), day(t, "2023-12-31"), time.Now()))
	got, err = s.LoadDividends("GOOG", day(t, "2023-01-01"), day(t, "2023-12-31"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStore_GrowthTableRoundTrip(t *testing.T) {
	s := openStore(t)
	p1, _ := model.ParsePeriod("1y")
	p2, _ := model.ParsePeriod("1mo")
	table := &model.GrowthTable{
		Reference: day(t, "2023-03-01"),
		Tickers:   []string{"VTI", "QQQ"},
		Rows: []model.GrowthRow{
			{Period: p1, Start: day(t, "2022-03-01"), Cells: []model.Cell{
				{Ticker: "VTI", Growth: -8.25, Defined: true},
				{Ticker: "QQQ", Growth: -12.5, Defined: true},
			}},
			{Period: p2, Start: day(t, "2023-02-01"), Cells: []model.Cell{
				{Ticker: "VTI", Growth: 1.25, Defined: true},
				{Ticker: "QQQ", Reason: "no observations in range"},
			}},
		},
	}
	require.NoError(t, s.SaveGrowthTable(table))
	require.NoError(t, s.SaveGrowthTable(table))

	got, err := s.LoadGrowthTable(day(t, "2023-03-01"), []string{"VTI", "QQQ"})
	require.NoError(t, err)
	assert.Equal(t, table, got)

	_, err = s.LoadGrowthTable(day(t, "2023-03-01"), []string{"QQQ", "VTI"})
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNoopStore(t *testing.T) {
	var s Store = NewNoopStore()
	assert.NoError(t, s.SaveSeries(&model.PriceSeries{}, time.Now(), time.Now()))
	_, err := s.LoadSeries("X", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.LoadGrowthTable(time.Now(), nil)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, s.Close())
}
