package collector

import (
	"context"
	"fmt"
	"time"

	"GrowthWatch/internal/model"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"
)

// FinanceGoFetcher implements Fetcher on top of the finance-go chart client.
// It only serves price history.
type FinanceGoFetcher struct{}

func NewFinanceGoFetcher() *FinanceGoFetcher { return &FinanceGoFetcher{} }

func (f *FinanceGoFetcher) Name() string { return "finance-go" }

func toDatetime(t time.Time) *datetime.Datetime {
	y, m, d := model.Day(t).Date()
	return &datetime.Datetime{Year: y, Month: int(m), Day: d}
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// chartBar converts a finance-go bar, placing it on its exchange trading day.
// finance-go decodes null prices as zero, so a bar without a positive close
// is dropped.
func chartBar(bar *finance.ChartBar, gmtOffset int) (model.OHLCV, bool) {
	c := decimalToFloat(bar.Close)
	if c <= 0 {
		return model.OHLCV{}, false
	}
	return model.OHLCV{
		Time:   exchangeDay(int64(bar.Timestamp), int64(gmtOffset)),
		Open:   decimalToFloat(bar.Open),
		High:   decimalToFloat(bar.High),
		Low:    decimalToFloat(bar.Low),
		Close:  c,
		Volume: float64(bar.Volume),
	}, true
}

func (f *FinanceGoFetcher) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*model.PriceSeries, error) {
	iter := chart.Get(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Interval: datetime.OneDay,
		Start:    toDatetime(from),
		End:      toDatetime(to.AddDate(0, 0, 1)),
	})

	var bars []model.OHLCV
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if bar, ok := chartBar(iter.Bar(), iter.Meta().Gmtoffset); ok {
			bars = append(bars, bar)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}

	series := model.NewPriceSeries(symbol, bars)
	series.FetchedAt = time.Now()
	return series, nil
}

func (f *FinanceGoFetcher) FetchDividends(_ context.Context, symbol string, _, _ time.Time) ([]model.Dividend, error) {
	return nil, fmt.Errorf("dividends for %s: %w", symbol, ErrUnsupported)
}
