package collector

import (
	"context"
	"errors"
	"time"

	"GrowthWatch/internal/model"
)

// ErrUnsupported is returned by fetchers that cannot serve a request kind.
var ErrUnsupported = errors.New("not supported by data source")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*model.PriceSeries, error)
	FetchDividends(ctx context.Context, symbol string, from, to time.Time) ([]model.Dividend, error)
	Name() string
}

// exchangeDay maps a bar timestamp to its trading day in exchange local time,
// independent of the host time zone.
func exchangeDay(ts, gmtOffset int64) time.Time {
	return model.Day(time.Unix(ts+gmtOffset, 0).UTC())
}
