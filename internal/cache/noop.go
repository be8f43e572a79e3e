package cache

import (
	"time"

	"GrowthWatch/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
// Every load misses and every save is dropped.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SaveSeries(_ *model.PriceSeries, _, _ time.Time) error { return nil }
func (n *NoopStore) LoadSeries(_ string, _, _ time.Time) (*model.PriceSeries, error) {
	return nil, ErrMiss
}
func (n *NoopStore) SeriesCoverage(_ string) (Coverage, error) { return Coverage{}, ErrMiss }
func (n *NoopStore) SaveDividends(_ string, _ []model.Dividend, _, _, _ time.Time) error {
	return nil
}
func (n *NoopStore) LoadDividends(_ string, _, _ time.Time) ([]model.Dividend, error) {
	return nil, ErrMiss
}
func (n *NoopStore) DividendCoverage(_ string) (Coverage, error) { return Coverage{}, ErrMiss }
func (n *NoopStore) SaveGrowthTable(_ *model.GrowthTable) error  { return nil }
func (n *NoopStore) LoadGrowthTable(_ time.Time, _ []string) (*model.GrowthTable, error) {
	return nil, ErrMiss
}
func (n *NoopStore) Close() error { return nil }
