package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"GrowthWatch/internal/cache"
	"GrowthWatch/internal/collector"
	"GrowthWatch/internal/config"
	"GrowthWatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.sent = append(r.sent, text)
	return r.err
}

func newTestScheduler(t *testing.T, f *collector.MockFetcher, sender Sender) *Scheduler {
	t.Helper()
	col := collector.NewCollector(f, cache.NewNoopStore(), time.Hour)
	periods, err := model.ParsePeriods([]string{"1y", "1mo"})
	require.NoError(t, err)
	watchlists := []config.Watchlist{
		{Name: "stocks", Tickers: []string{"AAPL", "MSFT"}},
		{Name: "etfs", Tickers: []string{"VOO"}},
	}
	return NewScheduler(context.Background(), col, sender, watchlists, periods)
}

func TestScheduler_RunNowSendsOneReportPerWatchlist(t *testing.T) {
	sender := &recordingSender{}
	s := newTestScheduler(t, &collector.MockFetcher{Price: 100}, sender)

	s.RunNow()

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0], "<b>stocks</b>")
	assert.Contains(t, sender.sent[0], "AAPL")
	assert.Contains(t, sender.sent[0], "MSFT")
	assert.Contains(t, sender.sent[0], "Summary")
	assert.Contains(t, sender.sent[1], "<b>etfs</b>")
	assert.Contains(t, sender.sent[1], "VOO")
}

func TestScheduler_RunNowWithoutSender(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Price: 100}, nil)
	assert.NotPanics(t, s.RunNow)
}

func TestScheduler_SendErrorDoesNotStopRefresh(t *testing.T) {
	sender := &recordingSender{err: errors.New("telegram down")}
	s := newTestScheduler(t, &collector.MockFetcher{Price: 100}, sender)
	s.RunNow()
	assert.Len(t, sender.sent, 2)
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, nil)
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))
}

func TestScheduler_HandleCommand(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Price: 100}, nil)
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/growth")
	assert.Contains(t, reply, "<b>watchlists</b>")
	assert.Contains(t, reply, "VOO")

	reply = s.HandleCommand(ctx, "/growth ETFS")
	assert.Contains(t, reply, "<b>etfs</b>")
	assert.NotContains(t, reply, "AAPL")

	reply = s.HandleCommand(ctx, "/growth nvda amd")
	assert.Contains(t, reply, "NVDA")
	assert.Contains(t, reply, "AMD")

	reply = s.HandleCommand(ctx, "/dividends")
	assert.Contains(t, reply, "usage")

	reply = s.HandleCommand(ctx, "/dividends ko")
	assert.Contains(t, reply, "KO: 0.00%")

	reply = s.HandleCommand(ctx, "/watchlists")
	assert.Contains(t, reply, "stocks: AAPL, MSFT")

	assert.Equal(t, helpText, s.HandleCommand(ctx, "hello"))
	assert.Equal(t, helpText, s.HandleCommand(ctx, "   "))
}
