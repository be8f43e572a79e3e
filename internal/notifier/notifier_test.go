package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GrowthWatch/internal/calculator"
	"GrowthWatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *model.GrowthTable {
	t.Helper()
	p1, _ := model.ParsePeriod("1y")
	p2, _ := model.ParsePeriod("1mo")
	ref, err := model.ParseDate("2023-03-01")
	require.NoError(t, err)
	return &model.GrowthTable{
		Reference: ref,
		Tickers:   []string{"AAPL", "SPYD"},
		Rows: []model.GrowthRow{
			{Period: p1, Cells: []model.Cell{
				{Ticker: "AAPL", Growth: -12.3456, Defined: true},
				{Ticker: "SPYD", Growth: 4.5, Defined: true},
			}},
			{Period: p2, Cells: []model.Cell{
				{Ticker: "AAPL", Growth: 2, Defined: true},
				{Ticker: "SPYD", Reason: "history too short: no observations in range"},
			}},
		},
	}
}

func TestFormatGrowthTable(t *testing.T) {
	msg := FormatGrowthTable("stocks & etfs", sampleTable(t))

	assert.Contains(t, msg, "<b>stocks &amp; etfs</b> | 2023-03-01")
	assert.Contains(t, msg, "<pre>Ticker       1y      1mo\n")
	assert.Contains(t, msg, "AAPL     -12.3%    +2.0%\n")
	assert.Contains(t, msg, "SPYD      +4.5%      n/a\n")
	assert.Contains(t, msg, "</pre>")
}

func TestFormatGrowthTable_Empty(t *testing.T) {
	msg := FormatGrowthTable("empty", &model.GrowthTable{})
	assert.Contains(t, msg, "(no tickers)")
}

func TestFormatSummaryAndUndefined(t *testing.T) {
	table := sampleTable(t)
	msg := FormatSummary(calculator.Summarize(table))
	assert.Contains(t, msg, "1y: avg -3.9% ±11.9 | best SPYD +4.5% | worst AAPL -12.3%")
	assert.Contains(t, msg, "1mo: avg +2.0% ±0.0 | best AAPL +2.0% | worst AAPL +2.0%")

	assert.Equal(t, "• SPYD 1mo: history too short: no observations in range\n", FormatUndefined(table))
}

func TestFormatDividendYields(t *testing.T) {
	msg := FormatDividendYields([]DividendLine{
		{Ticker: "HDV", Yield: 3.456},
		{Ticker: "TSLA", Err: errors.New("no observations in range")},
	})
	assert.Contains(t, msg, "HDV: 3.46%\n")
	assert.Contains(t, msg, "TSLA: n/a (no observations in range)\n")
}

func TestWriteGrowthCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGrowthCSV(&buf, sampleTable(t)))
	assert.Equal(t, "period,AAPL,SPYD\n1y,-12.3456,4.5000\n1mo,2.0000,\n", buf.String())
}

func TestWriteGrowthText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGrowthText(&buf, sampleTable(t)))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"2023-03-01", "AAPL", "SPYD"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1y", "-12.35", "4.50"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1mo", "2.00", "n/a"}, strings.Fields(lines[2]))
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "99", "")
	n.BaseURL = srv.URL
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))

	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "99", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendWithRetryStopsOnCancel(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "99", "")
	n.BaseURL = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := n.SendWithRetry(ctx, "x", 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestTelegramNotifier_SendWithRetryNoRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "99", "")
	n.BaseURL = srv.URL
	err := n.SendWithRetry(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 retries exhausted")
}

func TestTelegramNotifier_StartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottok/getUpdates":
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /growth AAPL "}}]}`))
				return
			}
			<-r.Context().Done()
		case "/bottok/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "99", "")
	n.BaseURL = srv.URL

	commands := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, c string) string {
			commands <- c
			return "reply"
		})
		close(done)
	}()

	select {
	case r := <-replies:
		assert.Equal(t, "reply", r)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	assert.Equal(t, "/growth AAPL", <-commands)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}
