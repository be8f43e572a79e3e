package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"GrowthWatch/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// at returns values[i] when Yahoo sent a number there. Missing entries and
// nulls report false.
func at(values []interface{}, i int) (float64, bool) {
	if i >= len(values) {
		return 0, false
	}
	v, ok := values[i].(float64)
	return v, ok
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, from, to time.Time) (*yahooChart, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(model.Day(from).Unix()))
	q.Set("period2", fmt.Sprint(model.Day(to).AddDate(0, 0, 1).Unix()))
	q.Set("events", "div")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	return &chart, nil
}

// FetchHistory returns daily bars between from and to. A symbol with no data
// yields an empty series rather than an error.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*model.PriceSeries, error) {
	chart, err := f.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	var bars []model.OHLCV
	for _, result := range chart.Chart.Result {
		if len(result.Indicators.Quote) == 0 {
			continue
		}
		quote := result.Indicators.Quote[0]
		for i, ts := range result.Timestamp {
			c, ok := at(quote.Close, i)
			if !ok {
				continue // holidays and the session still in progress carry no close
			}
			o, _ := at(quote.Open, i)
			h, _ := at(quote.High, i)
			l, _ := at(quote.Low, i)
			v, _ := at(quote.Volume, i)
			bars = append(bars, model.OHLCV{
				Time:   exchangeDay(ts, result.Meta.GMTOffset),
				Open:   o,
				High:   h,
				Low:    l,
				Close:  c,
				Volume: v,
			})
		}
	}
	series := model.NewPriceSeries(symbol, bars)
	series.FetchedAt = time.Now()
	return series, nil
}

// FetchDividends returns the dividends paid between from and to.
func (f *YahooFetcher) FetchDividends(ctx context.Context, symbol string, from, to time.Time) ([]model.Dividend, error) {
	chart, err := f.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	divs := []model.Dividend{}
	for _, result := range chart.Chart.Result {
		for _, d := range result.Events.Dividends {
			divs = append(divs, model.Dividend{
				Date:   exchangeDay(d.Date, result.Meta.GMTOffset),
				Amount: d.Amount,
			})
		}
	}
	return model.SortDividends(divs), nil
}
