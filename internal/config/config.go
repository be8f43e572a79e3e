package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"GrowthWatch/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Watchlist is a named group of tickers compared side by side.
type Watchlist struct {
	Name    string   `yaml:"name"`
	Tickers []string `yaml:"tickers"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, finance-go or mock
	} `yaml:"data_source"`
	Watchlists []Watchlist `yaml:"watchlists"`
	Growth     struct {
		Periods         []string `yaml:"periods"`
		MaxStartGapDays *int     `yaml:"max_start_gap_days"` // unset means 7, negative disables the check
	} `yaml:"growth"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Cache struct {
		MaxAge time.Duration `yaml:"max_age"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

const defaultMaxStartGapDays = 7

var defaultWatchlists = []Watchlist{
	{Name: "stocks", Tickers: []string{"AAPL", "MSFT", "TSLA", "KO", "INTC", "AMZN", "AMD", "PG", "META", "NVDA", "GOOG"}},
	{Name: "etfs", Tickers: []string{"VTI", "QQQ", "VIG", "HDV", "SPYD", "VYM", "VOO", "SPY", "IVV"}},
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// A missing .env is fine, variables may come from the real environment.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlists = []Watchlist{{Name: "env", Tickers: SplitTickers(v)}}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("CACHE_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.MaxAge = d
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if len(cfg.Watchlists) == 0 {
		cfg.Watchlists = append([]Watchlist(nil), defaultWatchlists...)
	}
	if len(cfg.Growth.Periods) == 0 {
		cfg.Growth.Periods = append([]string(nil), model.DefaultPeriodNames...)
	}
	if cfg.Growth.MaxStartGapDays == nil {
		days := defaultMaxStartGapDays
		cfg.Growth.MaxStartGapDays = &days
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 30 22 * * 1-5"
	}
	if cfg.Cache.MaxAge == 0 {
		cfg.Cache.MaxAge = 12 * time.Hour
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/growthwatch.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "finance-go", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, finance-go, mock", c.DataSource.Provider)
	}
	if len(c.Tickers()) == 0 {
		return fmt.Errorf("watchlists must name at least one ticker")
	}
	for _, w := range c.Watchlists {
		if w.Name == "" {
			return fmt.Errorf("watchlists: every watchlist needs a name")
		}
	}
	if _, err := c.Periods(); err != nil {
		return fmt.Errorf("growth.periods: %w", err)
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Periods parses the configured lookback periods in order.
func (c *Config) Periods() ([]model.Period, error) {
	return model.ParsePeriods(c.Growth.Periods)
}

// MaxStartGap returns the configured start gap, negative when disabled.
func (c *Config) MaxStartGap() time.Duration {
	days := defaultMaxStartGapDays
	if c.Growth.MaxStartGapDays != nil {
		days = *c.Growth.MaxStartGapDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// TelegramEnabled reports whether reports should be sent to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Tickers returns every watchlist ticker once, in watchlist order.
func (c *Config) Tickers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range c.Watchlists {
		for _, t := range w.Tickers {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Watchlist returns the watchlist with the given name.
func (c *Config) Watchlist(name string) (Watchlist, bool) {
	for _, w := range c.Watchlists {
		if strings.EqualFold(w.Name, name) {
			return w, true
		}
	}
	return Watchlist{}, false
}

// SplitTickers splits a comma or space separated ticker list and upper-cases it.
func SplitTickers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}
