package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"GrowthWatch/internal/calculator"
	"GrowthWatch/internal/collector"
	"GrowthWatch/internal/config"
	"GrowthWatch/internal/model"
	"GrowthWatch/internal/notifier"
	"GrowthWatch/internal/scheduler"
	"GrowthWatch/internal/server"

	"github.com/google/subcommands"
)

// parseDay parses an optional YYYY-MM-DD flag, zero when empty.
func parseDay(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(v)
}

// tickerArgs returns the positional tickers, or the watchlist tickers when none are given.
func (a *app) tickerArgs(f *flag.FlagSet, watchlist string) ([]string, error) {
	if watchlist != "" {
		w, ok := a.cfg.Watchlist(watchlist)
		if !ok {
			return nil, fmt.Errorf("unknown watchlist %q", watchlist)
		}
		return w.Tickers, nil
	}
	if f.NArg() > 0 {
		return config.SplitTickers(strings.Join(f.Args(), ",")), nil
	}
	return a.cfg.Tickers(), nil
}

type fetchCmd struct {
	from string
	to   string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download daily closes and dividends into the cache" }
func (*fetchCmd) Usage() string {
	return `fetch [-from YYYY-MM-DD] [-to YYYY-MM-DD] [TICKER...]

  Downloads daily bars and dividends for the tickers (default: every
  watchlist ticker) and stores them in the cache. The range defaults to the
  longest configured period ending today.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "first day of the range")
	f.StringVar(&c.to, "to", "", "last day of the range (default today)")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	to, err := parseDay(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		return subcommands.ExitUsageError
	}
	if to.IsZero() {
		to = model.Day(time.Now())
	}
	from, err := parseDay(c.from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		return subcommands.ExitUsageError
	}
	if from.IsZero() {
		periods, _ := a.cfg.Periods()
		from = calculator.Earliest(to, periods)
	}
	if from.After(to) {
		fmt.Fprintln(os.Stderr, "-from is after -to")
		return subcommands.ExitUsageError
	}

	tickers, _ := a.tickerArgs(f, "")
	status := subcommands.ExitSuccess
	for _, t := range tickers {
		s, err := a.collector.Series(ctx, t, from, to)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			status = subcommands.ExitFailure
			continue
		}
		divs, err := a.collector.Dividends(ctx, t, from, to)
		if err != nil && !errors.Is(err, collector.ErrUnsupported) {
			log.Printf("[WARN] %v", err)
		}
		last := "-"
		if n := s.Len(); n > 0 {
			b := s.Bars[n-1]
			last = fmt.Sprintf("%.2f on %s", b.Close, b.Time.Format(model.DateFormat))
		}
		fmt.Printf("%-6s %5d bars  %3d dividends  last close %s\n", t, s.Len(), len(divs), last)
	}
	return status
}

type compareCmd struct {
	date      string
	watchlist string
	periods   string
	csv       bool
	reasons   bool
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "print the trailing growth table of tickers" }
func (*compareCmd) Usage() string {
	return `compare [-date YYYY-MM-DD] [-w WATCHLIST] [-periods 5y,1y,...] [-csv] [TICKER...]

  Prints the percentage growth of each ticker over every lookback period
  ending at the reference date. Cells without enough data print as n/a.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "reference date (default today)")
	f.StringVar(&c.watchlist, "w", "", "compare the tickers of this watchlist")
	f.StringVar(&c.periods, "periods", "", "comma separated periods (default from config)")
	f.BoolVar(&c.csv, "csv", false, "write CSV instead of a text table")
	f.BoolVar(&c.reasons, "reasons", false, "list why undefined cells are undefined")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	reference, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date: %v\n", err)
		return subcommands.ExitUsageError
	}
	periods, err := a.cfg.Periods()
	if c.periods != "" {
		periods, err = model.ParsePeriods(strings.Split(c.periods, ","))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	tickers, err := a.tickerArgs(f, c.watchlist)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	table, err := a.collector.Compare(ctx, tickers, reference, periods)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.csv {
		err = notifier.WriteGrowthCSV(os.Stdout, table)
	} else {
		err = notifier.WriteGrowthText(os.Stdout, table)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.reasons {
		fmt.Fprint(os.Stderr, notifier.FormatUndefined(table))
	}
	return subcommands.ExitSuccess
}

type dividendsCmd struct {
	date string
}

func (*dividendsCmd) Name() string     { return "dividends" }
func (*dividendsCmd) Synopsis() string { return "print trailing twelve month dividend yields" }
func (*dividendsCmd) Usage() string {
	return `dividends [-date YYYY-MM-DD] [TICKER...]

  Prints the dividends paid in the year before the reference date as a
  percentage of the last close.
`
}

func (c *dividendsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "reference date (default today)")
}

func (c *dividendsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	reference, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date: %v\n", err)
		return subcommands.ExitUsageError
	}
	tickers, _ := a.tickerArgs(f, "")
	for _, t := range tickers {
		y, err := a.collector.DividendYield(ctx, t, reference)
		if err != nil {
			fmt.Printf("%-6s n/a (%v)\n", t, err)
			continue
		}
		fmt.Printf("%-6s %6.2f%%\n", t, y)
	}
	return subcommands.ExitSuccess
}

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the refresh schedule, Telegram bot and HTTP API" }
func (*serveCmd) Usage() string {
	return `serve [-addr :8080]

  Runs until SIGINT or SIGTERM. Set RUN_ON_START=true to refresh once at startup.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "HTTP listen address (default from config)")
}

func (c *serveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log.Println("[INFO] GrowthWatch starting...")
	a, err := setup()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	periods, err := a.cfg.Periods()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
		sender = tn
	} else {
		log.Println("[WARN] telegram not configured, reports go to the log")
	}

	sched := scheduler.NewScheduler(ctx, a.collector, sender, a.cfg.Watchlists, periods)
	if err := sched.Register(a.cfg.Schedule.RefreshCron); err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, refreshing now")
		go sched.RunNow()
	}

	addr := a.cfg.HTTP.Addr
	if c.addr != "" {
		addr = c.addr
	}
	srv := server.New(addr, a.collector, a.cfg.Watchlists, periods)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Println("[INFO] GrowthWatch is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	status := subcommands.ExitSuccess
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Printf("[ERROR] %v", err)
			status = subcommands.ExitFailure
		}
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] GrowthWatch stopped")
	return status
}
