package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"GrowthWatch/internal/calculator"
	"GrowthWatch/internal/collector"
	"GrowthWatch/internal/config"
	"GrowthWatch/internal/model"
	"GrowthWatch/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron refresh and answers bot commands.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Sender     Sender // nil logs reports instead of sending them
	Watchlists []config.Watchlist
	Periods    []model.Period
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, sender Sender, watchlists []config.Watchlist, periods []model.Period) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Sender:     sender,
		Watchlists: watchlists,
		Periods:    periods,
		Ctx:        ctx,
	}
}

// Register registers the refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the refresh task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running growth refresh")
	for _, w := range s.Watchlists {
		report, err := s.growthReport(s.Ctx, w.Name, w.Tickers)
		if err != nil {
			log.Printf("[ERROR] refresh %s: %v", w.Name, err)
			s.trySend(fmt.Sprintf("❌ growth refresh %s failed: %v", w.Name, err))
			continue
		}
		s.trySend(report)
	}
}

func (s *Scheduler) growthReport(ctx context.Context, title string, tickers []string) (string, error) {
	table, err := s.Collector.Compare(ctx, tickers, time.Time{}, s.Periods)
	if err != nil {
		return "", err
	}
	report := notifier.FormatGrowthTable(title, table) + "\n" + notifier.FormatSummary(calculator.Summarize(table))
	return report, nil
}

func (s *Scheduler) dividendReport(ctx context.Context, tickers []string) string {
	lines := make([]notifier.DividendLine, 0, len(tickers))
	for _, t := range tickers {
		y, err := s.Collector.DividendYield(ctx, t, time.Time{})
		lines = append(lines, notifier.DividendLine{Ticker: t, Yield: y, Err: err})
	}
	return notifier.FormatDividendYields(lines)
}

// resolve turns command arguments into a title and tickers. A single argument
// naming a watchlist selects it; no argument selects every watchlist ticker.
func (s *Scheduler) resolve(args []string) (string, []string) {
	if len(args) == 1 {
		for _, w := range s.Watchlists {
			if strings.EqualFold(w.Name, args[0]) {
				return w.Name, w.Tickers
			}
		}
	}
	if len(args) == 0 {
		cfg := config.Config{Watchlists: s.Watchlists}
		return "watchlists", cfg.Tickers()
	}
	return "growth", config.SplitTickers(strings.Join(args, ","))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "/growth":
		title, tickers := s.resolve(args)
		report, err := s.growthReport(ctx, title, tickers)
		if err != nil {
			return fmt.Sprintf("❌ growth failed: %v", err)
		}
		return report
	case "/dividends":
		if len(args) == 0 {
			return "usage: /dividends TICKER [TICKER...]"
		}
		_, tickers := s.resolve(args)
		return s.dividendReport(ctx, tickers)
	case "/watchlists":
		var b strings.Builder
		for _, w := range s.Watchlists {
			b.WriteString(fmt.Sprintf("%s: %s\n", w.Name, strings.Join(w.Tickers, ", ")))
		}
		return b.String()
	default:
		return helpText
	}
}

const helpText = `Commands:
• /growth [WATCHLIST | TICKER...]
• /dividends WATCHLIST | TICKER...
• /watchlists`

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		log.Printf("[INFO] report:\n%s", text)
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
