package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"GrowthWatch/internal/cache"
	"GrowthWatch/internal/collector"
	"GrowthWatch/internal/config"

	"github.com/google/subcommands"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&fetchCmd{}, "")
	commander.Register(&compareCmd{}, "")
	commander.Register(&dividendsCmd{}, "")
	commander.Register(&serveCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// app holds the components every subcommand shares.
type app struct {
	cfg       *config.Config
	store     cache.Store
	collector *collector.Collector
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close cache: %v", err)
	}
}

// setup loads config from CONFIG_PATH (default configs/config.yaml) and
// wires the fetcher, cache and collector.
func setup() (*app, error) {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "finance-go":
		fetcher = collector.NewFinanceGoFetcher()
	case "mock":
		fetcher = &collector.MockFetcher{Price: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	var store cache.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := cache.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite cache failed, using noop: %v", err)
			store = cache.NewNoopStore()
		} else {
			store = ss
		}
	} else {
		store = cache.NewNoopStore()
	}

	col := collector.NewCollector(fetcher, store, cfg.Cache.MaxAge)
	col.MaxStartGap = cfg.MaxStartGap()

	return &app{cfg: cfg, store: store, collector: col}, nil
}
