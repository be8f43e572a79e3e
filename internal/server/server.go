// Package server exposes growth tables, price series and dividends over HTTP
// for chart renderers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"GrowthWatch/internal/calculator"
	"GrowthWatch/internal/collector"
	"GrowthWatch/internal/config"
	"GrowthWatch/internal/model"
	"GrowthWatch/internal/notifier"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	collector  *collector.Collector
	watchlists []config.Watchlist
	periods    []model.Period
}

// New creates a Server listening on addr.
func New(addr string, col *collector.Collector, watchlists []config.Watchlist, periods []model.Period) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		collector:  col,
		watchlists: watchlists,
		periods:    periods,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/watchlists", s.handleWatchlists)
		r.Get("/growth", s.handleGrowth)
		r.Get("/series/{ticker}", s.handleSeries)
		r.Get("/dividends/{ticker}", s.handleDividends)
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("[INFO] http server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, want YYYY-MM-DD", name, v)
	}
	return d, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "data_source": s.collector.Fetcher.Name()})
}

func (s *Server) handleWatchlists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.watchlists)
}

type growthResponse struct {
	*model.GrowthTable
	Summary []calculator.PeriodSummary `json:"summary"`
}

func (s *Server) tickers(r *http.Request) ([]string, error) {
	q := r.URL.Query()
	if name := q.Get("watchlist"); name != "" {
		cfg := config.Config{Watchlists: s.watchlists}
		wl, ok := cfg.Watchlist(name)
		if !ok {
			return nil, fmt.Errorf("unknown watchlist %q", name)
		}
		return wl.Tickers, nil
	}
	if v := q.Get("tickers"); v != "" {
		return config.SplitTickers(v), nil
	}
	cfg := config.Config{Watchlists: s.watchlists}
	return cfg.Tickers(), nil
}

func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickers(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reference, err := dateParam(r, "date", s.collector.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	periods := s.periods
	if v := r.URL.Query().Get("periods"); v != "" {
		if periods, err = model.ParsePeriods(strings.Split(v, ",")); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	table, err := s.collector.Compare(r.Context(), tickers, reference, periods)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=growth_%s.csv", table.Reference.Format(model.DateFormat)))
		if err := notifier.WriteGrowthCSV(w, table); err != nil {
			log.Printf("[ERROR] write csv: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, growthResponse{GrowthTable: table, Summary: calculator.Summarize(table)})
}

func (s *Server) rangeParams(r *http.Request) (time.Time, time.Time, error) {
	to, err := dateParam(r, "to", model.Day(s.collector.Now()))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := dateParam(r, "from", to.AddDate(-1, 0, 0))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from %s is after to %s", from.Format(model.DateFormat), to.Format(model.DateFormat))
	}
	return from, to, nil
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	from, to, err := s.rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	series, err := s.collector.Series(r.Context(), ticker, from, to)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

type dividendsResponse struct {
	Ticker    string           `json:"ticker"`
	Dividends []model.Dividend `json:"dividends"`
	Yield     *float64         `json:"yield_ttm,omitempty"`
	YieldErr  string           `json:"yield_error,omitempty"`
}

func (s *Server) handleDividends(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	from, to, err := s.rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	divs, err := s.collector.Dividends(r.Context(), ticker, from, to)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	resp := dividendsResponse{Ticker: ticker, Dividends: divs}
	if y, err := s.collector.DividendYield(r.Context(), ticker, to); err != nil {
		resp.YieldErr = err.Error()
	} else {
		resp.Yield = &y
	}
	writeJSON(w, http.StatusOK, resp)
}
