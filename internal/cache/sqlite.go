package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"GrowthWatch/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists cached market data and growth tables to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP API read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite cache opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_bars (
			ticker TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (ticker, date)
		)`,

		`CREATE TABLE IF NOT EXISTS dividends (
			ticker TEXT NOT NULL,
			date   TEXT NOT NULL,
			amount REAL,
			PRIMARY KEY (ticker, date)
		)`,

		`CREATE TABLE IF NOT EXISTS coverage (
			kind       TEXT NOT NULL,
			ticker     TEXT NOT NULL,
			range_from TEXT NOT NULL,
			range_to   TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (kind, ticker)
		)`,

		`CREATE TABLE IF NOT EXISTS growth_cells (
			reference   TEXT NOT NULL,
			tickers_key TEXT NOT NULL,
			period      TEXT NOT NULL,
			ticker      TEXT NOT NULL,
			row_idx     INTEGER NOT NULL,
			col_idx     INTEGER NOT NULL,
			start       TEXT NOT NULL,
			growth      REAL,
			defined     INTEGER NOT NULL,
			reason      TEXT,
			computed_at INTEGER NOT NULL,
			PRIMARY KEY (reference, tickers_key, period, ticker)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_growth_ref ON growth_cells(reference)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

const (
	kindSeries    = "series"
	kindDividends = "dividends"
)

func (s *SQLiteStore) SaveSeries(ps *model.PriceSeries, from, to time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetchedAt := ps.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range ps.Bars {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO price_bars
			(ticker, date, open, high, low, close, volume)
			VALUES (?,?,?,?,?,?,?)`,
			ps.Ticker, b.Time.Format(model.DateFormat), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("insert bar %s %s: %w", ps.Ticker, b.Time.Format(model.DateFormat), err)
		}
	}
	if err := mergeCoverage(tx, kindSeries, ps.Ticker, from, to, fetchedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSeries(ticker string, from, to time.Time) (*model.PriceSeries, error) {
	cov, err := s.coverage(kindSeries, ticker)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT date, open, high, low, close, volume FROM price_bars
		WHERE ticker = ? AND date >= ? AND date <= ? ORDER BY date`,
		ticker, model.Day(from).Format(model.DateFormat), model.Day(to).Format(model.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var day string
		var b model.OHLCV
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if b.Time, err = model.ParseDate(day); err != nil {
			return nil, fmt.Errorf("parse bar date: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ps := model.NewPriceSeries(ticker, bars)
	ps.FetchedAt = cov.FetchedAt
	return ps, nil
}

func (s *SQLiteStore) SeriesCoverage(ticker string) (Coverage, error) {
	return s.coverage(kindSeries, ticker)
}

func (s *SQLiteStore) SaveDividends(ticker string, divs []model.Dividend, from, to, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range divs {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO dividends (ticker, date, amount) VALUES (?,?,?)`,
			ticker, model.Day(d.Date).Format(model.DateFormat), d.Amount,
		); err != nil {
			return fmt.Errorf("insert dividend %s: %w", ticker, err)
		}
	}
	if err := mergeCoverage(tx, kindDividends, ticker, from, to, fetchedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadDividends(ticker string, from, to time.Time) ([]model.Dividend, error) {
	if _, err := s.coverage(kindDividends, ticker); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT date, amount FROM dividends
		WHERE ticker = ? AND date >= ? AND date <= ? ORDER BY date`,
		ticker, model.Day(from).Format(model.DateFormat), model.Day(to).Format(model.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("query dividends: %w", err)
	}
	defer rows.Close()

	divs := []model.Dividend{}
	for rows.Next() {
		var day string
		var d model.Dividend
		if err := rows.Scan(&day, &d.Amount); err != nil {
			return nil, fmt.Errorf("scan dividend: %w", err)
		}
		if d.Date, err = model.ParseDate(day); err != nil {
			return nil, fmt.Errorf("parse dividend date: %w", err)
		}
		divs = append(divs, d)
	}
	return divs, rows.Err()
}

func (s *SQLiteStore) DividendCoverage(ticker string) (Coverage, error) {
	return s.coverage(kindDividends, ticker)
}

func (s *SQLiteStore) SaveGrowthTable(t *model.GrowthTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := t.Reference.Format(model.DateFormat)
	key := tickersKey(t.Tickers)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM growth_cells WHERE reference = ? AND tickers_key = ?`, ref, key); err != nil {
		return fmt.Errorf("clear growth table: %w", err)
	}
	now := time.Now().Unix()
	for ri, row := range t.Rows {
		for ci, c := range row.Cells {
			if _, err := tx.Exec(`INSERT INTO growth_cells
				(reference, tickers_key, period, ticker, row_idx, col_idx, start, growth, defined, reason, computed_at)
				VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
				ref, key, row.Period.Name, c.Ticker, ri, ci, row.Start.Format(model.DateFormat),
				c.Growth, c.Defined, c.Reason, now,
			); err != nil {
				return fmt.Errorf("insert growth cell %s/%s: %w", row.Period.Name, c.Ticker, err)
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadGrowthTable(reference time.Time, tickers []string) (*model.GrowthTable, error) {
	rows, err := s.db.Query(`SELECT period, ticker, row_idx, start, growth, defined, reason FROM growth_cells
		WHERE reference = ? AND tickers_key = ? ORDER BY row_idx, col_idx`,
		model.Day(reference).Format(model.DateFormat), tickersKey(tickers))
	if err != nil {
		return nil, fmt.Errorf("query growth cells: %w", err)
	}
	defer rows.Close()

	t := &model.GrowthTable{Reference: model.Day(reference), Tickers: append([]string(nil), tickers...)}
	for rows.Next() {
		var (
			period, start string
			rowIdx        int
			reason        sql.NullString
			c             model.Cell
		)
		if err := rows.Scan(&period, &c.Ticker, &rowIdx, &start, &c.Growth, &c.Defined, &reason); err != nil {
			return nil, fmt.Errorf("scan growth cell: %w", err)
		}
		c.Reason = reason.String
		if rowIdx == len(t.Rows) {
			p, err := model.ParsePeriod(period)
			if err != nil {
				return nil, err
			}
			st, err := model.ParseDate(start)
			if err != nil {
				return nil, err
			}
			t.Rows = append(t.Rows, model.GrowthRow{Period: p, Start: st})
		}
		t.Rows[rowIdx].Cells = append(t.Rows[rowIdx].Cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, ErrMiss
	}
	return t, nil
}

func (s *SQLiteStore) coverage(kind, ticker string) (Coverage, error) {
	return queryCoverage(s.db, kind, ticker)
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func queryCoverage(q queryer, kind, ticker string) (Coverage, error) {
	var from, to string
	var fetchedAt int64
	err := q.QueryRow(`SELECT range_from, range_to, fetched_at FROM coverage WHERE kind = ? AND ticker = ?`,
		kind, ticker).Scan(&from, &to, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Coverage{}, ErrMiss
	}
	if err != nil {
		return Coverage{}, fmt.Errorf("query coverage: %w", err)
	}
	var c Coverage
	if c.From, err = model.ParseDate(from); err != nil {
		return Coverage{}, err
	}
	if c.To, err = model.ParseDate(to); err != nil {
		return Coverage{}, err
	}
	c.FetchedAt = time.Unix(fetchedAt, 0)
	return c, nil
}

func mergeCoverage(tx *sql.Tx, kind, ticker string, from, to, fetchedAt time.Time) error {
	cov, err := queryCoverage(tx, kind, ticker)
	if err != nil && !errors.Is(err, ErrMiss) {
		return err
	}
	cov = cov.merge(from, to, fetchedAt)
	_, err = tx.Exec(`INSERT OR REPLACE INTO coverage (kind, ticker, range_from, range_to, fetched_at) VALUES (?,?,?,?,?)`,
		kind, ticker, cov.From.Format(model.DateFormat), cov.To.Format(model.DateFormat), cov.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("save coverage %s %s: %w", kind, ticker, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite cache")
	return s.db.Close()
}
