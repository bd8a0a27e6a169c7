// Package store persists the append-only season journal. The journal is a
// record of finished seasons and executed trades for the history view; live
// game state is never restored from it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SeasonRecord is one settled (or abandoned) season.
type SeasonRecord struct {
	ID              string
	StartedAt       time.Time
	SettledAt       time.Time
	Year            int
	AUM             float64
	FinalAssets     float64
	PortfolioReturn float64
	BenchmarkReturn float64
	Victory         bool
}

// TradeRecord is one executed buy or sell inside a season.
type TradeRecord struct {
	ID        string
	SeasonID  string
	DayIndex  int
	Symbol    string
	StockName string
	Side      string // "BUY" or "SELL"
	Quantity  int
	Price     float64
	Rarity    string
	CreatedAt time.Time
}

// SeasonFilter narrows ListSeasons results.
type SeasonFilter struct {
	Year        int
	VictoryOnly bool
	Limit       int
}

// Journal is the SQLite-backed season journal.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seasons (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		settled_at DATETIME,
		year INTEGER NOT NULL,
		aum REAL NOT NULL,
		final_assets REAL,
		portfolio_return REAL,
		benchmark_return REAL,
		victory INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		season_id TEXT NOT NULL,
		day_index INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		stock_name TEXT,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		rarity TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (season_id) REFERENCES seasons(id)
	);

	CREATE INDEX IF NOT EXISTS idx_seasons_year ON seasons(year);
	CREATE INDEX IF NOT EXISTS idx_trades_season ON trades(season_id);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginSeason records the start of a season.
func (j *Journal) BeginSeason(ctx context.Context, rec SeasonRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO seasons (id, started_at, year, aum)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.StartedAt, rec.Year, rec.AUM)
	if err != nil {
		return fmt.Errorf("failed to record season start: %w", err)
	}
	return nil
}

// SettleSeason records the outcome of a season.
func (j *Journal) SettleSeason(ctx context.Context, rec SeasonRecord) error {
	victory := 0
	if rec.Victory {
		victory = 1
	}
	result, err := j.db.ExecContext(ctx, `
		UPDATE seasons
		SET settled_at = ?, final_assets = ?, portfolio_return = ?, benchmark_return = ?, victory = ?
		WHERE id = ?
	`, rec.SettledAt, rec.FinalAssets, rec.PortfolioReturn, rec.BenchmarkReturn, victory, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("season not found: %s", rec.ID)
	}
	return nil
}

// RecordTrade appends one executed trade.
func (j *Journal) RecordTrade(ctx context.Context, t TradeRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (id, season_id, day_index, symbol, stock_name, side, quantity, price, rarity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.SeasonID, t.DayIndex, t.Symbol, t.StockName, t.Side, t.Quantity, t.Price, t.Rarity)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// ListSeasons retrieves seasons, newest first.
func (j *Journal) ListSeasons(ctx context.Context, filter SeasonFilter) ([]SeasonRecord, error) {
	query := `
		SELECT id, started_at, COALESCE(settled_at, started_at), year, aum,
			COALESCE(final_assets, 0), COALESCE(portfolio_return, 0),
			COALESCE(benchmark_return, 0), victory
		FROM seasons WHERE 1=1`
	args := []interface{}{}

	if filter.Year != 0 {
		query += " AND year = ?"
		args = append(args, filter.Year)
	}
	if filter.VictoryOnly {
		query += " AND victory = 1"
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	var seasons []SeasonRecord
	for rows.Next() {
		var rec SeasonRecord
		var victory int
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.SettledAt, &rec.Year, &rec.AUM,
			&rec.FinalAssets, &rec.PortfolioReturn, &rec.BenchmarkReturn, &victory); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		rec.Victory = victory == 1
		seasons = append(seasons, rec)
	}
	return seasons, rows.Err()
}

// SeasonTrades retrieves every trade in a season, in execution order.
func (j *Journal) SeasonTrades(ctx context.Context, seasonID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, season_id, day_index, symbol, COALESCE(stock_name, ''), side, quantity, price, COALESCE(rarity, ''), created_at
		FROM trades WHERE season_id = ?
		ORDER BY day_index ASC, created_at ASC
	`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.SeasonID, &t.DayIndex, &t.Symbol, &t.StockName, &t.Side, &t.Quantity, &t.Price, &t.Rarity, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Stats summarizes the journal for the history view.
type Stats struct {
	Seasons      int
	Victories    int
	BestReturn   float64
	AvgReturn    float64
	TradesPlaced int
}

// Stats aggregates settled seasons.
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var victories sql.NullInt64
	var best, avg sql.NullFloat64
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(victory), MAX(portfolio_return), AVG(portfolio_return)
		FROM seasons WHERE settled_at IS NOT NULL
	`).Scan(&st.Seasons, &victories, &best, &avg)
	if err != nil && err != sql.ErrNoRows {
		return Stats{}, fmt.Errorf("failed to aggregate seasons: %w", err)
	}
	if victories.Valid {
		st.Victories = int(victories.Int64)
	}
	if best.Valid {
		st.BestReturn = best.Float64
	}
	if avg.Valid {
		st.AvgReturn = avg.Float64
	}

	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&st.TradesPlaced); err != nil {
		return Stats{}, fmt.Errorf("failed to count trades: %w", err)
	}
	return st, nil
}
