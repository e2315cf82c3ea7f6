package repository

import (
	"context"
	"fmt"
	"momentum/types"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Compile-time interface check.
var _ Loader = (*Database)(nil)

const dailyBarsQuery = `
SELECT a.ticker, c.day, c.open, c.high, c.low, c.close, c.volume, c.dividends, c.stock_splits
FROM daily_bars c
JOIN assets a ON a.id = c.asset_id
ORDER BY a.ticker, c.day`

type dailyBarRow struct {
	Ticker      string
	Day         time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      int64
	Dividends   decimal.Decimal
	StockSplits decimal.Decimal
}

type barsRepository interface {
	GetDailyBars(ctx context.Context) ([]dailyBarRow, error)
}

type queries struct {
	pool *pgxpool.Pool
}

func (q queries) GetDailyBars(ctx context.Context) ([]dailyBarRow, error) {
	rows, err := q.pool.Query(ctx, dailyBarsQuery)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dailyBarRow, error) {
		var r dailyBarRow
		err := row.Scan(&r.Ticker, &r.Day, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume, &r.Dividends, &r.StockSplits)
		return r, err
	})
}

// Database struct that holds the database connection and queries.
type Database struct {
	bars   barsRepository
	conn   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string, logger zerolog.Logger) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return &Database{
		bars:   queries{pool: conn},
		conn:   conn,
		logger: logger,
	}, nil
}

// Close releases the connection pool.
func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

func (db *Database) LoadUniverse(ctx context.Context) (types.Universe, error) {
	rows, err := db.bars.GetDailyBars(ctx)
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyUniverse
	}
	universe := convertBars(rows)
	dropped := sortHistories(universe, db.logger)
	db.logger.Info().
		Int("tickers", len(universe)).
		Int("duplicate_rows", dropped).
		Int("rows", len(rows)).
		Msg("database data loaded")
	return universe, nil
}

func convertBars(rows []dailyBarRow) types.Universe {
	universe := make(types.Universe)
	for _, dao := range rows {
		universe[dao.Ticker] = append(universe[dao.Ticker], types.Observation{
			Date:        calendarDay(dao.Day),
			Open:        dao.Open.InexactFloat64(),
			High:        dao.High.InexactFloat64(),
			Low:         dao.Low.InexactFloat64(),
			Close:       dao.Close.InexactFloat64(),
			Volume:      dao.Volume,
			Dividends:   dao.Dividends.InexactFloat64(),
			StockSplits: dao.StockSplits.InexactFloat64(),
		})
	}
	return universe
}
