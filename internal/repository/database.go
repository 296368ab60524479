// Package repository loads historical bars from the price store. It is
// the data-vendor boundary: the engine never imports it, callers feed the
// engine the materialized series this package returns.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quantbt/types"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrSymbolNotFound = errors.New("symbol not found in datasource")
	ErrNoBars         = errors.New("no bars found in datasource")
)

type Database struct {
	pool *pgxpool.Pool
}

// NewDatabase opens a pool against the price store and verifies
// connectivity. The shopspring decimal codec is registered on every
// connection so money columns never pass through float64.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Database{pool: pool}, nil
}

func (db *Database) Close() {
	db.pool.Close()
}

// GetBars returns the daily series for a symbol over [start, end],
// ascending by date.
func (db *Database) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	const query = `
		SELECT b.day, b.open, b.high, b.low, b.close, b.volume
		FROM daily_bars b
		JOIN assets a ON a.id = b.asset_id
		WHERE a.symbol = $1 AND b.day BETWEEN $2 AND $3
		ORDER BY b.day`

	rows, err := db.pool.Query(ctx, query, symbol, types.Day(start), types.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var (
			day                   time.Time
			open, high, low, last decimal.Decimal
			volume                int64
		)
		if err := rows.Scan(&day, &open, &high, &low, &last, &volume); err != nil {
			return nil, fmt.Errorf("scan bar for %s: %w", symbol, err)
		}
		bars = append(bars, types.NewBar(symbol, day, open, high, low, last, volume))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s between %s and %s: %w",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"), ErrNoBars)
	}

	log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("loaded series")
	return bars, nil
}

// SymbolExists checks the asset table without loading any bars.
func (db *Database) SymbolExists(ctx context.Context, symbol string) error {
	var id int
	err := db.pool.QueryRow(ctx, `SELECT id FROM assets WHERE symbol = $1`, symbol).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	return err
}
