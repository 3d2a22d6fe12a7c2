package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/storage"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS latest_quotes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price REAL NOT NULL,
  change_abs REAL NOT NULL,
  change_pct REAL NOT NULL,
  volume REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  UNIQUE(exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_latest_quotes_symbol ON latest_quotes(symbol);

CREATE TABLE IF NOT EXISTS latest_snapshot (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	return err
}

func (r *Repo) UpsertLatestQuotes(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO latest_quotes(exchange, symbol, price, change_abs, change_pct, volume, ts_ms, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(exchange, symbol) DO UPDATE SET
		price=excluded.price, change_abs=excluded.change_abs, change_pct=excluded.change_pct,
		volume=excluded.volume, ts_ms=excluded.ts_ms, updated_at=excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, q := range quotes {
		if q.Price <= 0 {
			continue
		}
		row := storage.NewLatestQuote(q)
		if _, err := stmt.ExecContext(ctx, row.Exchange, row.Symbol, row.Price, row.ChangeAbs, row.ChangePct, row.Volume, row.TsMs, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) PutLatestSnapshot(ctx context.Context, ts int64, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_snapshot(id, ts_ms, payload, updated_at)
		VALUES(1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		ts_ms=excluded.ts_ms, payload=excluded.payload, updated_at=excluded.updated_at
	`, ts, string(payload), time.Now().UnixMilli())
	return err
}

func (r *Repo) GetLatestQuote(ctx context.Context, ex, symbol string) (storage.LatestQuote, error) {
	q := storage.LatestQuote{Exchange: ex, Symbol: symbol}
	err := r.db.QueryRowContext(ctx,
		`SELECT price, change_abs, change_pct, volume, ts_ms FROM latest_quotes WHERE exchange=? AND symbol=?`, ex, symbol).
		Scan(&q.Price, &q.ChangeAbs, &q.ChangePct, &q.Volume, &q.TsMs)
	return q, err
}

func (r *Repo) ListLatestQuotes(ctx context.Context) ([]storage.LatestQuote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT exchange, symbol, price, change_abs, change_pct, volume, ts_ms FROM latest_quotes ORDER BY symbol, exchange`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.LatestQuote
	for rows.Next() {
		var q storage.LatestQuote
		if err := rows.Scan(&q.Exchange, &q.Symbol, &q.Price, &q.ChangeAbs, &q.ChangePct, &q.Volume, &q.TsMs); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repo) GetLatestSnapshot(ctx context.Context) (ts int64, payload string, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT ts_ms, payload FROM latest_snapshot WHERE id=1`).Scan(&ts, &payload)
	return
}

var _ port.Repository = (*Repo)(nil)
