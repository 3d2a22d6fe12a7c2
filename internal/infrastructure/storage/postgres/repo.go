package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/storage"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS latest_quotes (
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  change_abs DOUBLE PRECISION NOT NULL,
  change_pct DOUBLE PRECISION NOT NULL,
  volume DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_latest_quotes_symbol ON latest_quotes(symbol);

CREATE TABLE IF NOT EXISTS latest_snapshot (
  id SMALLINT PRIMARY KEY CHECK (id = 1),
  ts_ms BIGINT NOT NULL,
  payload JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
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

	now := time.Now().UTC()
	for _, q := range quotes {
		if q.Price <= 0 {
			continue
		}
		row := storage.NewLatestQuote(q)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO latest_quotes(exchange, symbol, price, change_abs, change_pct, volume, ts_ms, updated_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (exchange, symbol) DO UPDATE SET
			price=EXCLUDED.price, change_abs=EXCLUDED.change_abs, change_pct=EXCLUDED.change_pct,
			volume=EXCLUDED.volume, ts_ms=EXCLUDED.ts_ms, updated_at=EXCLUDED.updated_at
		`, row.Exchange, row.Symbol, row.Price, row.ChangeAbs, row.ChangePct, row.Volume, row.TsMs, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) PutLatestSnapshot(ctx context.Context, ts int64, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_snapshot(id, ts_ms, payload, updated_at)
		VALUES(1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
		ts_ms=EXCLUDED.ts_ms, payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at
	`, ts, string(payload))
	return err
}

func (r *Repo) GetLatestSnapshot(ctx context.Context) (ts int64, payload string, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT ts_ms, payload::text FROM latest_snapshot WHERE id=1`).Scan(&ts, &payload)
	return
}

var _ port.Repository = (*Repo)(nil)
