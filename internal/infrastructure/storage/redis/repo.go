package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/storage"
)

// Repo keeps the latest quotes in a hash, the latest snapshot under a plain
// key, and announces each snapshot on a pub/sub channel.
type Repo struct {
	rdb         *redis.Client
	prefix      string
	ttl         time.Duration
	keyQuotes   string // prefix + ":quotes"
	keySnapshot string // prefix + ":snapshot"
	updatesChan string
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, updatesChan string) *Repo {
	if prefix == "" {
		prefix = "pricehub"
	}
	if updatesChan == "" {
		updatesChan = prefix + ":updates"
	}
	return &Repo{
		rdb:         rdb,
		prefix:      prefix,
		ttl:         ttl,
		keyQuotes:   prefix + ":quotes",
		keySnapshot: prefix + ":snapshot",
		updatesChan: updatesChan,
	}
}

func (r *Repo) UpsertLatestQuotes(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	fields := make(map[string]any, len(quotes))
	for _, q := range quotes {
		if q.Price <= 0 {
			continue
		}
		b, err := json.Marshal(storage.NewLatestQuote(q))
		if err != nil {
			return err
		}
		// field = "binance:BTC" -> json
		fields[storage.QuoteKey(q.Source, q.Symbol)] = string(b)
	}
	if len(fields) == 0 {
		return nil
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyQuotes, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyQuotes, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) PutLatestSnapshot(ctx context.Context, ts int64, payload []byte) error {
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, r.keySnapshot, payload, r.ttl)
	pipe.Set(ctx, r.keySnapshot+":ts", ts, r.ttl)
	pipe.Publish(ctx, r.updatesChan, payload)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)
