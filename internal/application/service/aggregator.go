package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

type AggregatorDeps struct {
	Clients      []port.ExchangeClient
	Symbols      []string
	FetchTimeout time.Duration
	Metrics      port.Metrics
}

// Aggregator fetches all exchanges concurrently and owns the latest snapshot.
type Aggregator struct {
	clients      []port.ExchangeClient
	symbols      []string
	universe     map[string]struct{}
	fetchTimeout time.Duration
	metrics      port.Metrics
	now          func() time.Time

	// refreshMu serializes cycles so sequence numbers follow completion order.
	refreshMu sync.Mutex
	seq       uint64

	latest atomic.Pointer[domain.Snapshot]
}

func NewAggregator(deps AggregatorDeps) *Aggregator {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics()
	}
	if deps.FetchTimeout <= 0 {
		deps.FetchTimeout = 10 * time.Second
	}

	symbols := make([]string, len(deps.Symbols))
	copy(symbols, deps.Symbols)
	universe := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		universe[s] = struct{}{}
	}

	a := &Aggregator{
		clients:      deps.Clients,
		symbols:      symbols,
		universe:     universe,
		fetchTimeout: deps.FetchTimeout,
		metrics:      deps.Metrics,
		now:          time.Now,
	}
	a.latest.Store(domain.EmptySnapshot())
	return a
}

// Symbols returns the configured universe in order.
func (a *Aggregator) Symbols() []string {
	out := make([]string, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// Latest returns the most recently published snapshot. Before the first cycle it is empty.
func (a *Aggregator) Latest() *domain.Snapshot {
	return a.latest.Load()
}

// LatestOrRefresh runs one synchronous cycle if none has completed yet.
func (a *Aggregator) LatestOrRefresh(ctx context.Context) *domain.Snapshot {
	if snap := a.Latest(); snap.Published() {
		return snap
	}
	return a.Refresh(ctx)
}

// Refresh runs one fetch-all/merge cycle and swaps in the result.
// It never fails: exchanges that error simply contribute nothing. If ctx is
// cancelled while fetching, the cycle is discarded and the previous snapshot kept.
func (a *Aggregator) Refresh(ctx context.Context) *domain.Snapshot {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	start := time.Now()
	results := a.fetchAll(ctx)
	if ctx.Err() != nil {
		log.Warn().Err(ctx.Err()).Msg("refresh cancelled, keeping previous snapshot")
		return a.Latest()
	}

	at := a.now()
	merged := make([]domain.AggregatedQuote, 0, len(a.symbols))
	for _, sym := range a.symbols {
		var contrib []domain.Quote
		for _, res := range results {
			if q, ok := res[sym]; ok {
				contrib = append(contrib, q)
			}
		}
		if len(contrib) == 0 {
			continue
		}
		merged = append(merged, domain.NewAggregatedQuote(sym, contrib, at))
	}

	a.seq++
	snap := domain.NewSnapshot(a.seq, at, merged)
	a.latest.Store(snap)

	elapsed := time.Since(start)
	a.metrics.CycleCompleted(snap.Len(), elapsed)
	log.Info().
		Uint64("seq", snap.Seq).
		Int("symbols", snap.Len()).
		Int("universe", len(a.symbols)).
		Dur("elapsed", elapsed).
		Msg("aggregation completed")
	return snap
}

// fetchAll fans out to every client and joins. Slot i holds client i's quotes.
func (a *Aggregator) fetchAll(ctx context.Context) []map[string]domain.Quote {
	results := make([]map[string]domain.Quote, len(a.clients))

	var wg sync.WaitGroup
	wg.Add(len(a.clients))
	for i, c := range a.clients {
		go func(i int, c port.ExchangeClient) {
			defer wg.Done()
			results[i] = a.fetchOne(ctx, c)
		}(i, c)
	}
	wg.Wait()
	return results
}

func (a *Aggregator) fetchOne(ctx context.Context, c port.ExchangeClient) (out map[string]domain.Quote) {
	name := c.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.fetchFailed(name, port.NewFetchError(name, port.FetchBadPayload, fmt.Errorf("panic: %v", r)))
			out = nil
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	quotes, err := c.Fetch(cctx, a.Symbols())
	if err != nil {
		a.fetchFailed(name, err)
		return nil
	}

	out = make(map[string]domain.Quote, len(quotes))
	for sym, q := range quotes {
		if _, ok := a.universe[sym]; !ok {
			continue
		}
		q.Symbol = sym
		q.Source = name
		out[sym] = q
	}

	elapsed := time.Since(start)
	a.metrics.FetchCompleted(name, len(out), elapsed)
	log.Debug().
		Str("exchange", name).
		Int("symbols", len(out)).
		Dur("elapsed", elapsed).
		Msg("exchange fetch completed")
	return out
}

func (a *Aggregator) fetchFailed(name string, err error) {
	kind := port.FetchNetwork
	var fe *port.FetchError
	if errors.As(err, &fe) {
		kind = fe.Kind
	}
	a.metrics.FetchFailed(name, kind)
	log.Warn().
		Str("exchange", name).
		Str("kind", string(kind)).
		Err(err).
		Msg("exchange fetch failed")
}
