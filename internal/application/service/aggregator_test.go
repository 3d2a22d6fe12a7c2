package service

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

type fakeClient struct {
	name   string
	prices map[string]float64
	err    error
	delay  time.Duration
	panics bool
	calls  atomic.Int32
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, port.NewFetchError(f.name, port.FetchNetwork, ctx.Err())
		}
	}
	if f.panics {
		panic("malformed upstream")
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.Quote, len(f.prices))
	for sym, px := range f.prices {
		out[sym] = domain.Quote{Symbol: sym, Price: px, ObservedAt: time.Now()}
	}
	return out, nil
}

func newTestAggregator(clients ...port.ExchangeClient) *Aggregator {
	return NewAggregator(AggregatorDeps{
		Clients:      clients,
		Symbols:      []string{"BTC", "ETH", "SOL", "DOGE"},
		FetchTimeout: time.Second,
	})
}

func TestAggregatorAveragesAcrossSources(t *testing.T) {
	agg := newTestAggregator(
		&fakeClient{name: "x", prices: map[string]float64{"BTC": 50000}},
		&fakeClient{name: "y", prices: map[string]float64{"BTC": 50200}},
	)

	snap := agg.Refresh(context.Background())

	btc, ok := snap.Get("BTC")
	require.True(t, ok)
	assert.Equal(t, 50100.0, btc.AveragePrice)
	assert.Equal(t, 2, btc.SourceCount)
	assert.Equal(t, []string{"x", "y"}, btc.Sources())
	assert.Equal(t, "x", btc.PerSource["x"].Source)
}

func TestAggregatorKeepsOnlyReportedSymbols(t *testing.T) {
	agg := newTestAggregator(
		&fakeClient{name: "x", prices: map[string]float64{"BTC": 1, "SOL": 3}},
		&fakeClient{name: "y", prices: map[string]float64{"ETH": 2, "PEPE": 9}},
	)

	snap := agg.Refresh(context.Background())

	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, snap.Symbols())
	_, ok := snap.Get("DOGE")
	assert.False(t, ok)
	_, ok = snap.Get("PEPE")
	assert.False(t, ok, "symbols outside the universe are dropped")
}

func TestAggregatorToleratesOneFailingSource(t *testing.T) {
	agg := newTestAggregator(
		&fakeClient{name: "x", prices: map[string]float64{"BTC": 100, "ETH": 10}},
		&fakeClient{name: "y", err: port.NewFetchError("y", port.FetchBadStatus, errors.New("503"))},
		&fakeClient{name: "z", prices: map[string]float64{"BTC": 102, "SOL": 5}},
	)

	snap := agg.Refresh(context.Background())

	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, snap.Symbols())
	btc, _ := snap.Get("BTC")
	assert.Equal(t, 2, btc.SourceCount)
	assert.Equal(t, 101.0, btc.AveragePrice)
}

func TestAggregatorAllSourcesFail(t *testing.T) {
	agg := newTestAggregator(
		&fakeClient{name: "x", err: errors.New("dial tcp: refused")},
		&fakeClient{name: "y", panics: true},
	)

	snap := agg.Refresh(context.Background())

	assert.True(t, snap.Empty())
	assert.True(t, snap.Published())
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Same(t, snap, agg.Latest())
}

func TestAggregatorLatestBeforeFirstCycle(t *testing.T) {
	agg := newTestAggregator()

	snap := agg.Latest()
	require.NotNil(t, snap)
	assert.True(t, snap.Empty())
	assert.False(t, snap.Published())
}

func TestAggregatorLatestOrRefresh(t *testing.T) {
	c := &fakeClient{name: "x", prices: map[string]float64{"BTC": 1}}
	agg := newTestAggregator(c)

	first := agg.LatestOrRefresh(context.Background())
	second := agg.LatestOrRefresh(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestAggregatorCancelledCycleKeepsPrevious(t *testing.T) {
	slow := &fakeClient{name: "x", prices: map[string]float64{"BTC": 1}}
	agg := newTestAggregator(slow)
	prev := agg.Refresh(context.Background())

	slow.delay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	got := agg.Refresh(ctx)

	assert.Same(t, prev, got)
	assert.Same(t, prev, agg.Latest())
}

func TestAggregatorFetchesConcurrently(t *testing.T) {
	delay := 200 * time.Millisecond
	agg := newTestAggregator(
		&fakeClient{name: "x", delay: delay, prices: map[string]float64{"BTC": 1}},
		&fakeClient{name: "y", delay: delay, prices: map[string]float64{"BTC": 1}},
		&fakeClient{name: "z", delay: delay, prices: map[string]float64{"BTC": 1}},
	)

	start := time.Now()
	snap := agg.Refresh(context.Background())

	assert.Less(t, time.Since(start), 2*delay)
	btc, _ := snap.Get("BTC")
	assert.Equal(t, 3, btc.SourceCount)
}

func TestAggregatorSlowSourceTimesOut(t *testing.T) {
	agg := NewAggregator(AggregatorDeps{
		Clients: []port.ExchangeClient{
			&fakeClient{name: "fast", prices: map[string]float64{"BTC": 10}},
			&fakeClient{name: "slow", delay: time.Second, prices: map[string]float64{"BTC": 99}},
		},
		Symbols:      []string{"BTC"},
		FetchTimeout: 50 * time.Millisecond,
	})

	snap := agg.Refresh(context.Background())

	btc, ok := snap.Get("BTC")
	require.True(t, ok)
	assert.Equal(t, 1, btc.SourceCount)
	assert.Equal(t, 10.0, btc.AveragePrice)
}

func TestAggregatorAverageIsMeanOfContributors(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(5)
		clients := make([]port.ExchangeClient, 0, n)
		var sum float64
		for i := 0; i < n; i++ {
			px := 1 + rng.Float64()*60000
			sum += px
			clients = append(clients, &fakeClient{
				name:   string(rune('a' + i)),
				prices: map[string]float64{"ETH": px},
			})
		}

		snap := newTestAggregator(clients...).Refresh(context.Background())

		eth, ok := snap.Get("ETH")
		require.True(t, ok)
		assert.Equal(t, n, eth.SourceCount)
		assert.InDelta(t, sum/float64(n), eth.AveragePrice, 1e-6)
	}
}

func TestAggregatorSequenceIncreases(t *testing.T) {
	agg := newTestAggregator(&fakeClient{name: "x", prices: map[string]float64{"BTC": 1}})

	a := agg.Refresh(context.Background())
	b := agg.Refresh(context.Background())

	assert.Less(t, a.Seq, b.Seq)
}
