package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/domain"
)

type mockRepository struct {
	quotes    map[string]float64
	payload   []byte
	ts        int64
	quotesErr error
}

func (m *mockRepository) UpsertLatestQuotes(ctx context.Context, quotes []domain.Quote) error {
	if m.quotesErr != nil {
		return m.quotesErr
	}
	for _, q := range quotes {
		m.quotes[q.Source+":"+q.Symbol] = q.Price
	}
	return nil
}

func (m *mockRepository) PutLatestSnapshot(ctx context.Context, ts int64, payload []byte) error {
	m.ts = ts
	m.payload = payload
	return nil
}

func (m *mockRepository) Close() error { return nil }

func testSnapshot() *domain.Snapshot {
	at := time.UnixMilli(1234567890)
	btc := domain.NewAggregatedQuote("BTC", []domain.Quote{
		{Source: "binance", Symbol: "BTC", Price: 45000},
		{Source: "kucoin", Symbol: "BTC", Price: 45010},
	}, at)
	return domain.NewSnapshot(3, at, []domain.AggregatedQuote{btc})
}

func TestSnapshotServiceMirrorsQuotesAndPayload(t *testing.T) {
	repo := &mockRepository{quotes: map[string]float64{}}
	svc := NewSnapshotService(repo, func(s *domain.Snapshot) ([]byte, error) {
		return []byte(`{"seq":3}`), nil
	})

	err := svc.Publish(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 45000.0, repo.quotes["binance:BTC"])
	assert.Equal(t, 45010.0, repo.quotes["kucoin:BTC"])
	assert.Equal(t, int64(1234567890), repo.ts)
	assert.JSONEq(t, `{"seq":3}`, string(repo.payload))
}

func TestSnapshotServiceSwallowsStorageErrors(t *testing.T) {
	repo := &mockRepository{quotes: map[string]float64{}, quotesErr: errors.New("redis down")}
	svc := NewSnapshotService(repo, func(s *domain.Snapshot) ([]byte, error) {
		return nil, errors.New("encode failed")
	})

	assert.NoError(t, svc.Publish(context.Background(), testSnapshot()))
	assert.Nil(t, repo.payload)
}
