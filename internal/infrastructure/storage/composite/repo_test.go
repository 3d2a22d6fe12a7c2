package composite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/storage"
)

type failingRepo struct{ err error }

func (f failingRepo) UpsertLatestQuotes(context.Context, []domain.Quote) error { return f.err }
func (f failingRepo) PutLatestSnapshot(context.Context, int64, []byte) error   { return f.err }
func (f failingRepo) Close() error                                             { return nil }

func TestRepo_FanOutContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	mem := storage.NewMemory()
	r := New(nil, failingRepo{err: boom}, mem)
	require.Equal(t, 2, r.Len())

	ctx := context.Background()
	err := r.UpsertLatestQuotes(ctx, []domain.Quote{{Source: "binance", Symbol: "BTC", Price: 1, ObservedAt: time.Now()}})
	assert.ErrorIs(t, err, boom)
	_, ok := mem.Quote("binance", "BTC")
	assert.True(t, ok)

	err = r.PutLatestSnapshot(ctx, 5, []byte(`[]`))
	assert.ErrorIs(t, err, boom)
	ts, payload := mem.LatestSnapshot()
	assert.Equal(t, int64(5), ts)
	assert.Equal(t, `[]`, string(payload))

	assert.NoError(t, r.Close())
}
