package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/domain"
)

func TestNewDefaults(t *testing.T) {
	r := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "", 0, "")
	defer r.Close()
	assert.Equal(t, "pricehub:quotes", r.keyQuotes)
	assert.Equal(t, "pricehub:snapshot", r.keySnapshot)
	assert.Equal(t, "pricehub:updates", r.updatesChan)
}

// Runs only against a real server: PRICEHUB_TEST_REDIS_ADDR=127.0.0.1:6379
func TestRedisRepo_Roundtrip(t *testing.T) {
	addr := os.Getenv("PRICEHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PRICEHUB_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "pricehub-test-" + time.Now().Format("150405.000")
	repo := New(rdb, prefix, time.Minute, "")
	defer repo.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, repo.updatesChan)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertLatestQuotes(ctx, []domain.Quote{
		{Source: "binance", Symbol: "BTC", Price: 50000, ObservedAt: time.Now()},
	}))
	require.NoError(t, repo.PutLatestSnapshot(ctx, 7, []byte(`[]`)))

	n, err := rdb.HLen(ctx, repo.keyQuotes).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := rdb.Get(ctx, repo.keySnapshot).Result()
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, `[]`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}
}
