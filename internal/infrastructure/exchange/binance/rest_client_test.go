package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/application/port"
	"pricehub/internal/infrastructure/pricefeed"
)

const tickersBody = `[
 {"symbol":"BTCUSDT","lastPrice":"50000.00","priceChange":"500.00","priceChangePercent":"1.010","volume":"1234.5"},
 {"symbol":"ETHUSDT","lastPrice":"3000.50","priceChange":"-10.5","priceChangePercent":"-0.35","volume":"99"},
 {"symbol":"ETHBTC","lastPrice":"0.06","priceChange":"0","priceChangePercent":"0","volume":"1"},
 {"symbol":"DOGEUSDT","lastPrice":"0","priceChange":"0","priceChangePercent":"0","volume":"1"},
 {"symbol":"XRPUSDT","lastPrice":"not-a-number","priceChange":"0","priceChangePercent":"0","volume":"1"},
 {"symbol":"SOLUSDT","lastPrice":"100","priceChange":"1","priceChangePercent":"1","volume":"1"}
]`

func newTestClient(t *testing.T, h http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRESTClient(pricefeed.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestRESTClient_Fetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tickerPath, r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(tickersBody))
	})

	quotes, err := c.Fetch(context.Background(), []string{"BTC", "ETH", "DOGE", "XRP", "ADA"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	btc := quotes["BTC"]
	assert.Equal(t, "binance", btc.Source)
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, 50000.0, btc.Price)
	assert.Equal(t, 500.0, btc.ChangeAbs)
	assert.InDelta(t, 1.01, btc.ChangePct, 1e-9)
	assert.InDelta(t, 1234.5, btc.Volume, 1e-9)
	assert.False(t, btc.ObservedAt.IsZero())

	assert.InDelta(t, -10.5, quotes["ETH"].ChangeAbs, 1e-9)
	assert.NotContains(t, quotes, "SOL")
}

func TestRESTClient_BadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Fetch(context.Background(), []string{"BTC"})
	var fe *port.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, port.FetchBadStatus, fe.Kind)
	assert.Equal(t, "binance", fe.Source)
}

func TestRESTClient_BadPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":-1}`))
	})

	_, err := c.Fetch(context.Background(), []string{"BTC"})
	var fe *port.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, port.FetchBadPayload, fe.Kind)
}

func TestRESTClient_InvalidBaseURL(t *testing.T) {
	c := NewRESTClient(pricefeed.Options{BaseURL: "http://%zz"})

	_, err := c.Fetch(context.Background(), []string{"BTC"})
	var fe *port.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "binance", fe.Source)
	assert.Equal(t, port.FetchNetwork, fe.Kind)
}
