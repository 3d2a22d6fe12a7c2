package kucoin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/application/port"
	"pricehub/internal/infrastructure/pricefeed"
)

func serve(t *testing.T, body string) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tickersPath, r.URL.Path)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewRESTClient(pricefeed.Options{BaseURL: srv.URL})
}

func TestRESTClient_Fetch(t *testing.T) {
	c := serve(t, `{"code":"200000","data":{"time":1,"ticker":[
		{"symbol":"BTC-USDT","last":"50200","changePrice":"520","changeRate":"0.0105","vol":"321.5"},
		{"symbol":"ETH-USDT","last":null,"changePrice":null,"changeRate":null,"vol":null},
		{"symbol":"BTC-USDC","last":"50100","changePrice":"1","changeRate":"0.01","vol":"1"},
		{"symbol":"SOL-USDT","last":"100","changePrice":null,"changeRate":null,"vol":"5"}
	]}}`)

	quotes, err := c.Fetch(context.Background(), []string{"BTC", "ETH", "SOL"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	btc := quotes["BTC"]
	assert.Equal(t, "kucoin", btc.Source)
	assert.Equal(t, 50200.0, btc.Price)
	assert.Equal(t, 520.0, btc.ChangeAbs)
	assert.InDelta(t, 1.05, btc.ChangePct, 1e-9)
	assert.InDelta(t, 321.5, btc.Volume, 1e-9)

	sol := quotes["SOL"]
	assert.Zero(t, sol.ChangeAbs)
	assert.Zero(t, sol.ChangePct)
}

func TestRESTClient_EnvelopeError(t *testing.T) {
	c := serve(t, `{"code":"400100","msg":"bad request"}`)

	_, err := c.Fetch(context.Background(), []string{"BTC"})
	var fe *port.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, port.FetchBadStatus, fe.Kind)
	assert.Contains(t, fe.Error(), "400100")
}

func TestRESTClient_InvalidBaseURL(t *testing.T) {
	c := NewRESTClient(pricefeed.Options{BaseURL: "http://%zz"})

	_, err := c.Fetch(context.Background(), []string{"BTC"})
	var fe *port.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "kucoin", fe.Source)
	assert.Equal(t, port.FetchNetwork, fe.Kind)
}
