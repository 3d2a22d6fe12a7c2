package binance

import (
	"context"
	"net/http"
	"time"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/exchange"
	"pricehub/internal/infrastructure/pricefeed"
)

const (
	DefaultBaseURL = "https://api.binance.com"
	tickerPath     = "/api/v3/ticker/24hr"
)

// tickerResp is one entry of the 24h ticker list.
type tickerResp struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
}

// RESTClient pulls the full 24h ticker list in one call and keeps USDT pairs
// of the requested assets. Asking for specific symbols instead would fail the
// whole request on the first one Binance does not list.
type RESTClient struct {
	baseURL string
	client  *http.Client
	conv    exchange.SymbolConverter
	now     func() time.Time
}

func NewRESTClient(opts pricefeed.Options) *RESTClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = exchange.NewHTTPClient(opts.Timeout)
	}
	return &RESTClient{
		baseURL: opts.BaseURL,
		client:  client,
		conv:    exchange.NewCommonSymbolConverter("USDT"),
		now:     time.Now,
	}
}

func (c *RESTClient) Name() string { return domain.ExchangeBinance }

func (c *RESTClient) Fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	endpoint, err := exchange.BuildQueryURL(c.baseURL, tickerPath, "")
	if err != nil {
		return nil, port.NewFetchError(c.Name(), port.FetchNetwork, err)
	}

	var tickers []tickerResp
	if err := exchange.GetJSON(ctx, c.client, c.Name(), endpoint, &tickers); err != nil {
		return nil, err
	}

	want := exchange.SymbolSet(symbols)
	now := c.now()
	out := make(map[string]domain.Quote, len(want))
	for _, t := range tickers {
		coin := c.conv.Symbol2Coin(t.Symbol)
		if _, ok := want[coin]; !ok || coin == "" {
			continue
		}
		price, ok := exchange.ParsePrice(t.LastPrice)
		if !ok {
			continue
		}
		out[coin] = domain.Quote{
			Source:     c.Name(),
			Symbol:     coin,
			Price:      price,
			ChangeAbs:  exchange.ParseOptional(t.PriceChange),
			ChangePct:  exchange.ParseOptional(t.PriceChangePercent),
			Volume:     exchange.ParseOptional(t.Volume),
			ObservedAt: now,
		}
	}
	return out, nil
}
