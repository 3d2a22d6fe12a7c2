package kucoin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/exchange"
	"pricehub/internal/infrastructure/pricefeed"
)

const (
	DefaultBaseURL = "https://api.kucoin.com"
	tickersPath    = "/api/v1/market/allTickers"
	codeSuccess    = "200000"
)

// KuCoin sends null for pairs without recent trades, hence the pointers.
type tickerItem struct {
	Symbol      string  `json:"symbol"`
	Last        *string `json:"last"`
	ChangePrice *string `json:"changePrice"`
	ChangeRate  *string `json:"changeRate"`
	Vol         *string `json:"vol"`
}

type allTickersResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Time   int64        `json:"time"`
		Ticker []tickerItem `json:"ticker"`
	} `json:"data"`
}

// RESTClient reads every KuCoin ticker in one call and keeps the -USDT pairs.
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
		conv:    exchange.NewCommonSymbolConverter("-USDT"),
		now:     time.Now,
	}
}

func (c *RESTClient) Name() string { return domain.ExchangeKucoin }

func (c *RESTClient) Fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	endpoint, err := exchange.BuildQueryURL(c.baseURL, tickersPath, "")
	if err != nil {
		return nil, port.NewFetchError(c.Name(), port.FetchNetwork, err)
	}

	var resp allTickersResp
	if err := exchange.GetJSON(ctx, c.client, c.Name(), endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Code != codeSuccess {
		return nil, port.NewFetchError(c.Name(), port.FetchBadStatus, fmt.Errorf("api code %s: %s", resp.Code, resp.Msg))
	}

	want := exchange.SymbolSet(symbols)
	now := c.now()
	hundred := decimal.NewFromInt(100)
	out := make(map[string]domain.Quote, len(want))
	for _, t := range resp.Data.Ticker {
		coin := c.conv.Symbol2Coin(t.Symbol)
		if _, ok := want[coin]; !ok || coin == "" {
			continue
		}
		price, ok := exchange.ParsePrice(deref(t.Last))
		if !ok {
			continue
		}
		rate, _ := exchange.ParseDecimal(deref(t.ChangeRate))
		out[coin] = domain.Quote{
			Source:     c.Name(),
			Symbol:     coin,
			Price:      price,
			ChangeAbs:  exchange.ParseOptional(deref(t.ChangePrice)),
			ChangePct:  rate.Mul(hundred).InexactFloat64(),
			Volume:     exchange.ParseOptional(deref(t.Vol)),
			ObservedAt: now,
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
