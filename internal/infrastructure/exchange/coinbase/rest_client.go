package coinbase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/exchange"
	"pricehub/internal/infrastructure/pricefeed"
)

const (
	DefaultBaseURL         = "https://api.exchange.coinbase.com"
	DefaultMaxSymbols      = 10
	DefaultRequestInterval = 100 * time.Millisecond
)

type tickerResp struct {
	Price  string `json:"price"`
	Volume string `json:"volume"`
}

type statsResp struct {
	Open   string `json:"open"`
	Last   string `json:"last"`
	Volume string `json:"volume"`
}

// RESTClient queries Coinbase one product at a time (ticker plus 24h stats),
// so it only covers the first MaxSymbols assets and paces its requests.
type RESTClient struct {
	baseURL    string
	client     *http.Client
	maxSymbols int
	interval   time.Duration
	now        func() time.Time
}

func NewRESTClient(opts pricefeed.Options) *RESTClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxSymbols <= 0 {
		opts.MaxSymbols = DefaultMaxSymbols
	}
	if opts.RequestInterval < 0 {
		opts.RequestInterval = 0
	}
	client := opts.HTTPClient
	if client == nil {
		client = exchange.NewHTTPClient(opts.Timeout)
	}
	return &RESTClient{
		baseURL:    opts.BaseURL,
		client:     client,
		maxSymbols: opts.MaxSymbols,
		interval:   opts.RequestInterval,
		now:        time.Now,
	}
}

func (c *RESTClient) Name() string { return domain.ExchangeCoinbase }

// Fetch skips products that fail individually. It errors only when every
// attempted product failed; a deadline hit mid-way keeps what was collected.
func (c *RESTClient) Fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if len(symbols) > c.maxSymbols {
		symbols = symbols[:c.maxSymbols]
	}

	out := make(map[string]domain.Quote, len(symbols))
	var firstErr error
	for i, sym := range symbols {
		if i > 0 {
			if err := exchange.Sleep(ctx, c.interval); err != nil {
				if firstErr == nil {
					firstErr = port.NewFetchError(c.Name(), port.FetchNetwork, err)
				}
				log.Debug().Err(err).Int("fetched", len(out)).Msg("coinbase pacing interrupted")
				break
			}
		}

		coin := strings.ToUpper(strings.TrimSpace(sym))
		q, err := c.fetchProduct(ctx, coin)
		if err != nil {
			log.Debug().Err(err).Str("symbol", coin).Msg("coinbase product skipped")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[coin] = q
	}

	if len(out) == 0 && firstErr != nil {
		var fe *port.FetchError
		if errors.As(firstErr, &fe) {
			return nil, fe
		}
		return nil, port.NewFetchError(c.Name(), port.FetchBadPayload, firstErr)
	}
	return out, nil
}

func (c *RESTClient) fetchProduct(ctx context.Context, coin string) (domain.Quote, error) {
	product := coin + "-USD"

	tickerURL, err := exchange.BuildQueryURL(c.baseURL, "/products/"+product+"/ticker", "")
	if err != nil {
		return domain.Quote{}, port.NewFetchError(c.Name(), port.FetchNetwork, err)
	}
	var ticker tickerResp
	if err := exchange.GetJSON(ctx, c.client, c.Name(), tickerURL, &ticker); err != nil {
		return domain.Quote{}, err
	}

	statsURL, err := exchange.BuildQueryURL(c.baseURL, "/products/"+product+"/stats", "")
	if err != nil {
		return domain.Quote{}, port.NewFetchError(c.Name(), port.FetchNetwork, err)
	}
	var stats statsResp
	if err := exchange.GetJSON(ctx, c.client, c.Name(), statsURL, &stats); err != nil {
		return domain.Quote{}, err
	}

	price, ok := exchange.ParseDecimal(ticker.Price)
	if !ok || !price.IsPositive() {
		return domain.Quote{}, port.NewFetchError(c.Name(), port.FetchBadPayload, errors.New("invalid price for "+product))
	}

	open, ok := exchange.ParseDecimal(stats.Open)
	if !ok {
		open = price
	}
	change := price.Sub(open)
	pct := decimal.Zero
	if open.IsPositive() {
		pct = change.Div(open).Mul(decimal.NewFromInt(100))
	}

	return domain.Quote{
		Source:     c.Name(),
		Symbol:     coin,
		Price:      price.InexactFloat64(),
		ChangeAbs:  change.InexactFloat64(),
		ChangePct:  pct.InexactFloat64(),
		Volume:     exchange.ParseOptional(stats.Volume),
		ObservedAt: c.now(),
	}, nil
}
