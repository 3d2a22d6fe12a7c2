package kucoin

import (
	"pricehub/internal/application/port"
	"pricehub/internal/domain"
	"pricehub/internal/infrastructure/pricefeed"
)

func init() {
	pricefeed.Register(domain.ExchangeKucoin, func(opts pricefeed.Options) port.ExchangeClient {
		return NewRESTClient(opts)
	})
}
