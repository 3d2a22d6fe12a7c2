package exchange

import (
	"strings"
)

// SymbolConverter maps between an exchange's pair names and bare asset symbols.
type SymbolConverter interface {
	// Symbol2Coin: BTCUSDT -> BTC, BTC-USDT -> BTC
	Symbol2Coin(symbol string) string

	// Coin2Symbol: BTC -> BTCUSDT
	Coin2Symbol(coin string) string
}

// CommonSymbolConverter handles exchanges whose pairs are the coin plus a fixed quote suffix.
type CommonSymbolConverter struct {
	suffix string
}

func NewCommonSymbolConverter(suffix string) *CommonSymbolConverter {
	return &CommonSymbolConverter{suffix: strings.ToUpper(strings.TrimSpace(suffix))}
}

// Symbol2Coin returns "" when symbol is not quoted in the converter's suffix.
func (c *CommonSymbolConverter) Symbol2Coin(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" || !strings.HasSuffix(sym, c.suffix) {
		return ""
	}
	return strings.TrimSuffix(sym, c.suffix)
}

func (c *CommonSymbolConverter) Coin2Symbol(coin string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return ""
	}
	if strings.HasSuffix(coin, c.suffix) {
		return coin
	}
	return coin + c.suffix
}

var _ SymbolConverter = (*CommonSymbolConverter)(nil)
