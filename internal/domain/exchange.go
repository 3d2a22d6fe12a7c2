package domain

const (
	ExchangeBinance  = "binance"
	ExchangeCoinbase = "coinbase"
	ExchangeKucoin   = "kucoin"
)

// DefaultPriority decides whose figures head a record when several exchanges report.
func DefaultPriority() []string {
	return []string{ExchangeBinance, ExchangeKucoin, ExchangeCoinbase}
}
