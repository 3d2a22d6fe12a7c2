package domain

var displayNames = map[string]string{
	"BTC":   "Bitcoin",
	"ETH":   "Ethereum",
	"BNB":   "BNB",
	"XRP":   "XRP",
	"ADA":   "Cardano",
	"SOL":   "Solana",
	"DOGE":  "Dogecoin",
	"DOT":   "Polkadot",
	"MATIC": "Polygon",
	"LTC":   "Litecoin",
	"SHIB":  "Shiba Inu",
	"TRX":   "TRON",
	"AVAX":  "Avalanche",
	"UNI":   "Uniswap",
	"ATOM":  "Cosmos",
	"LINK":  "Chainlink",
	"XMR":   "Monero",
	"ETC":   "Ethereum Classic",
	"BCH":   "Bitcoin Cash",
	"NEAR":  "NEAR Protocol",
	"APT":   "Aptos",
	"QNT":   "Quant",
	"ICP":   "Internet Computer",
	"FIL":   "Filecoin",
	"VET":   "VeChain",
	"HBAR":  "Hedera",
	"ALGO":  "Algorand",
	"MANA":  "Decentraland",
	"SAND":  "The Sandbox",
	"AXS":   "Axie Infinity",
}

// DisplayName returns the human readable asset name, or the symbol itself when unknown.
func DisplayName(symbol string) string {
	if n, ok := displayNames[symbol]; ok {
		return n
	}
	return symbol
}

// DefaultSymbols is the universe used when the config does not list one.
func DefaultSymbols() []string {
	return []string{
		"BTC", "ETH", "BNB", "XRP", "ADA", "SOL", "DOGE", "DOT", "MATIC", "LTC",
		"SHIB", "TRX", "AVAX", "UNI", "ATOM", "LINK", "XMR", "ETC", "BCH", "NEAR",
		"APT", "QNT", "ICP", "FIL", "VET", "HBAR", "ALGO", "MANA", "SAND", "AXS",
	}
}
