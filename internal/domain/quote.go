package domain

import (
	"sort"
	"time"
)

// Quote is one exchange's normalized reading of a single asset.
// It is produced by exactly one fetch and never modified afterwards.
type Quote struct {
	Source     string
	Symbol     string
	Price      float64
	ChangeAbs  float64
	ChangePct  float64
	Volume     float64
	ObservedAt time.Time
}

// AggregatedQuote merges every source that reported a symbol in one cycle.
type AggregatedQuote struct {
	Symbol       string
	PerSource    map[string]Quote
	AveragePrice float64
	SourceCount  int
	ObservedAt   time.Time
}

// NewAggregatedQuote builds the merged view for symbol from the contributing quotes.
// AveragePrice is the plain arithmetic mean; no source is weighted over another.
func NewAggregatedQuote(symbol string, quotes []Quote, at time.Time) AggregatedQuote {
	aq := AggregatedQuote{
		Symbol:     symbol,
		PerSource:  make(map[string]Quote, len(quotes)),
		ObservedAt: at,
	}
	for _, q := range quotes {
		aq.PerSource[q.Source] = q
	}
	if len(aq.PerSource) == 0 {
		return aq
	}

	var sum float64
	for _, q := range aq.PerSource {
		sum += q.Price
	}
	aq.SourceCount = len(aq.PerSource)
	aq.AveragePrice = sum / float64(aq.SourceCount)
	return aq
}

// Sources returns the reporting exchange ids in lexical order.
func (a AggregatedQuote) Sources() []string {
	out := make([]string, 0, len(a.PerSource))
	for src := range a.PerSource {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
