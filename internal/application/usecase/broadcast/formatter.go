package broadcast

import (
	"encoding/json"
	"sort"
	"strings"

	"pricehub/internal/domain"
)

// Formatter turns aggregated quotes into wire records. The primary price of a
// record comes from the highest-priority exchange that reported the symbol; the
// average is used only when none of the prioritized exchanges did.
type Formatter struct {
	priority []string
}

func NewFormatter(priority []string) *Formatter {
	p := make([]string, 0, len(priority))
	for _, ex := range priority {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex != "" {
			p = append(p, ex)
		}
	}
	return &Formatter{priority: p}
}

// Primary returns the source chosen for the headline figures, or "" for the average fallback.
func (f *Formatter) Primary(aq domain.AggregatedQuote) (source string, price, change, changePct float64) {
	for _, ex := range f.priority {
		if q, ok := aq.PerSource[ex]; ok {
			return ex, q.Price, q.ChangeAbs, q.ChangePct
		}
	}
	return "", aq.AveragePrice, 0, 0
}

func (f *Formatter) Record(aq domain.AggregatedQuote) Record {
	_, price, change, pct := f.Primary(aq)

	exchanges := make(map[string]ExchangeQuote, len(aq.PerSource))
	for src, q := range aq.PerSource {
		exchanges[src] = ExchangeQuote{
			Exchange:         src,
			Symbol:           q.Symbol,
			Price:            q.Price,
			Change24h:        q.ChangeAbs,
			Change24hPercent: q.ChangePct,
			Volume24h:        q.Volume,
			Timestamp:        q.ObservedAt.Unix(),
		}
	}

	return Record{
		Symbol:           aq.Symbol,
		Name:             domain.DisplayName(aq.Symbol),
		Price:            price,
		Change24h:        change,
		Change24hPercent: pct,
		Exchanges:        exchanges,
		PriceSources:     aq.SourceCount,
		Timestamp:        aq.ObservedAt.Unix(),
	}
}

// Records formats the snapshot sorted by primary price, highest first.
// Equal prices fall back to symbol order.
func (f *Formatter) Records(snap *domain.Snapshot) []Record {
	quotes := snap.Quotes()
	out := make([]Record, 0, len(quotes))
	for _, aq := range quotes {
		out = append(out, f.Record(aq))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price > out[j].Price
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Encode renders the snapshot as a bare JSON array of records.
func (f *Formatter) Encode(snap *domain.Snapshot) ([]byte, error) {
	return json.Marshal(f.Records(snap))
}
