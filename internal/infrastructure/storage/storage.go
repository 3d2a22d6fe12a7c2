package storage

import (
	"context"
	"fmt"
	"sync"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

// QuoteKey is how backends address one exchange's quote for one asset.
func QuoteKey(exchange, symbol string) string {
	return fmt.Sprintf("%s:%s", exchange, symbol)
}

// LatestQuote is the stored row for one (exchange, symbol) pair.
type LatestQuote struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	ChangeAbs float64 `json:"change_24h"`
	ChangePct float64 `json:"change_24h_percent"`
	Volume    float64 `json:"volume_24h"`
	TsMs      int64   `json:"ts_ms"`
}

func NewLatestQuote(q domain.Quote) LatestQuote {
	return LatestQuote{
		Exchange:  q.Source,
		Symbol:    q.Symbol,
		Price:     q.Price,
		ChangeAbs: q.ChangeAbs,
		ChangePct: q.ChangePct,
		Volume:    q.Volume,
		TsMs:      q.ObservedAt.UnixMilli(),
	}
}

// Memory keeps the mirrored state in process. It backs tests and runs with no
// external store configured.
type Memory struct {
	mu         sync.RWMutex
	quotes     map[string]LatestQuote
	snapshotTs int64
	snapshot   []byte
}

func NewMemory() *Memory {
	return &Memory{quotes: make(map[string]LatestQuote)}
}

func (m *Memory) UpsertLatestQuotes(_ context.Context, quotes []domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range quotes {
		if q.Price <= 0 {
			continue
		}
		m.quotes[QuoteKey(q.Source, q.Symbol)] = NewLatestQuote(q)
	}
	return nil
}

func (m *Memory) PutLatestSnapshot(_ context.Context, ts int64, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotTs = ts
	m.snapshot = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) Quote(exchange, symbol string) (LatestQuote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[QuoteKey(exchange, symbol)]
	return q, ok
}

func (m *Memory) LatestSnapshot() (int64, []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotTs, append([]byte(nil), m.snapshot...)
}

func (m *Memory) Close() error { return nil }

var _ port.Repository = (*Memory)(nil)
