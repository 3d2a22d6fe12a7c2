package domain

import "time"

// Snapshot is the merged view of all tracked assets for one refresh cycle.
// It is built once and replaced wholesale; nothing mutates it after NewSnapshot returns.
type Snapshot struct {
	Seq     uint64
	TakenAt time.Time

	order  []string
	quotes map[string]AggregatedQuote
}

// NewSnapshot keeps quotes in the given order and drops symbols nobody reported.
func NewSnapshot(seq uint64, takenAt time.Time, quotes []AggregatedQuote) *Snapshot {
	s := &Snapshot{
		Seq:     seq,
		TakenAt: takenAt,
		order:   make([]string, 0, len(quotes)),
		quotes:  make(map[string]AggregatedQuote, len(quotes)),
	}
	for _, q := range quotes {
		if q.SourceCount == 0 {
			continue
		}
		if _, dup := s.quotes[q.Symbol]; dup {
			continue
		}
		s.order = append(s.order, q.Symbol)
		s.quotes[q.Symbol] = q
	}
	return s
}

// EmptySnapshot is what readers see before the first cycle completes.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(0, time.Time{}, nil)
}

func (s *Snapshot) Len() int { return len(s.order) }

func (s *Snapshot) Empty() bool { return len(s.order) == 0 }

// Published reports whether the snapshot came out of a completed cycle.
func (s *Snapshot) Published() bool { return s.Seq > 0 }

func (s *Snapshot) Get(symbol string) (AggregatedQuote, bool) {
	q, ok := s.quotes[symbol]
	return q, ok
}

// Symbols returns present symbols in universe order.
func (s *Snapshot) Symbols() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Quotes returns the aggregated quotes in universe order.
func (s *Snapshot) Quotes() []AggregatedQuote {
	out := make([]AggregatedQuote, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, s.quotes[sym])
	}
	return out
}
