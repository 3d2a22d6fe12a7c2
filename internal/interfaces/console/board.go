package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"pricehub/internal/application/usecase/broadcast"
	"pricehub/internal/domain"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

// Board prints one line per snapshot with the top symbols by price, coloured
// by the move since the previous snapshot.
type Board struct {
	mu   sync.Mutex
	out  io.Writer
	fmt  *broadcast.Formatter
	top  int
	prev map[string]float64
}

func NewBoard(out io.Writer, f *broadcast.Formatter, top int) *Board {
	if out == nil {
		out = os.Stdout
	}
	if top <= 0 {
		top = 5
	}
	return &Board{out: out, fmt: f, top: top, prev: make(map[string]float64)}
}

func (b *Board) Publish(_ context.Context, snap *domain.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := fmt.Fprintln(b.out, b.render(snap))
	return err
}

func (b *Board) render(snap *domain.Snapshot) string {
	records := b.fmt.Records(snap)

	var sb strings.Builder
	sb.WriteString(colorize(fmt.Sprintf("[PRICEHUB #%d] ", snap.Seq), ansiDim))
	if len(records) == 0 {
		sb.WriteString(colorize("no data", ansiYellow))
	}

	for i, r := range records {
		if i >= b.top {
			break
		}
		if i > 0 {
			sb.WriteString(colorize("  ||  ", ansiDim))
		}
		col := ansiYellow
		if p, ok := b.prev[r.Symbol]; ok {
			switch {
			case r.Price > p:
				col = ansiGreen
			case r.Price < p:
				col = ansiRed
			}
		}
		sb.WriteString(r.Symbol)
		sb.WriteString(" ")
		sb.WriteString(colorize(formatPrice(r.Price), col))
		sb.WriteString(" ")
		sb.WriteString(colorize(fmt.Sprintf("%+.2f%%", r.Change24hPercent), ansiDim))
		sb.WriteString(colorize(fmt.Sprintf(" (%d)", r.PriceSources), ansiDim))
	}

	next := make(map[string]float64, len(records))
	for _, r := range records {
		next[r.Symbol] = r.Price
	}
	b.prev = next
	return sb.String()
}

func formatPrice(p float64) string {
	switch {
	case p >= 1000:
		return fmt.Sprintf("%.2f", p)
	case p >= 1:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.8f", p)
	}
}
