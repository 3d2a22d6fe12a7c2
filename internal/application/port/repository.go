package port

import (
	"context"

	"pricehub/internal/domain"
)

// Repository mirrors the current state to external storage.
// Implementations overwrite previous values; no history is kept.
type Repository interface {
	UpsertLatestQuotes(ctx context.Context, quotes []domain.Quote) error
	PutLatestSnapshot(ctx context.Context, ts int64, payload []byte) error

	Close() error
}
