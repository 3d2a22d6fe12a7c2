package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

// SnapshotEncoder renders a snapshot into the payload stored by the mirror.
type SnapshotEncoder func(snap *domain.Snapshot) ([]byte, error)

// SnapshotService mirrors every published snapshot to the repository.
// Mirroring is best effort: failures are logged and never fail the cycle.
type SnapshotService struct {
	repo    port.Repository
	encode  SnapshotEncoder
	timeout time.Duration
}

func NewSnapshotService(repo port.Repository, encode SnapshotEncoder) *SnapshotService {
	return &SnapshotService{repo: repo, encode: encode, timeout: 5 * time.Second}
}

func (s *SnapshotService) Publish(ctx context.Context, snap *domain.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var quotes []domain.Quote
	for _, aq := range snap.Quotes() {
		for _, src := range aq.Sources() {
			quotes = append(quotes, aq.PerSource[src])
		}
	}
	if err := s.repo.UpsertLatestQuotes(ctx, quotes); err != nil {
		log.Warn().Err(err).Uint64("seq", snap.Seq).Msg("mirror quotes failed")
	}

	payload, err := s.encode(snap)
	if err != nil {
		log.Warn().Err(err).Uint64("seq", snap.Seq).Msg("mirror encode failed")
		return nil
	}
	if err := s.repo.PutLatestSnapshot(ctx, snap.TakenAt.UnixMilli(), payload); err != nil {
		log.Warn().Err(err).Uint64("seq", snap.Seq).Msg("mirror snapshot failed")
	}
	return nil
}

var _ SnapshotPublisher = (*SnapshotService)(nil)
