package composite

import (
	"context"
	"errors"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

// Repo writes to every configured backend. Each backend is attempted even
// when an earlier one fails; the errors are joined.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) UpsertLatestQuotes(ctx context.Context, quotes []domain.Quote) error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestQuotes(ctx, quotes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Repo) PutLatestSnapshot(ctx context.Context, ts int64, payload []byte) error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.PutLatestSnapshot(ctx, ts, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.Repository = (*Repo)(nil)
