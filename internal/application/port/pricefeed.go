package port

import (
	"context"
	"fmt"

	"pricehub/internal/domain"
)

// FetchErrorKind classifies why one exchange failed to deliver quotes.
type FetchErrorKind string

const (
	FetchNetwork    FetchErrorKind = "network"
	FetchBadStatus  FetchErrorKind = "bad_status"
	FetchBadPayload FetchErrorKind = "bad_payload"
)

// FetchError is scoped to one exchange and one cycle.
type FetchError struct {
	Source string
	Kind   FetchErrorKind
	Status int // HTTP status, set for FetchBadStatus
	Err    error
}

func NewFetchError(source string, kind FetchErrorKind, err error) *FetchError {
	return &FetchError{Source: source, Kind: kind, Err: err}
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s fetch %s (http %d): %v", e.Source, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExchangeClient fetches the current quotes of one upstream exchange.
//
// Symbols that the exchange does not list, or whose fields cannot be parsed,
// are left out of the result. Everything else that goes wrong is returned as
// a *FetchError.
type ExchangeClient interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
}
