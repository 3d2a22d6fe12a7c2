package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricehub/internal/application/port"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 16 << 20
	maxErrSnippet  = 256
)

// NewHTTPClient returns the client used for one exchange's REST calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// GetJSON issues a GET and decodes a 200 response into out. Failures come back
// as *port.FetchError tagged with source.
func GetJSON(ctx context.Context, client *http.Client, source, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return port.NewFetchError(source, port.FetchNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return port.NewFetchError(source, port.FetchNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return port.NewFetchError(source, port.FetchNetwork, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		fe := port.NewFetchError(source, port.FetchBadStatus, errors.New(snippet(body)))
		fe.Status = resp.StatusCode
		return fe
	}

	if err := ParseJSON(body, out); err != nil {
		return port.NewFetchError(source, port.FetchBadPayload, err)
	}
	return nil
}

// ParseJSON safely parses JSON
func ParseJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// BuildQueryURL builds a URL with query parameters
func BuildQueryURL(base, path, query string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", errors.New("base url is empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query
	return u.String(), nil
}

// ParseDecimal reads a numeric string as exchanges send it. ok is false for
// empty or malformed input.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePrice is ParseDecimal restricted to strictly positive values.
func ParsePrice(s string) (float64, bool) {
	d, ok := ParseDecimal(s)
	if !ok || !d.IsPositive() {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ParseOptional returns 0 for missing or malformed values.
func ParseOptional(s string) float64 {
	d, _ := ParseDecimal(s)
	return d.InexactFloat64()
}

// SymbolSet upper-cases symbols into a lookup set.
func SymbolSet(symbols []string) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return set
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrSnippet {
		s = s[:maxErrSnippet] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
