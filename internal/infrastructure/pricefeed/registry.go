package pricefeed

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
)

// Options carries the per-exchange settings from config.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	MaxSymbols      int
	RequestInterval time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Factory builds a client for one exchange.
type Factory func(opts Options) port.ExchangeClient

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register is called from each exchange package's init().
func Register(exchangeName string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", exchangeName).Msg("invalid exchange client factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[exchangeName]; exists {
		log.Warn().Str("exchange", exchangeName).Msg("exchange client factory already registered, overwriting")
	}
	registry[exchangeName] = factory
}

func Get(exchangeName string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := registry[exchangeName]
	return factory, ok
}

// Names lists registered exchanges in lexical order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build looks up the factory for exchangeName and constructs its client.
func Build(exchangeName string, opts Options) (port.ExchangeClient, error) {
	factory, ok := Get(exchangeName)
	if !ok {
		return nil, fmt.Errorf("no exchange client registered for %q", exchangeName)
	}
	return factory(opts), nil
}
