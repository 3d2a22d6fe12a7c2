package svc

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"pricehub/internal/application/container"
	"pricehub/internal/application/port"
	"pricehub/internal/application/service"
	"pricehub/internal/application/usecase/broadcast"
	"pricehub/internal/infrastructure/config"
	infracontainer "pricehub/internal/infrastructure/container"
	"pricehub/internal/infrastructure/metrics"
	"pricehub/internal/infrastructure/pricefeed"
	"pricehub/internal/infrastructure/websocket"
	"pricehub/internal/interfaces/console"

	// exchange clients register themselves with pricefeed
	_ "pricehub/internal/infrastructure/exchange/binance"
	_ "pricehub/internal/infrastructure/exchange/coinbase"
	_ "pricehub/internal/infrastructure/exchange/kucoin"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	Registry *prometheus.Registry
	Metrics  *metrics.Prometheus

	Core      *container.Container
	WSManager *websocket.Manager

	infra       *infracontainer.Container
	closerChain []func() error
}

// New builds every component in dependency order. On failure whatever was
// already built is closed.
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}
	if err := sc.initializeComponents(); err != nil {
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

func (sc *ServiceContext) initializeComponents() error {
	sc.Registry = prometheus.NewRegistry()
	sc.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sc.Metrics = metrics.New(sc.Registry)

	infra, err := infracontainer.New(sc.Ctx, sc.Config)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	sc.infra = infra
	sc.closerChain = append(sc.closerChain, infra.Close)

	clients, err := buildExchangeClients(sc.Config)
	if err != nil {
		return err
	}

	var extra []service.SnapshotPublisher
	if sc.Config.App.ConsoleBoard {
		extra = append(extra, console.NewBoard(os.Stdout, broadcast.NewFormatter(sc.Config.Display.Priority), sc.Config.App.BoardTop))
	}

	sc.Core = container.New(container.Deps{
		Clients:      clients,
		Symbols:      sc.Config.Symbols.List,
		Priority:     sc.Config.Display.Priority,
		FetchTimeout: sc.Config.FetchTimeout(),
		RetryDelay:   sc.Config.RetryInterval(),
		Repo:         infra.Repository(),
		Metrics:      sc.Metrics,
		Extra:        extra,
	})
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("stopping updates and disconnecting subscribers")
		sc.Core.Close()
		return nil
	})

	srv := sc.Config.Server
	sc.WSManager = websocket.NewManager(websocket.Config{
		AllowedOrigins: srv.AllowedOrigins,
		SendBuffer:     srv.SendBuffer,
		WriteTimeout:   time.Duration(srv.WriteTimeoutSec) * time.Second,
		PingInterval:   time.Duration(srv.PingIntervalSec) * time.Second,
	}, sc.Core.Hub())

	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, c.Name())
	}
	log.Info().
		Strs("exchanges", names).
		Int("symbols", len(sc.Config.Symbols.List)).
		Msg("all components initialized")
	return nil
}

func buildExchangeClients(cfg *config.Config) ([]port.ExchangeClient, error) {
	var clients []port.ExchangeClient
	for _, name := range cfg.GetEnabledExchanges() {
		ex := cfg.Exchanges[name]
		client, err := pricefeed.Build(name, pricefeed.Options{
			BaseURL:         ex.BaseURL,
			Timeout:         ex.Timeout(),
			MaxSymbols:      ex.MaxSymbols,
			RequestInterval: ex.RequestInterval(),
		})
		if err != nil {
			log.Warn().Err(err).Str("exchange", name).Msg("skipping exchange")
			continue
		}
		clients = append(clients, client)
	}
	if len(clients) == 0 {
		return nil, ErrNoExchangesEnabled
	}
	return clients, nil
}

// Close releases resources in reverse order of creation.
func (sc *ServiceContext) Close() error {
	var firstErr error
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	sc.closerChain = nil
	return firstErr
}
