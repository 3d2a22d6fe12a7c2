package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pricehub/internal/infrastructure/config"
	"pricehub/internal/infrastructure/logger"
	"pricehub/internal/infrastructure/svc"
	"pricehub/internal/interfaces/httpapi"
)

func main() {
	logger.Setup("info", true)

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Console)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("pricehub exited with error")
	}
	log.Info().Msg("pricehub stopped")
}

// run serves until ctx is cancelled or the server fails, then releases
// every resource. A bind failure is returned.
func run(ctx context.Context, cfg *config.Config) error {
	sc, err := svc.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("service initialization: %w", err)
	}

	api := httpapi.NewServer(httpapi.Deps{
		Core:           sc.Core,
		Formatter:      sc.Core.Formatter(),
		WS:             sc.WSManager,
		WSPath:         cfg.Server.WSPath,
		Gatherer:       sc.Registry,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Service:        cfg.App.Name,
		RunCtx:         ctx,
		UpdateInterval: cfg.RefreshInterval(),
		RefreshTimeout: cfg.FetchTimeout() * 2,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.App.Autostart {
		sc.Core.StartPeriodicUpdates(ctx, cfg.RefreshInterval())
	}

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("ws_path", cfg.Server.WSPath).
		Int("symbols", len(cfg.Symbols.List)).
		Dur("interval", cfg.RefreshInterval()).
		Bool("autostart", cfg.App.Autostart).
		Msg("pricehub started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		// subscribers get a close frame before the listener goes away
		sc.Core.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sc.WSManager.Wait()
		return err
	})

	serveErr := g.Wait()
	if err := sc.Close(); err != nil {
		log.Error().Err(err).Msg("close resources failed")
	}
	return serveErr
}
