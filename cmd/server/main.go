package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Relay/internal/adapters/http"
	wssignal "github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/logging"
	"github.com/dkeye/Relay/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("relay exited")
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Console logger first so config loading can log.
	logging.Init()

	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	loader, err := config.NewLoader(fs)
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closer := logging.Setup(cfg.Log)
	defer closer.Close()
	loader.Watch(func(next *config.Config) {
		logging.SetLevel(next.Log.Level)
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewPrometheus(reg)
	if err != nil {
		return err
	}

	policy, err := app.ParsePolicy(cfg.SlowClientPolicy)
	if err != nil {
		return err
	}
	calls := app.NewCallTracker(cfg.Calls.RingTimeout)
	defer calls.Stop()

	hub := wssignal.NewHub()
	o := orch.New(orch.Options{
		Presence:  app.NewPresenceRegistry(),
		Calls:     calls,
		Transport: hub,
		Policy:    policy,
		Metrics:   rec,
		Strict:    cfg.Calls.Strict,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{Orch: o, Hub: hub, Gatherer: reg})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Bool("strict_calls", cfg.Calls.Strict).Dur("ring_timeout", cfg.Calls.RingTimeout).Msg("Relay server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		err := srv.Shutdown(shutdownCtx)
		hub.CloseAll()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
