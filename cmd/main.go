package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/neuroloom/dashboard-gateway/config"
	"github.com/neuroloom/dashboard-gateway/internal/forwarder"
	"github.com/neuroloom/dashboard-gateway/internal/handler"
	"github.com/neuroloom/dashboard-gateway/internal/healthcheck"
	"github.com/neuroloom/dashboard-gateway/internal/httpserver"
	"github.com/neuroloom/dashboard-gateway/internal/insights"
	"github.com/neuroloom/dashboard-gateway/internal/metrics"
	"github.com/neuroloom/dashboard-gateway/internal/upstream"
	"github.com/neuroloom/dashboard-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.Options{
		Level:       cfg.Logging.Level,
		Environment: cfg.Server.Environment,
		AddSource:   cfg.Server.Environment != config.EnvProd,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Gateway stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

// run serves until ctx is done or the server fails. The metrics collector
// and the health probe share its lifetime.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	opts, err := serverOptions(cfg.Server)
	if err != nil {
		return err
	}

	probeInterval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return fmt.Errorf("health_check.interval: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("insights.timezone: %w", err)
	}

	core := upstream.New(cfg.Upstream.BaseURL, nil)
	enrollments := upstream.New(cfg.Insights.EnrollmentsURL, nil)

	reg := prometheus.NewRegistry()
	if err := registerRuntimeCollectors(reg, cfg.Metrics.Namespace); err != nil {
		return fmt.Errorf("register collectors: %w", err)
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, cfg.Metrics.Namespace, reg, log)

	proxyHandler := handler.NewProxyHandler(log, forwarder.New(core), collector)
	insightsHandler := handler.NewInsightsHandler(log, insights.NewClient(core, enrollments, loc), collector)

	mux := setupRouter(log, proxyHandler, insightsHandler, collector, core, reg)

	srv, err := httpserver.New(cfg.Server.Address, mux, opts)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("Starting gateway",
		slog.String("addr", srv.Addr()),
		slog.String("upstream", core.Base()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		return srv.Shutdown(context.Background())
	})
	g.Go(func() error {
		collector.Run(gctx)
		return nil
	})
	g.Go(func() error {
		healthcheck.HealthCheck(gctx, core, cfg.HealthCheck.Path, probeInterval, log, collector)
		return nil
	})

	return g.Wait()
}

func serverOptions(sc config.ServerConfig) (httpserver.Options, error) {
	var opts httpserver.Options

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"server.read_timeout", sc.ReadTimeout, &opts.ReadTimeout},
		{"server.write_timeout", sc.WriteTimeout, &opts.WriteTimeout},
		{"server.idle_timeout", sc.IdleTimeout, &opts.IdleTimeout},
		{"server.shutdown_timeout", sc.ShutdownTimeout, &opts.ShutdownTimeout},
	}

	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return httpserver.Options{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return opts, nil
}

func registerRuntimeCollectors(reg prometheus.Registerer, namespace string) error {
	return errors.Join(
		reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace})),
		reg.Register(collectors.NewGoCollector()),
	)
}
