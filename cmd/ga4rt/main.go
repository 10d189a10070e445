// Command ga4rt polls the GA4 realtime API on a schedule and serves the
// latest snapshot over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/listical/ga4-realtime/internal/api"
	"github.com/listical/ga4-realtime/internal/client"
	"github.com/listical/ga4-realtime/internal/config"
	"github.com/listical/ga4-realtime/internal/engine"
	"github.com/listical/ga4-realtime/internal/logging"
	"github.com/listical/ga4-realtime/internal/metrics"
	"github.com/listical/ga4-realtime/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		stop()
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("ga4rt failed")
	}
}

// run parses flags, loads configuration and serves until ctx is done.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("ga4rt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: ./.env when present)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: ga4rt [--config path]\n\n")
		fmt.Fprintf(stderr, "Configuration is read from the environment; see the README for keys.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}

	c, err := client.NewDefaultClient(ctx, cfg.ClientConfig())
	if err != nil {
		return fmt.Errorf("create analytics client: %w", err)
	}

	return serve(ctx, cfg, c, logger)
}

// serve wires the store, refreshers and HTTP server and runs them until ctx
// is done or one of them fails.
func serve(ctx context.Context, cfg *config.Config, c client.AnalyticsClient, logger zerolog.Logger) error {
	st := store.New()
	m := metrics.New()

	refreshers := newRefreshers(cfg, c, st, logger, m)
	sources := make([]api.StatusSource, len(refreshers))
	for i, r := range refreshers {
		sources[i] = r
	}

	srv := api.NewServer(api.ServerConfig{
		Addr:       cfg.Addr(),
		CORSOrigin: cfg.CORSOrigin,
		Logger:     logging.Component(logger, "api"),
		Metrics:    m,
	}, st, sources...)

	logger.Info().
		Str("property", cfg.PropertyID).
		Dur("realtime_interval", cfg.RealtimeInterval).
		Bool("totals_enabled", cfg.TotalsEnabled).
		Msg("starting ga4rt")

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range refreshers {
		g.Go(func() error { return r.Run(gctx) })
	}
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

// newRefreshers builds the realtime refresher and, when enabled, the
// total-visitors refresher.
func newRefreshers(cfg *config.Config, c client.AnalyticsClient, st *store.Store, logger zerolog.Logger, m *metrics.Metrics) []*engine.Refresher {
	engineLog := logging.Component(logger, "engine")

	out := []*engine.Refresher{
		engine.NewRefresher(engine.RefresherConfig{
			Name:     "realtime",
			Interval: cfg.RealtimeInterval,
			Timeout:  cfg.RequestTimeout,
			Logger:   engineLog,
			Metrics:  m,
		}, engine.RealtimeJob(c, cfg.RealtimeQuery(), st)),
	}
	if cfg.TotalsEnabled {
		out = append(out, engine.NewRefresher(engine.RefresherConfig{
			Name:     "total_visitors",
			Interval: cfg.TotalsInterval,
			Timeout:  cfg.RequestTimeout,
			Logger:   engineLog,
			Metrics:  m,
		}, engine.TotalVisitorsJob(c, cfg.TotalsQuery(), st)))
	}
	return out
}
