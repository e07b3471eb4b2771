package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/protodoc/pkg/api"
	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func newServeCommand() *Command {
	return &Command{
		Name:        "serve",
		Description: "Serve descriptor queries over HTTP",
		Flags:       flag.NewFlagSet("serve", flag.ExitOnError),
		Run:         runServe,
	}
}

func runServe(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	load := addLoadFlags(flags)
	port := flags.String("port", "", "Port to listen on (overrides the config)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := load.load()
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg)
}

// serve runs the query server, and the watcher and scheduler when enabled,
// until ctx is done or one of them fails.
func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	source, err := registry.ParseSource(ctx, cfg.Source.URI, cfg.Source.S3Options())
	if err != nil {
		return err
	}
	schema, err := buildSchema(ctx, cfg.Schema)
	if err != nil {
		return err
	}

	var (
		metrics  *observability.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Observability.MetricsEnabled {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(promRegistry)
		gatherer = promRegistry
	}

	reg := registry.New(source,
		registry.WithSchema(schema),
		registry.WithExclusions(cfg.Schema.Exclusions),
		registry.WithStrict(cfg.Source.Strict),
		registry.WithMetrics(metrics),
		registry.WithLogger(logger),
	)
	// Queries answer 503 until a reload succeeds
	if _, err := reg.Reload(ctx, registry.TriggerStartup); err != nil {
		logger.WithError(err).Warn("Initial descriptor set load failed")
	}

	server := api.NewServer(reg, api.Options{
		CacheSize:   cfg.Cache.Size,
		CacheTTL:    cfg.Cache.TTL,
		Metrics:     metrics,
		Gatherer:    gatherer,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	var watcher *registry.Watcher
	if cfg.Reload.Watch {
		file, ok := source.(*registry.FileSource)
		if !ok {
			return fmt.Errorf("watching is only supported for file sources, not %s", source)
		}
		watcher = registry.NewWatcher(reg, file.Path, cfg.Reload.Debounce, logger)
	}
	var scheduler *registry.Scheduler
	if cfg.Reload.Schedule != "" {
		if scheduler, err = registry.NewScheduler(reg, cfg.Reload.Schedule, logger); err != nil {
			return err
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.ListenAndServe(ctx, api.HTTPOptions{
			Addr:            cfg.Server.Addr(),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			IdleTimeout:     cfg.Server.IdleTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		})
	})
	if watcher != nil {
		eg.Go(func() error { return watcher.Run(ctx) })
	}
	if scheduler != nil {
		eg.Go(func() error { return scheduler.Run(ctx) })
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Shut down")
	return nil
}
