package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crawling_observer/internal/distributor"
	"crawling_observer/internal/metrics"
	"crawling_observer/internal/publisher"
	"crawling_observer/internal/scheduler"
	"crawling_observer/internal/source/fred"
	"crawling_observer/internal/storage/postgres"
)

func newRunCmd(a *app) *cobra.Command {
	var withNotifier bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the gated producers and record their results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), withNotifier)
		},
	}

	cmd.Flags().BoolVar(&withNotifier, "with-notifier", false, "also run the analysis notifier in this process")

	return cmd
}

func (a *app) run(ctx context.Context, withNotifier bool) error {
	cfg := a.cfg
	logger := a.logger

	db, err := a.connectDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	collector, err := metrics.New()
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}
	stopMetrics := a.serveMetrics(collector)
	defer stopMetrics()

	cooldowns, closeCooldowns, err := a.newCooldowns(ctx)
	if err != nil {
		return err
	}
	defer closeCooldowns()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	schedules, err := cfg.ProducerSchedules()
	if err != nil {
		return err
	}

	gate := scheduler.NewGate(schedules, cooldowns, scheduler.GateOptions{
		Location:     loc,
		TestMode:     cfg.Scheduler.TestMode.Toggle,
		TestInterval: cfg.Scheduler.TestMode.Interval,
		Recorder:     collector,
	}, logger)

	var pub distributor.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	registry := distributor.NewRegistry(postgres.Handlers(db)...)
	dist := distributor.New(
		postgres.NewCrawlingLogStore(db),
		postgres.NewTransactionManager(db),
		registry,
		pub,
		collector,
		logger,
		distributor.Config{Workers: cfg.Distributor.Workers},
	)

	fredSource := fred.New(fred.Config{
		Name:           cfg.Fred.Name,
		BaseURL:        cfg.Fred.BaseURL,
		APIKey:         cfg.Fred.APIKey,
		Series:         cfg.Fred.Series,
		Timeout:        cfg.Fred.Timeout,
		MaxAttempts:    cfg.Fred.Retry.MaxAttempts,
		InitialBackoff: cfg.Fred.Retry.InitialBackoff,
		MaxBackoff:     cfg.Fred.Retry.MaxBackoff,
	}, logger)

	runner := scheduler.NewRunner(gate, dist, scheduler.RunnerConfig{
		PollInterval: cfg.Scheduler.PollInterval,
		RunTimeout:   cfg.Scheduler.RunTimeout,
		RunOnStart:   !cfg.Scheduler.TestMode.Toggle,
	}, logger, fredSource)

	logger.Info("starting crawling observer",
		"timezone", loc.String(),
		"test_mode", cfg.Scheduler.TestMode.Toggle,
		"cooldown_backend", cfg.Scheduler.CooldownBackend,
		"tags", registry.Tags(),
		"with_notifier", withNotifier,
	)

	g, gctx := errgroup.WithContext(ctx)

	if withNotifier {
		n, closeNotifier, err := a.newNotifier(db, collector)
		if err != nil {
			return err
		}
		defer closeNotifier()

		g.Go(func() error {
			return n.Run(gctx)
		})
	}

	g.Go(func() error {
		return runner.Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run observer: %w", err)
	}
	return nil
}

func (a *app) newCooldowns(ctx context.Context) (scheduler.CooldownStore, func(), error) {
	if a.cfg.Scheduler.CooldownBackend != "redis" {
		return scheduler.NewMemoryCooldowns(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.logger.Info("connected to redis", "addr", a.cfg.Redis.Addr)

	return scheduler.NewRedisCooldowns(client), func() { client.Close() }, nil
}

// serveMetrics starts the metrics endpoint when an address is configured and
// returns its shutdown func.
func (a *app) serveMetrics(collector *metrics.Collector) func() {
	if a.cfg.Metrics.Addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("metrics server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
