package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"crawling_observer/internal/domain"
)

// Producer is an independent data-collection task gated by the scheduler.
type Producer interface {
	Name() string
	Produce(ctx context.Context) ([]domain.Batch, error)
}

// Decider is satisfied by *Gate.
type Decider interface {
	MayRun(ctx context.Context, producer string) (bool, error)
}

// Distributor defines the interface for recording produced batches.
type Distributor interface {
	Distribute(ctx context.Context, batches ...domain.Batch) (domain.DistributeStats, error)
}

type RunnerConfig struct {
	PollInterval time.Duration
	RunTimeout   time.Duration
	// RunOnStart runs every producer once before polling the gate.
	RunOnStart bool
}

// Runner drives one poll loop per producer.
type Runner struct {
	gate        Decider
	distributor Distributor
	producers   []Producer
	cfg         RunnerConfig
	logger      *slog.Logger
}

func NewRunner(gate Decider, distributor Distributor, cfg RunnerConfig, logger *slog.Logger, producers ...Producer) *Runner {
	return &Runner{
		gate:        gate,
		distributor: distributor,
		producers:   producers,
		cfg:         cfg,
		logger:      logger,
	}
}

func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info("scheduler started",
		"producers", len(r.producers),
		"poll_interval", r.cfg.PollInterval,
	)

	var wg sync.WaitGroup
	for _, p := range r.producers {
		wg.Add(1)
		go func(p Producer) {
			defer wg.Done()
			r.loop(ctx, p)
		}(p)
	}

	<-ctx.Done()
	wg.Wait()

	r.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (r *Runner) loop(ctx context.Context, p Producer) {
	logger := r.logger.With("producer", p.Name())

	if r.cfg.RunOnStart {
		if err := r.RunOnce(ctx, p); err != nil {
			logger.Error("producer halted", "error", err)
			return
		}
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok, err := r.gate.MayRun(ctx, p.Name())
		if err != nil {
			if errors.Is(err, domain.ErrConfiguration) {
				logger.Error("producer halted", "error", err)
				return
			}
			logger.Warn("gate check failed", "error", err)
			continue
		}
		if !ok {
			continue
		}

		if err := r.RunOnce(ctx, p); err != nil {
			logger.Error("producer halted", "error", err)
			return
		}
	}
}

// RunOnce executes a producer and distributes its batches. Only errors that
// must halt the producer are returned; crawl failures are logged.
func (r *Runner) RunOnce(ctx context.Context, p Producer) error {
	logger := r.logger.With("producer", p.Name())

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	logger.Info("producer run started")

	batches, err := p.Produce(runCtx)
	if err != nil {
		logger.Error("produce failed", "error", err)
		return nil
	}
	if len(batches) == 0 {
		logger.Warn("producer returned no results")
		return nil
	}

	stats, err := r.distributor.Distribute(runCtx, batches...)

	logger.Info("producer run completed",
		"received", stats.Received,
		"stored", stats.Stored,
		"failures", stats.Failures,
		"duplicates", stats.Duplicates,
		"rejected", stats.Rejected,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	if err != nil && errors.Is(err, domain.ErrConfiguration) {
		return err
	}
	return nil
}
