package distributor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"crawling_observer/internal/domain"
)

type Config struct {
	Workers int
}

// Distributor records produced batches exactly once and routes their rows to
// tag handlers.
type Distributor struct {
	logs      LogStore
	txManager TransactionManager
	registry  *Registry
	publisher Publisher
	recorder  Recorder
	validate  *validator.Validate
	workers   int
	now       func() time.Time
	logger    *slog.Logger
}

// New builds a Distributor. publisher and recorder may be nil.
func New(
	logs LogStore,
	txManager TransactionManager,
	registry *Registry,
	publisher Publisher,
	recorder Recorder,
	logger *slog.Logger,
	cfg Config,
) *Distributor {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Distributor{
		logs:      logs,
		txManager: txManager,
		registry:  registry,
		publisher: publisher,
		recorder:  recorder,
		validate:  newValidator(),
		workers:   workers,
		now:       time.Now,
		logger:    logger.With("component", "distributor"),
	}
}

// Distribute processes batches independently on a bounded worker pool. A
// failing batch never stops the others. Only configuration errors are
// returned, joined; everything else is counted in the stats and logged.
func (d *Distributor) Distribute(ctx context.Context, batches ...domain.Batch) (domain.DistributeStats, error) {
	start := time.Now()
	stats := domain.DistributeStats{Received: len(batches)}

	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for i := range batches {
		b := batches[i]
		g.Go(func() error {
			outcome, err := d.DistributeOne(ctx, b)

			mu.Lock()
			defer mu.Unlock()
			stats.Add(outcome)
			if errors.Is(err, domain.ErrConfiguration) {
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Duration = time.Since(start)
	return stats, errors.Join(errs...)
}

// DistributeOne records a single batch inside one unit of work.
func (d *Distributor) DistributeOne(ctx context.Context, b domain.Batch) (domain.Outcome, error) {
	start := time.Now()
	if b.CapturedAt.IsZero() {
		b.CapturedAt = d.now()
	}

	outcome, identity, err := d.distribute(ctx, b)

	if d.recorder != nil {
		d.recorder.ObserveBatch(b.Tag, outcome, time.Since(start))
	}

	logger := d.logger.With("tag", b.Tag, "crawling_type", b.Log.CrawlingType, "identity", identity)
	switch outcome {
	case domain.OutcomeStored:
		logger.Info("batch stored", "rows", len(b.Payload))
	case domain.OutcomeFailureRecorded:
		logger.Info("crawl failure recorded", "err_message", b.FailLog.ErrMessage)
	case domain.OutcomeDuplicate:
		logger.Debug("batch already seen")
	case domain.OutcomeRejected:
		logger.Warn("batch rejected", "error", err)
	default:
		logger.Error("batch not stored", "error", err)
	}

	return outcome, err
}

func (d *Distributor) distribute(ctx context.Context, b domain.Batch) (domain.Outcome, string, error) {
	if err := d.validate.Struct(b); err != nil {
		return domain.OutcomeRejected, "", domain.E(domain.KindValidation, "validate batch", err)
	}

	var rows []domain.Row
	if !b.Failed() {
		rows = Normalize(b.Payload)
	}

	identity, err := Identity(b, rows)
	if err != nil {
		return domain.OutcomeRejected, "", domain.E(domain.KindValidation, "compute identity", err)
	}

	exists, err := d.logs.Exists(ctx, identity)
	if err != nil {
		return domain.OutcomeError, identity, fmt.Errorf("check identity: %w", err)
	}
	if exists {
		return domain.OutcomeDuplicate, identity, nil
	}

	var handler Handler
	if !b.Failed() {
		handler, err = d.registry.Lookup(b.Tag)
		if err != nil {
			return domain.OutcomeError, identity, err
		}
	}

	rec := &domain.CrawlingLogRecord{
		Identity:     identity,
		CrawlingType: b.Log.CrawlingType,
		StatusCode:   b.Log.StatusCode,
		TargetURL:    b.Log.TargetURL,
		ObservedAt:   b.CapturedAt,
	}

	err = d.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := d.logs.Insert(txCtx, rec); err != nil {
			return err
		}

		if b.Failed() {
			if err := d.logs.InsertFailure(txCtx, &domain.FailureRecord{
				Identity:   identity,
				ErrMessage: b.FailLog.ErrMessage,
			}); err != nil {
				return fmt.Errorf("insert fail log: %w", err)
			}
			return nil
		}

		if err := store(txCtx, handler, identity, rows); err != nil {
			return domain.E(domain.KindHandlerFailure, "handle "+b.Tag, err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadySeen) {
		return domain.OutcomeDuplicate, identity, nil
	}
	if err != nil {
		return domain.OutcomeError, identity, err
	}

	d.publish(ctx, b, identity, len(rows))

	if b.Failed() {
		return domain.OutcomeFailureRecorded, identity, nil
	}
	return domain.OutcomeStored, identity, nil
}

// store runs a handler and turns a panic into an error so the unit of work
// rolls back.
func store(ctx context.Context, h Handler, identity string, rows []domain.Row) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Store(ctx, identity, rows)
}

func (d *Distributor) publish(ctx context.Context, b domain.Batch, identity string, rows int) {
	if d.publisher == nil {
		return
	}

	event := &domain.RecordStored{
		Identity:     identity,
		Tag:          b.Tag,
		CrawlingType: b.Log.CrawlingType,
		Failed:       b.Failed(),
		Rows:         rows,
		StoredAt:     d.now().UTC(),
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("failed to publish stored event", "identity", identity, "error", err)
	}
}
