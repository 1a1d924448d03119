package distributor

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"crawling_observer/internal/domain"
)

// LogStore owns the crawling and fail log tables. Insert must report a
// uniqueness conflict on identity as domain.ErrAlreadySeen.
type LogStore interface {
	Exists(ctx context.Context, identity string) (bool, error)
	Insert(ctx context.Context, rec *domain.CrawlingLogRecord) error
	InsertFailure(ctx context.Context, rec *domain.FailureRecord) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.RecordStored) error
	Close() error
}

type Recorder interface {
	ObserveBatch(tag string, outcome domain.Outcome, duration time.Duration)
}
