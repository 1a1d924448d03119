package notifier

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"crawling_observer/internal/domain"
)

type Store interface {
	Unanalyzed(ctx context.Context, limit int) ([]domain.PendingArticle, error)
	UpdateAnalysis(ctx context.Context, kind string, id int64, analysis string) error

	UnanalyzedFinancials(ctx context.Context, limit int) ([]domain.PendingFinancial, error)
	UpdateFinancialAnalysis(ctx context.Context, ticker, analysis string) error

	RecentQuarters(ctx context.Context, ticker string, limit int) ([]domain.FinancialQuarter, error)
	RecentStock(ctx context.Context, ticker string, limit int) ([]domain.StockBar, error)
}

type Requester interface {
	Request(ctx context.Context, env *domain.Envelope) (*domain.Envelope, error)
}
