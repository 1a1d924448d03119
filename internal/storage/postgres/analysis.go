package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"crawling_observer/internal/domain"
)

// analysisTables maps a pending article kind to the table holding its
// ai_analysis column.
var analysisTables = map[string]string{
	"news":    "news",
	"reports": "reports",
}

type AnalysisStore struct {
	db *sqlx.DB
}

func NewAnalysisStore(db *sqlx.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Unanalyzed returns up to limit news and report rows without an analysis.
func (s *AnalysisStore) Unanalyzed(ctx context.Context, limit int) ([]domain.PendingArticle, error) {
	query := `
		SELECT id, crawling_id, kind, tag, title, content
		FROM notifier_articles_vw
		ORDER BY kind, id
		LIMIT $1`

	var rows []domain.PendingArticle
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("select unanalyzed articles: %w", err)
	}
	return rows, nil
}

func (s *AnalysisStore) UpdateAnalysis(ctx context.Context, kind string, id int64, analysis string) error {
	tbl, ok := analysisTables[kind]
	if !ok {
		return domain.E(domain.KindValidation, "update analysis", fmt.Errorf("unknown article kind %q", kind))
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE "+tbl+" SET ai_analysis = $1 WHERE id = $2",
		analysis, id,
	)
	if err != nil {
		return fmt.Errorf("update %s analysis: %w", tbl, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s analysis: %w", tbl, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s analysis: row %d not found", tbl, id)
	}
	return nil
}

// UnanalyzedFinancials returns up to limit companies with statements that
// have no analysis yet, most recently reported first.
func (s *AnalysisStore) UnanalyzedFinancials(ctx context.Context, limit int) ([]domain.PendingFinancial, error) {
	query := `
		SELECT ticker, pending, latest_posted_at
		FROM notifier_financial_pending_vw
		ORDER BY latest_posted_at DESC, ticker
		LIMIT $1`

	var rows []domain.PendingFinancial
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("select unanalyzed financials: %w", err)
	}
	return rows, nil
}

// UpdateFinancialAnalysis stores one analysis on every pending statement row
// of the company.
func (s *AnalysisStore) UpdateFinancialAnalysis(ctx context.Context, ticker, analysis string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE financials SET ai_analysis = $1 WHERE company = $2 AND ai_analysis IS NULL",
		analysis, ticker,
	)
	if err != nil {
		return fmt.Errorf("update financials analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update financials analysis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update financials analysis: no pending rows for %s", ticker)
	}
	return nil
}

// RecentQuarters returns up to limit reporting dates of the company, newest
// first.
func (s *AnalysisStore) RecentQuarters(ctx context.Context, ticker string, limit int) ([]domain.FinancialQuarter, error) {
	query := `
		SELECT *
		FROM notifier_financial_vw
		WHERE ticker = $1
		ORDER BY posted_at DESC
		LIMIT $2`

	var rows []domain.FinancialQuarter
	if err := s.db.SelectContext(ctx, &rows, query, ticker, limit); err != nil {
		return nil, fmt.Errorf("select recent quarters: %w", err)
	}
	return rows, nil
}

// RecentStock returns up to limit stored price rows of the ticker, newest
// first.
func (s *AnalysisStore) RecentStock(ctx context.Context, ticker string, limit int) ([]domain.StockBar, error) {
	query := `
		SELECT posted_at, open, high, low, close, volume
		FROM stock
		WHERE ticker = $1
		ORDER BY posted_at DESC
		LIMIT $2`

	var rows []domain.StockBar
	if err := s.db.SelectContext(ctx, &rows, query, ticker, limit); err != nil {
		return nil, fmt.Errorf("select recent stock: %w", err)
	}
	return rows, nil
}
