package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"crawling_observer/internal/domain"
)

const (
	requestTypeArticleAnalysis = "article_analysis"
	requestTypeFinancial       = "financial"
)

type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Stats summarizes one notifier cycle.
type Stats struct {
	Pending  int
	Updated  int
	Skipped  int
	NoResult int
	Failed   int
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Pending:  s.Pending + o.Pending,
		Updated:  s.Updated + o.Updated,
		Skipped:  s.Skipped + o.Skipped,
		NoResult: s.NoResult + o.NoResult,
		Failed:   s.Failed + o.Failed,
	}
}

// Notifier sends stored articles and financial statements without an
// analysis to the analysis service and writes the returned analysis back.
type Notifier struct {
	store  Store
	client Requester
	cfg    Config
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func New(store Store, client Requester, cfg Config, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:  store,
		client: client,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.With("component", "notifier"),
	}
}

// Run repeats RunOnce every interval until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Info("notifier started", "interval", n.cfg.Interval)

	ticker := time.NewTicker(n.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := n.RunOnce(ctx); err != nil {
			n.logger.Error("notifier cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			n.logger.Info("notifier stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs the article pass and then the financial pass. A pass that
// cannot list its pending rows does not stop the other one.
func (n *Notifier) RunOnce(ctx context.Context) (Stats, error) {
	articles, aErr := n.RunArticles(ctx)
	financials, fErr := n.RunFinancials(ctx)
	return articles.add(financials), errors.Join(aErr, fErr)
}

// RunArticles processes one batch of pending articles. Per-row failures are
// logged and counted; only a failure to list pending rows is returned.
func (n *Notifier) RunArticles(ctx context.Context) (Stats, error) {
	rows, err := n.store.Unanalyzed(ctx, n.cfg.BatchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("fetch unanalyzed: %w", err)
	}

	stats := Stats{Pending: len(rows)}
	if len(rows) == 0 {
		n.logger.Debug("no pending articles")
		return stats, nil
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}

		logger := n.logger.With("kind", row.Kind, "id", row.ID, "crawling_id", row.CrawlingID)

		item, ok := n.articleItem(ctx, row, logger)
		if !ok {
			logger.Warn("skipping article without tag or content")
			stats.Skipped++
			continue
		}

		stop := n.deliver(ctx, requestTypeArticleAnalysis, item, &stats, logger, func(analysis string) error {
			return n.store.UpdateAnalysis(ctx, row.Kind, row.ID, analysis)
		})
		if stop {
			break
		}
	}

	n.logCycle("articles", stats)
	return stats, nil
}

// RunFinancials sends the recent statements of every company with pending
// financial rows. Companies without enough history are skipped and stay
// pending.
func (n *Notifier) RunFinancials(ctx context.Context) (Stats, error) {
	rows, err := n.store.UnanalyzedFinancials(ctx, n.cfg.BatchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("fetch unanalyzed financials: %w", err)
	}

	stats := Stats{Pending: len(rows)}
	if len(rows) == 0 {
		n.logger.Debug("no pending financials")
		return stats, nil
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}

		logger := n.logger.With("ticker", row.Ticker, "pending_rows", row.Pending)

		item, err := n.financialItem(ctx, row.Ticker)
		if err != nil {
			logger.Error("failed to load financial history", "error", err)
			stats.Failed++
			continue
		}
		if item == nil {
			logger.Warn("skipping ticker without enough statements or prices")
			stats.Skipped++
			continue
		}

		stop := n.deliver(ctx, requestTypeFinancial, item, &stats, logger, func(analysis string) error {
			return n.store.UpdateFinancialAnalysis(ctx, row.Ticker, analysis)
		})
		if stop {
			break
		}
	}

	n.logCycle("financials", stats)
	return stats, nil
}

// deliver sends one item and stores the analysis through save. It reports
// whether the rest of the pass should wait for the next cycle.
func (n *Notifier) deliver(ctx context.Context, reqType string, item map[string]any, stats *Stats, logger *slog.Logger, save func(string) error) bool {
	env := n.envelope(reqType, item)

	resp, err := n.client.Request(ctx, env)
	if err != nil {
		logger.Error("analysis request failed",
			"error", err,
			"request_id", env.Header["request_id"],
			"retryable", domain.IsRetryable(err),
		)
		stats.Failed++
		// The service is unreachable; the rest waits for the next cycle.
		return errors.Is(err, domain.ErrTransportConnect)
	}

	analysis, ok := analysisText(resp)
	if !ok {
		logger.Warn("no analysis in response", "status", resp.Status())
		stats.NoResult++
		return false
	}

	if err := save(analysis); err != nil {
		logger.Error("failed to store analysis", "error", err)
		stats.Failed++
		return false
	}
	stats.Updated++
	return false
}

func (n *Notifier) envelope(reqType string, item map[string]any) *domain.Envelope {
	return &domain.Envelope{
		Header: map[string]any{
			"request_id": n.newID(),
			"type":       reqType,
			"sent_at":    n.now().UTC().Format(time.RFC3339),
		},
		Body: map[string]any{"item": item},
	}
}

func (n *Notifier) logCycle(pass string, stats Stats) {
	n.logger.Info("notifier cycle completed",
		"pass", pass,
		"pending", stats.Pending,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"no_result", stats.NoResult,
		"failed", stats.Failed,
	)
}

// analysisText extracts body.message from a successful response. A
// structured message is stored as its JSON text.
func analysisText(resp *domain.Envelope) (string, bool) {
	if !resp.OK() {
		return "", false
	}
	msg, ok := resp.BodyField("message")
	if !ok || msg == nil {
		return "", false
	}
	if s, ok := msg.(string); ok {
		return s, strings.TrimSpace(s) != ""
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", false
	}
	return string(data), true
}
