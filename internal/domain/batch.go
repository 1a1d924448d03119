package domain

import "time"

// Tags known to the distributor. New tags require a handler registration.
const (
	TagNews            = "news"
	TagMacro           = "macro"
	TagReports         = "reports"
	TagStock           = "stock"
	TagIncomeStatement = "income_statement"
	TagBalanceSheet    = "balance_sheet"
	TagCashFlow        = "cash_flow"
)

// Row is one payload record as produced by a crawler.
type Row map[string]any

// CrawlLog describes the crawl attempt that produced a batch.
type CrawlLog struct {
	CrawlingType string  `json:"crawling_type" validate:"required"`
	StatusCode   int     `json:"status_code"`
	TargetURL    *string `json:"target_url,omitempty"`
}

// FailLog is attached instead of a payload when the crawl failed.
type FailLog struct {
	ErrMessage string `json:"err_message"`
}

// Batch is one produced crawl result. Exactly one of Payload and FailLog is set.
type Batch struct {
	Tag        string    `json:"tag" validate:"required"`
	Log        CrawlLog  `json:"log"`
	Payload    []Row     `json:"payload,omitempty"`
	FailLog    *FailLog  `json:"fail_log,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitempty"`
}

// Failed reports whether the batch carries a fail log.
func (b Batch) Failed() bool {
	return b.FailLog != nil
}

// CrawlingLogRecord is the insert-only log row keyed by content identity.
type CrawlingLogRecord struct {
	Identity     string    `db:"crawling_id"`
	CrawlingType string    `db:"crawling_type"`
	StatusCode   int       `db:"status_code"`
	TargetURL    *string   `db:"target_url"`
	ObservedAt   time.Time `db:"try_time"`
}

// FailureRecord stores the error message of a failed crawl.
type FailureRecord struct {
	Identity   string `db:"crawling_id"`
	ErrMessage string `db:"err_message"`
}
