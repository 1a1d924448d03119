package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"crawling_observer/internal/distributor"
	"crawling_observer/internal/domain"
)

// Handlers returns one handler per known tag, all writing through db or the
// transaction carried in ctx.
func Handlers(db *sqlx.DB) []distributor.Handler {
	return []distributor.Handler{
		NewArticleHandler(db, domain.TagNews, newsTable),
		NewArticleHandler(db, domain.TagReports, reportsTable),
		NewMacroHandler(db),
		NewStockHandler(db),
		NewStatementHandler(db, domain.TagIncomeStatement, incomeStatementTable),
		NewStatementHandler(db, domain.TagBalanceSheet, balanceSheetTable),
		NewStatementHandler(db, domain.TagCashFlow, cashFlowTable),
	}
}

// table describes the columns copied from a payload row. Nullable columns
// may be absent from the row; all others are required.
type table struct {
	name     string
	columns  []string
	nullable map[string]bool
	// parent is the foreign-key column filled by the caller, not the row.
	parent string
}

var (
	newsTable = table{
		name:     "news",
		parent:   "crawling_id",
		columns:  []string{"organization", "title", "transed_title", "hits", "author", "posted_at", "content"},
		nullable: map[string]bool{"transed_title": true, "hits": true},
	}
	reportsTable = table{
		name:     "reports",
		parent:   "crawling_id",
		columns:  []string{"title", "hits", "author", "posted_at", "content"},
		nullable: map[string]bool{"hits": true},
	}
	stockTable = table{
		name:    "stock",
		parent:  "crawling_id",
		columns: []string{"ticker", "posted_at", "open", "high", "low", "close", "volume"},
	}
	financialsTable = table{
		name:    "financials",
		parent:  "crawling_id",
		columns: []string{"company", "financial_type", "posted_at"},
	}
	incomeStatementTable = table{
		name:   "income_statement",
		parent: "financial_id",
		columns: []string{
			"total_revenue", "gross_profit", "cost_of_revenue", "sgna", "operating_income",
			"other_non_operating_income", "reconciled_depreciation", "ebitda",
		},
	}
	balanceSheetTable = table{
		name:   "balance_sheet",
		parent: "financial_id",
		columns: []string{
			"current_assets", "current_liabilities", "cash_and_cash_equivalents", "accounts_receivable",
			"inventory", "cash_cash_equivalents_and_short_term_investments", "cash_equivalents",
			"cash_financial", "other_short_term_investments", "stockholders_equity", "total_assets",
			"retained_earnings",
		},
	}
	cashFlowTable = table{
		name:    "cash_flow",
		parent:  "financial_id",
		columns: []string{"operating_cash_flow", "capital_expenditure", "investing_cash_flow"},
	}
)

func (t table) insertQuery(returning string) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(t.name)
	sb.WriteString(" (")
	sb.WriteString(t.parent)
	for _, c := range t.columns {
		sb.WriteString(", ")
		sb.WriteString(c)
	}
	sb.WriteString(") VALUES ($1")
	for i := range t.columns {
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i + 2))
	}
	sb.WriteString(")")
	if returning != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(returning)
	}
	return sb.String()
}

func (t table) args(parent any, row domain.Row) ([]any, error) {
	args := make([]any, 0, len(t.columns)+1)
	args = append(args, parent)
	for _, c := range t.columns {
		v := row[c]
		if v == nil && !t.nullable[c] {
			return nil, fmt.Errorf("%s: missing field %q", t.name, c)
		}
		args = append(args, v)
	}
	return args, nil
}

func (t table) insert(ctx context.Context, exec sqlx.ExtContext, parent any, row domain.Row) error {
	args, err := t.args(parent, row)
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, t.insertQuery(""), args...); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

func (t table) insertReturningID(ctx context.Context, exec sqlx.ExtContext, parent any, row domain.Row) (int64, error) {
	args, err := t.args(parent, row)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := exec.QueryRowxContext(ctx, t.insertQuery("id"), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return id, nil
}

// ArticleHandler stores news and reports rows together with their tags.
type ArticleHandler struct {
	db       *sqlx.DB
	tag      string
	table    table
	tagTable string
	tagFK    string
}

func NewArticleHandler(db *sqlx.DB, tag string, t table) *ArticleHandler {
	h := &ArticleHandler{db: db, tag: tag, table: t}
	switch t.name {
	case reportsTable.name:
		h.tagTable, h.tagFK = "reports_tag", "report_id"
	default:
		h.tagTable, h.tagFK = "news_tag", "news_id"
	}
	return h
}

func (h *ArticleHandler) Tag() string { return h.tag }

func (h *ArticleHandler) Store(ctx context.Context, identity string, rows []domain.Row) error {
	exec := GetExecutor(ctx, h.db)
	linkQuery := "INSERT INTO " + h.tagTable + " (" + h.tagFK + ", tag) VALUES ($1, $2)"

	for i, row := range rows {
		id, err := h.table.insertReturningID(ctx, exec, identity, row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}

		for _, tag := range stringList(row["tag"]) {
			if _, err := exec.ExecContext(ctx, linkQuery, id, tag); err != nil {
				return fmt.Errorf("row %d: link tag %q: %w", i, tag, err)
			}
		}
	}
	return nil
}

// MacroHandler resolves index names to macro_index ids, creating them on
// first sight, and stores one macroeconomics row per payload row.
type MacroHandler struct {
	db *sqlx.DB
}

func NewMacroHandler(db *sqlx.DB) *MacroHandler {
	return &MacroHandler{db: db}
}

func (h *MacroHandler) Tag() string { return domain.TagMacro }

func (h *MacroHandler) Store(ctx context.Context, identity string, rows []domain.Row) error {
	exec := GetExecutor(ctx, h.db)

	for i, row := range rows {
		for _, field := range []string{"index_name", "country", "index_value", "posted_at"} {
			if row[field] == nil {
				return fmt.Errorf("row %d: macroeconomics: missing field %q", i, field)
			}
		}

		var indexID int64
		err := exec.QueryRowxContext(ctx, `
			INSERT INTO macro_index (index_name) VALUES ($1)
			ON CONFLICT (index_name) DO UPDATE SET index_name = EXCLUDED.index_name
			RETURNING index_id`,
			row["index_name"],
		).Scan(&indexID)
		if err != nil {
			return fmt.Errorf("row %d: resolve macro index: %w", i, err)
		}

		_, err = exec.ExecContext(ctx, `
			INSERT INTO macroeconomics (crawling_id, country, index_id, index_value, posted_at)
			VALUES ($1, $2, $3, $4, $5)`,
			identity, row["country"], indexID, row["index_value"], row["posted_at"],
		)
		if err != nil {
			return fmt.Errorf("row %d: insert macroeconomics: %w", i, err)
		}
	}
	return nil
}

type StockHandler struct {
	db *sqlx.DB
}

func NewStockHandler(db *sqlx.DB) *StockHandler {
	return &StockHandler{db: db}
}

func (h *StockHandler) Tag() string { return domain.TagStock }

func (h *StockHandler) Store(ctx context.Context, identity string, rows []domain.Row) error {
	exec := GetExecutor(ctx, h.db)
	for i, row := range rows {
		if err := stockTable.insert(ctx, exec, identity, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// StatementHandler writes the shared financials row and then the
// statement-specific columns keyed by the new financials id.
type StatementHandler struct {
	db    *sqlx.DB
	tag   string
	table table
}

func NewStatementHandler(db *sqlx.DB, tag string, t table) *StatementHandler {
	return &StatementHandler{db: db, tag: tag, table: t}
}

func (h *StatementHandler) Tag() string { return h.tag }

func (h *StatementHandler) Store(ctx context.Context, identity string, rows []domain.Row) error {
	exec := GetExecutor(ctx, h.db)
	for i, row := range rows {
		financialID, err := financialsTable.insertReturningID(ctx, exec, identity, row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := h.table.insert(ctx, exec, financialID, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

func stringList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return []string{x}
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
