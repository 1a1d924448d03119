package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"crawling_observer/internal/domain"
)

const (
	// stockHistoryBars is how many stored price rows go with an article.
	stockHistoryBars = 30
	// chartBars is how many stored price rows go with a financial item.
	chartBars = 300
	// recentQuarters is how many reporting dates are read per company.
	recentQuarters = 5
	// statementValues is how many non-null values each statement field needs.
	statementValues = 4
)

type statementField struct {
	key   string
	value func(domain.FinancialQuarter) *float64
}

var balanceSheetFields = []statementField{
	{"Current Assets", func(q domain.FinancialQuarter) *float64 { return q.CurrentAssets }},
	{"Current Liabilities", func(q domain.FinancialQuarter) *float64 { return q.CurrentLiabilities }},
	{"Cash And Cash Equivalents", func(q domain.FinancialQuarter) *float64 { return q.CashAndCashEquivalents }},
	{"Accounts Receivable", func(q domain.FinancialQuarter) *float64 { return q.AccountsReceivable }},
	{"Cash Cash Equivalents And Short Term Investments", func(q domain.FinancialQuarter) *float64 { return q.CashEquivalentsAndShortTermInvestments }},
	{"Cash Equivalents", func(q domain.FinancialQuarter) *float64 { return q.CashEquivalents }},
	{"Cash Financial", func(q domain.FinancialQuarter) *float64 { return q.CashFinancial }},
	{"Other Short Term Investments", func(q domain.FinancialQuarter) *float64 { return q.OtherShortTermInvestments }},
	{"Stockholders Equity", func(q domain.FinancialQuarter) *float64 { return q.StockholdersEquity }},
	{"Total Assets", func(q domain.FinancialQuarter) *float64 { return q.TotalAssets }},
	{"Retained Earnings", func(q domain.FinancialQuarter) *float64 { return q.RetainedEarnings }},
	{"Inventory", func(q domain.FinancialQuarter) *float64 { return q.Inventory }},
}

var incomeStatementFields = []statementField{
	{"Total Revenue", func(q domain.FinancialQuarter) *float64 { return q.TotalRevenue }},
	{"Cost Of Revenue", func(q domain.FinancialQuarter) *float64 { return q.CostOfRevenue }},
	{"Gross Profit", func(q domain.FinancialQuarter) *float64 { return q.GrossProfit }},
	{"Selling General And Administration", func(q domain.FinancialQuarter) *float64 { return q.SGnA }},
	{"Operating Income", func(q domain.FinancialQuarter) *float64 { return q.OperatingIncome }},
	{"Other Non Operating Income Expenses", func(q domain.FinancialQuarter) *float64 { return q.OtherNonOperatingIncome }},
	{"Reconciled Depreciation", func(q domain.FinancialQuarter) *float64 { return q.ReconciledDepreciation }},
	{"EBITDA", func(q domain.FinancialQuarter) *float64 { return q.EBITDA }},
}

var cashFlowFields = []statementField{
	{"Operating Cash Flow", func(q domain.FinancialQuarter) *float64 { return q.OperatingCashFlow }},
	{"Investing Cash Flow", func(q domain.FinancialQuarter) *float64 { return q.InvestingCashFlow }},
	{"Capital Expenditure", func(q domain.FinancialQuarter) *float64 { return q.CapitalExpenditure }},
}

// articleItem builds the request item of one article. Market data that
// cannot be loaded is logged and sent empty.
func (n *Notifier) articleItem(ctx context.Context, row domain.PendingArticle, logger *slog.Logger) (map[string]any, bool) {
	if row.Tag == nil || strings.TrimSpace(*row.Tag) == "" {
		return nil, false
	}
	tag := *row.Tag

	var content string
	if row.Title != nil {
		content += *row.Title
	}
	if row.Content != nil {
		content += *row.Content
	}
	if strings.TrimSpace(content) == "" {
		return nil, false
	}

	bars, err := n.store.RecentStock(ctx, tag, stockHistoryBars)
	if err != nil {
		logger.Error("failed to load stock history", "error", err)
	}

	income := map[string]any{}
	quarters, err := n.store.RecentQuarters(ctx, tag, 1)
	if err != nil {
		logger.Error("failed to load income statement", "error", err)
	} else if len(quarters) > 0 && quarters[0].TotalRevenue != nil {
		income["Total Revenue"] = []float64{*quarters[0].TotalRevenue}
	}

	return map[string]any{
		"tag": tag,
		"data": map[string]any{
			"news_data":        content,
			"stock_history":    stockHistory(bars),
			"income_statement": income,
		},
	}, true
}

// financialItem builds the request item of one company. It returns nil when
// a statement section or the price chart is empty.
func (n *Notifier) financialItem(ctx context.Context, ticker string) (map[string]any, error) {
	quarters, err := n.store.RecentQuarters(ctx, ticker, recentQuarters)
	if err != nil {
		return nil, fmt.Errorf("recent quarters: %w", err)
	}

	balance := statementSection(quarters, balanceSheetFields)
	income := statementSection(quarters, incomeStatementFields)
	cash := statementSection(quarters, cashFlowFields)
	if balance == nil || income == nil || cash == nil {
		return nil, nil
	}

	bars, err := n.store.RecentStock(ctx, ticker, chartBars)
	if err != nil {
		return nil, fmt.Errorf("recent stock: %w", err)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	return map[string]any{
		"tag": ticker,
		"data": map[string]any{
			"balance_sheet":    balance,
			"income_statement": income,
			"cash_flow":        cash,
			"chart":            chart(bars),
		},
	}, nil
}

// statementSection collects the first statementValues non-null values of
// every field, newest first. One short field empties the whole section.
func statementSection(quarters []domain.FinancialQuarter, fields []statementField) map[string]any {
	section := make(map[string]any, len(fields))
	for _, f := range fields {
		values := make([]float64, 0, statementValues)
		for _, q := range quarters {
			if v := f.value(q); v != nil {
				values = append(values, *v)
			}
			if len(values) == statementValues {
				break
			}
		}
		if len(values) < statementValues {
			return nil
		}
		section[f.key] = values
	}
	return section
}

// stockHistory lays out bars column-wise in ascending time order. Bars
// arrive newest first.
func stockHistory(bars []domain.StockBar) map[string]any {
	asc := slices.Clone(bars)
	slices.Reverse(asc)

	dates := make([]string, 0, len(asc))
	open := make([]float64, 0, len(asc))
	closes := make([]float64, 0, len(asc))
	high := make([]float64, 0, len(asc))
	low := make([]float64, 0, len(asc))
	volume := make([]int64, 0, len(asc))
	for _, b := range asc {
		dates = append(dates, b.PostedAt.UTC().Format(time.RFC3339))
		open = append(open, b.Open)
		closes = append(closes, b.Close)
		high = append(high, b.High)
		low = append(low, b.Low)
		volume = append(volume, b.Volume)
	}

	return map[string]any{
		"Date":   dates,
		"Open":   open,
		"Close":  closes,
		"High":   high,
		"Low":    low,
		"Volume": volume,
	}
}

func chart(bars []domain.StockBar) map[string]any {
	asc := slices.Clone(bars)
	slices.Reverse(asc)

	ts := make([]string, 0, len(asc))
	o := make([]float64, 0, len(asc))
	c := make([]float64, 0, len(asc))
	for _, b := range asc {
		ts = append(ts, b.PostedAt.UTC().Format(time.RFC3339))
		o = append(o, b.Open)
		c = append(c, b.Close)
	}
	return map[string]any{"timestamp": ts, "o": o, "c": c}
}
