package domain

import "time"

// PendingFinancial is a company with stored statements still waiting for
// analysis.
type PendingFinancial struct {
	Ticker         string    `db:"ticker"`
	Pending        int       `db:"pending"`
	LatestPostedAt time.Time `db:"latest_posted_at"`
}

// StockBar is one stored price row.
type StockBar struct {
	PostedAt time.Time `db:"posted_at"`
	Open     float64   `db:"open"`
	High     float64   `db:"high"`
	Low      float64   `db:"low"`
	Close    float64   `db:"close"`
	Volume   int64     `db:"volume"`
}

// FinancialQuarter joins the latest stored income statement, balance sheet
// and cash flow of one company for one reporting date. Statements that were
// never stored leave their fields nil.
type FinancialQuarter struct {
	Ticker   string    `db:"ticker"`
	PostedAt time.Time `db:"posted_at"`

	TotalRevenue            *float64 `db:"total_revenue"`
	CostOfRevenue           *float64 `db:"cost_of_revenue"`
	GrossProfit             *float64 `db:"gross_profit"`
	SGnA                    *float64 `db:"sgna"`
	OperatingIncome         *float64 `db:"operating_income"`
	OtherNonOperatingIncome *float64 `db:"other_non_operating_income"`
	ReconciledDepreciation  *float64 `db:"reconciled_depreciation"`
	EBITDA                  *float64 `db:"ebitda"`

	CurrentAssets                           *float64 `db:"current_assets"`
	CurrentLiabilities                      *float64 `db:"current_liabilities"`
	CashAndCashEquivalents                  *float64 `db:"cash_and_cash_equivalents"`
	AccountsReceivable                      *float64 `db:"accounts_receivable"`
	Inventory                               *float64 `db:"inventory"`
	CashEquivalentsAndShortTermInvestments  *float64 `db:"cash_cash_equivalents_and_short_term_investments"`
	CashEquivalents                         *float64 `db:"cash_equivalents"`
	CashFinancial                           *float64 `db:"cash_financial"`
	OtherShortTermInvestments               *float64 `db:"other_short_term_investments"`
	StockholdersEquity                      *float64 `db:"stockholders_equity"`
	TotalAssets                             *float64 `db:"total_assets"`
	RetainedEarnings                        *float64 `db:"retained_earnings"`

	OperatingCashFlow  *float64 `db:"operating_cash_flow"`
	InvestingCashFlow  *float64 `db:"investing_cash_flow"`
	CapitalExpenditure *float64 `db:"capital_expenditure"`
}
