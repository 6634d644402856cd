// Package report renders engine output as flat tables and writes them to
// a CSV directory or a SQLite database.
package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table names, in output order.
const (
	TableJournal          = "Journal"
	TableGeneralLedger    = "GeneralLedger"
	TableTrialBalance     = "TrialBalance"
	TableIncomeStatement  = "IncomeStatement"
	TableBalanceSheet     = "BalanceSheet"
	TableCashFlow         = "CashFlow_Indirect"
	TableARDetail         = "AR_Detail"
	TableARAging          = "AR_Aging"
	TableAPDetail         = "AP_Detail"
	TableAPAging          = "AP_Aging"
	TableKPIs             = "KPIs"
	TableRevenueForecast  = "RevenueForecast"
	TableInsights         = "Insights"
	TableValidationReport = "ValidationReport"
)

// Order lists every table name in output order.
var Order = []string{
	TableJournal,
	TableGeneralLedger,
	TableTrialBalance,
	TableIncomeStatement,
	TableBalanceSheet,
	TableCashFlow,
	TableARDetail,
	TableARAging,
	TableAPDetail,
	TableAPAging,
	TableKPIs,
	TableRevenueForecast,
	TableInsights,
	TableValidationReport,
}

// Table is one output table with every cell already rendered.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Money renders an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Ratio renders a ratio with four decimal places. Undefined ratios are
// empty.
func Ratio(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(4)
}

// Forecast renders a forecast value with two decimal places.
func Forecast(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Date renders a date as YYYY-MM-DD; the zero time is empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
