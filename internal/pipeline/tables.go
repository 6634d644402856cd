package pipeline

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/aging"
	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/kpi"
	"github.com/cleared-dev/glengine/internal/report"
	"github.com/cleared-dev/glengine/internal/statements"
)

var statementHeader = []string{"section", "account_id", "name", "amount"}

// Tables renders the result as output tables in report.Order. Rendering is
// deterministic: the same books always produce byte-identical tables.
func (r *Result) Tables() []report.Table {
	return []report.Table{
		r.journalTable(),
		r.generalLedgerTable(),
		r.trialBalanceTable(),
		r.incomeTable(),
		r.balanceTable(),
		r.cashFlowTable(),
		detailTable(report.TableARDetail, "customer_id", r.AR),
		agingTable(report.TableARAging, r.AR),
		detailTable(report.TableAPDetail, "vendor_id", r.AP),
		agingTable(report.TableAPAging, r.AP),
		r.kpiTable(),
		r.forecastTable(),
		r.insightsTable(),
		r.validationTable(),
	}
}

func accountCell(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

func (r *Result) journalTable() report.Table {
	t := report.Table{Name: report.TableJournal, Header: journal.Columns()}
	for _, e := range r.Journal {
		for _, l := range e.Lines {
			t.Rows = append(t.Rows, journal.MarshalLine(e, l))
		}
	}
	return t
}

func (r *Result) generalLedgerTable() report.Table {
	t := report.Table{Name: report.TableGeneralLedger, Header: []string{
		"account_id", "account_name", "account_type", "date", "entry_id", "line_id", "memo", "debit", "credit", "balance",
	}}
	for _, a := range r.Ledger.Accounts() {
		for _, p := range a.Postings {
			t.Append(strconv.Itoa(a.Account.ID), a.Account.Name, a.Account.Type.Title(),
				report.Date(p.Date), p.EntryID, p.LineID, p.Memo,
				report.Money(p.Debit), report.Money(p.Credit), report.Money(p.Balance))
		}
	}
	return t
}

func (r *Result) trialBalanceTable() report.Table {
	t := report.Table{Name: report.TableTrialBalance, Header: []string{"account_id", "name", "type", "debit", "credit", "balance"}}
	for _, row := range r.TrialBalance.Rows {
		t.Append(strconv.Itoa(row.AccountID), row.Name, row.Type.Title(),
			report.Money(row.Debit), report.Money(row.Credit), report.Money(row.Balance))
	}
	t.Append("", "Total", "", report.Money(r.TrialBalance.TotalDebit), report.Money(r.TrialBalance.TotalCredit), "")
	return t
}

func appendLines(t *report.Table, section string, lines []statements.Line) {
	for _, l := range lines {
		t.Append(section, accountCell(l.AccountID), l.Name, report.Money(l.Amount))
	}
}

func appendTotal(t *report.Table, section, name string, amount decimal.Decimal) {
	t.Append(section, "", name, report.Money(amount))
}

func (r *Result) incomeTable() report.Table {
	is := r.Income
	t := report.Table{Name: report.TableIncomeStatement, Header: statementHeader}
	appendLines(&t, "revenue", is.Revenue)
	appendTotal(&t, "revenue", "Total revenue", is.TotalRevenue)
	appendLines(&t, "cost_of_sales", is.CostOfSales)
	appendTotal(&t, "cost_of_sales", "Total cost of sales", is.TotalCostOfSales)
	appendTotal(&t, "gross_profit", "Gross profit", is.GrossProfit)
	appendLines(&t, "operating_expenses", is.OperatingExpenses)
	appendTotal(&t, "operating_expenses", "Total operating expenses", is.TotalOperatingExpenses)
	appendTotal(&t, "net_income", "Net income", is.NetIncome)
	return t
}

func (r *Result) balanceTable() report.Table {
	bs := r.Balance
	t := report.Table{Name: report.TableBalanceSheet, Header: statementHeader}
	appendLines(&t, "assets", bs.Assets)
	appendTotal(&t, "assets", "Total assets", bs.TotalAssets)
	appendLines(&t, "liabilities", bs.Liabilities)
	appendTotal(&t, "liabilities", "Total liabilities", bs.TotalLiabilities)
	appendLines(&t, "equity", bs.Equity)
	appendTotal(&t, "equity", "Total equity", bs.TotalEquity)
	appendTotal(&t, "total", "Total liabilities and equity", bs.TotalLiabilities.Add(bs.TotalEquity))
	return t
}

func (r *Result) cashFlowTable() report.Table {
	cf := r.CashFlow
	t := report.Table{Name: report.TableCashFlow, Header: statementHeader}
	flows := func(section string, lines []statements.CashFlowLine) {
		for _, l := range lines {
			t.Append(section, accountCell(l.AccountID), l.Name, report.Money(l.Amount))
		}
	}
	appendTotal(&t, "operating", "Net income", cf.NetIncome)
	flows("operating", cf.NonCash)
	flows("operating", cf.WorkingCapital)
	appendTotal(&t, "operating", "Net cash from operating activities", cf.NetOperating)
	flows("investing", cf.Investing)
	appendTotal(&t, "investing", "Net cash from investing activities", cf.NetInvesting)
	flows("financing", cf.Financing)
	appendTotal(&t, "financing", "Net cash from financing activities", cf.NetFinancing)
	appendTotal(&t, "cash", "Net change in cash", cf.NetChange)
	appendTotal(&t, "cash", "Opening cash", cf.OpeningCash)
	appendTotal(&t, "cash", "Closing cash", cf.ClosingCash)
	return t
}

func detailTable(name, party string, s *aging.Schedule) report.Table {
	t := report.Table{Name: name, Header: []string{
		"entry_id", party, "invoice_no", "invoice_date", "due_date", "total", "paid", "open", "days_past_due", "bucket",
	}}
	for _, d := range s.Details {
		t.Append(d.EntryID, d.CounterpartyID, d.InvoiceNo, report.Date(d.InvoiceDate), report.Date(d.DueDate),
			report.Money(d.Total), report.Money(d.Paid), report.Money(d.Open), strconv.Itoa(d.DaysPastDue), string(d.Bucket))
	}
	return t
}

func agingTable(name string, s *aging.Schedule) report.Table {
	t := report.Table{Name: name, Header: []string{"bucket", "count", "amount"}}
	count := 0
	for _, b := range s.Summary {
		count += b.Count
		t.Append(string(b.Bucket), strconv.Itoa(b.Count), report.Money(b.Amount))
	}
	t.Append("total", strconv.Itoa(count), report.Money(s.Total))
	return t
}

func (r *Result) kpiTable() report.Table {
	t := report.Table{Name: report.TableKPIs, Header: []string{"kpi", "unit", "value"}}
	for _, k := range r.KPIs.KPIs {
		v := report.Ratio(k.Value)
		if k.Unit == kpi.UnitAmount && k.Value.Valid {
			v = report.Money(k.Value.Decimal)
		}
		t.Append(k.Name, string(k.Unit), v)
	}
	return t
}

func (r *Result) forecastTable() report.Table {
	t := report.Table{Name: report.TableRevenueForecast, Header: []string{"period", "kind", "actual", "smoothed", "note"}}
	fc := r.Forecast
	if fc.Note != "" {
		t.Append("", "skipped", "", "", fc.Note)
		return t
	}
	for _, p := range fc.Points {
		kind, actual := "actual", ""
		if p.Projected {
			kind = "forecast"
		} else {
			actual = report.Money(p.Actual.Decimal)
		}
		t.Append(p.Period, kind, actual, report.Forecast(p.Smoothed), "")
	}
	return t
}

func (r *Result) insightsTable() report.Table {
	t := report.Table{Name: report.TableInsights, Header: []string{"rule", "severity", "message", "metric"}}
	for _, f := range r.Insights {
		t.Append(f.Rule, string(f.Severity), f.Message, report.Ratio(f.Metric))
	}
	return t
}

func (r *Result) validationTable() report.Table {
	t := report.Table{Name: report.TableValidationReport, Header: []string{"table", "row", "column", "reason", "outcome"}}
	add := func(fs []apperrors.RowFailure, outcome string) {
		for _, f := range fs {
			row := ""
			if f.Row > 0 {
				row = strconv.Itoa(f.Row)
			}
			t.Append(f.Table, row, f.Column, f.Reason, outcome)
		}
	}
	add(r.Failures, "skipped")
	add(r.Warnings, "kept")
	return t
}
