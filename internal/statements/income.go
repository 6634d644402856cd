package statements

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
)

// Line is one account on a statement.
type Line struct {
	AccountID int
	Name      string
	Amount    decimal.Decimal
}

func sumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// IncomeStatement covers the flows of [PeriodStart, AsOf].
type IncomeStatement struct {
	PeriodStart time.Time
	AsOf        time.Time

	Revenue           []Line
	CostOfSales       []Line
	OperatingExpenses []Line

	TotalRevenue           decimal.Decimal
	TotalCostOfSales       decimal.Decimal
	GrossProfit            decimal.Decimal
	TotalOperatingExpenses decimal.Decimal
	NetIncome              decimal.Decimal
}

// COGSAccounts returns the expense accounts reported as cost of sales: the
// COGSAccount of every item plus the configured extras.
func COGSAccounts(items []model.Item, extra []int) map[int]bool {
	out := make(map[int]bool)
	for _, it := range items {
		if it.COGSAccount != 0 {
			out[it.COGSAccount] = true
		}
	}
	for _, id := range extra {
		out[id] = true
	}
	return out
}

// Income builds the income statement from ledger activity in
// [periodStart, asOf]. cogs selects the expense accounts shown as cost of
// sales.
func Income(l *ledger.Ledger, periodStart, asOf time.Time, cogs map[int]bool) *IncomeStatement {
	is := &IncomeStatement{PeriodStart: periodStart, AsOf: asOf}
	for _, f := range l.Window(periodStart, asOf) {
		line := Line{AccountID: f.Account.ID, Name: f.Account.Name, Amount: f.Net()}
		switch f.Account.Type {
		case model.AccountTypeRevenue:
			is.Revenue = append(is.Revenue, line)
		case model.AccountTypeExpense:
			if cogs[f.Account.ID] {
				is.CostOfSales = append(is.CostOfSales, line)
			} else {
				is.OperatingExpenses = append(is.OperatingExpenses, line)
			}
		}
	}
	is.TotalRevenue = sumLines(is.Revenue)
	is.TotalCostOfSales = sumLines(is.CostOfSales)
	is.GrossProfit = is.TotalRevenue.Sub(is.TotalCostOfSales)
	is.TotalOperatingExpenses = sumLines(is.OperatingExpenses)
	is.NetIncome = is.GrossProfit.Sub(is.TotalOperatingExpenses)
	return is
}

// TotalExpenses returns cost of sales plus operating expenses.
func (is *IncomeStatement) TotalExpenses() decimal.Decimal {
	return is.TotalCostOfSales.Add(is.TotalOperatingExpenses)
}

// Days returns the inclusive length of the period in days.
func (is *IncomeStatement) Days() int {
	return int(is.AsOf.Sub(is.PeriodStart).Hours()/24) + 1
}

// MonthAmount is a monthly total labelled "2006-01".
type MonthAmount struct {
	Month  string
	Amount decimal.Decimal
}

// MonthlyRevenue returns revenue per calendar month from the first month
// with revenue through the month of asOf. Months without revenue are zero.
func MonthlyRevenue(l *ledger.Ledger, asOf time.Time) []MonthAmount {
	byMonth := l.Monthly(model.AccountTypeRevenue, asOf)
	if len(byMonth) == 0 {
		return nil
	}
	var first time.Time
	for m := range byMonth {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	last := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out []MonthAmount
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		amt, ok := byMonth[key]
		if !ok {
			amt = decimal.Zero
		}
		out = append(out, MonthAmount{Month: key, Amount: amt})
	}
	return out
}
