// Package kpi derives the fixed set of financial ratios from statement and
// aging output.
package kpi

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/aging"
	"github.com/cleared-dev/glengine/internal/statements"
)

// KPI names, in reporting order.
const (
	GrossMargin            = "gross_margin"
	NetMargin              = "net_margin"
	CurrentRatio           = "current_ratio"
	QuickRatio             = "quick_ratio"
	DaysSalesOutstanding   = "days_sales_outstanding"
	DaysPayableOutstanding = "days_payable_outstanding"
	DebtToEquity           = "debt_to_equity"
	WorkingCapital         = "working_capital"
	ARTurnover             = "ar_turnover"
	APTurnover             = "ap_turnover"
	AROver90Pct            = "ar_over_90_pct"
	APOver90Pct            = "ap_over_90_pct"
)

// Unit describes how a KPI value is read and rendered.
type Unit string

const (
	UnitRatio  Unit = "ratio"
	UnitDays   Unit = "days"
	UnitAmount Unit = "amount"
)

// KPI is one named value. Value is invalid when the ratio is undefined,
// e.g. a margin with zero revenue.
type KPI struct {
	Name  string
	Unit  Unit
	Value decimal.NullDecimal
}

// Input carries everything the ratios read.
type Input struct {
	Income         *statements.IncomeStatement
	Balance        *statements.BalanceSheet
	Classification *statements.Classification
	AR             *aging.Schedule
	AP             *aging.Schedule

	ReceivableAccount int
	PayableAccount    int
	// InventoryAccounts are excluded from current assets by the quick ratio.
	InventoryAccounts []int
}

// Set is the computed KPIs in reporting order.
type Set struct {
	KPIs []KPI
}

// Get returns a KPI value by name.
func (s Set) Get(name string) decimal.NullDecimal {
	for _, k := range s.KPIs {
		if k.Name == name {
			return k.Value
		}
	}
	return decimal.NullDecimal{}
}

// Compute derives every KPI. It never fails: a zero denominator yields an
// undefined value.
func Compute(in Input) Set {
	is, bs := in.Income, in.Balance
	days := decimal.NewFromInt(int64(is.Days()))

	currentAssets := bs.CurrentAssets(in.Classification)
	currentLiabilities := bs.CurrentLiabilities(in.Classification)
	inventory := decimal.Zero
	seen := make(map[int]bool)
	for _, id := range in.InventoryAccounts {
		if !seen[id] {
			seen[id] = true
			inventory = inventory.Add(bs.Amount(id))
		}
	}
	receivable := bs.Amount(in.ReceivableAccount)
	payable := bs.Amount(in.PayableAccount)

	kpis := []KPI{
		{GrossMargin, UnitRatio, div(is.GrossProfit, is.TotalRevenue)},
		{NetMargin, UnitRatio, div(is.NetIncome, is.TotalRevenue)},
		{CurrentRatio, UnitRatio, div(currentAssets, currentLiabilities)},
		{QuickRatio, UnitRatio, div(currentAssets.Sub(inventory), currentLiabilities)},
		{DaysSalesOutstanding, UnitDays, mul(div(receivable, is.TotalRevenue), days)},
		{DaysPayableOutstanding, UnitDays, mul(div(payable, is.TotalExpenses()), days)},
		{DebtToEquity, UnitRatio, div(bs.TotalLiabilities, bs.TotalEquity)},
		{WorkingCapital, UnitAmount, decimal.NewNullDecimal(currentAssets.Sub(currentLiabilities))},
		{ARTurnover, UnitRatio, div(is.TotalRevenue, receivable)},
		{APTurnover, UnitRatio, div(is.TotalExpenses(), payable)},
		{AROver90Pct, UnitRatio, share(in.AR)},
		{APOver90Pct, UnitRatio, share(in.AP)},
	}
	return Set{KPIs: kpis}
}

func div(num, den decimal.Decimal) decimal.NullDecimal {
	if den.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(num.Div(den))
}

func mul(v decimal.NullDecimal, by decimal.Decimal) decimal.NullDecimal {
	if !v.Valid {
		return v
	}
	return decimal.NewNullDecimal(v.Decimal.Mul(by))
}

func share(s *aging.Schedule) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	return s.Share(aging.BucketOver90)
}
