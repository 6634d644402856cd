package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/aging"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/statements"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func classification(t *testing.T) *statements.Classification {
	t.Helper()
	chart, err := accounts.NewService(accounts.DefaultChart())
	require.NoError(t, err)
	c, err := statements.Classify(chart, config.Default("").CashFlow)
	require.NoError(t, err)
	return c
}

func fixture(t *testing.T, revenue string) Input {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	stale := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	is := &statements.IncomeStatement{
		PeriodStart:            start,
		AsOf:                   asOf,
		TotalRevenue:           dec(revenue),
		TotalCostOfSales:       dec("400"),
		TotalOperatingExpenses: dec("200"),
	}
	is.GrossProfit = is.TotalRevenue.Sub(is.TotalCostOfSales)
	is.NetIncome = is.GrossProfit.Sub(is.TotalOperatingExpenses)

	bs := &statements.BalanceSheet{
		AsOf: asOf,
		Assets: []statements.Line{
			{AccountID: 1000, Amount: dec("500")},
			{AccountID: 1100, Amount: dec("300")},
			{AccountID: 1200, Amount: dec("200")},
			{AccountID: 1500, Amount: dec("1000")},
		},
		Liabilities: []statements.Line{
			{AccountID: 2000, Amount: dec("150")},
			{AccountID: 2100, Amount: dec("250")},
			{AccountID: 2500, Amount: dec("600")},
		},
		Equity: []statements.Line{{AccountID: 3000, Amount: dec("1000")}},
	}
	bs.TotalAssets = dec("2000")
	bs.TotalLiabilities = dec("1000")
	bs.TotalEquity = dec("1000")

	ar, err := aging.Build(context.Background(), model.SourceAR, []model.SourceEntry{
		{EntryID: "A", CounterpartyID: "C", InvoiceDate: stale, DueDate: stale, Amount: dec("100")},
		{EntryID: "B", CounterpartyID: "C", InvoiceDate: asOf, DueDate: asOf, Amount: dec("300")},
	}, asOf)
	require.NoError(t, err)

	return Input{
		Income:            is,
		Balance:           bs,
		Classification:    classification(t),
		AR:                ar,
		ReceivableAccount: 1100,
		PayableAccount:    2000,
		InventoryAccounts: []int{1200, 1200},
	}
}

func TestCompute(t *testing.T) {
	set := Compute(fixture(t, "1000"))
	require.Len(t, set.KPIs, 12)
	assert.Equal(t, GrossMargin, set.KPIs[0].Name)

	want := map[string]string{
		GrossMargin:            "0.6",
		NetMargin:              "0.4",
		CurrentRatio:           "2.5",
		QuickRatio:             "2",
		DaysSalesOutstanding:   "27",
		DaysPayableOutstanding: "22.5",
		DebtToEquity:           "1",
		WorkingCapital:         "600",
		APTurnover:             "4",
		AROver90Pct:            "0.25",
	}
	for name, v := range want {
		got := set.Get(name)
		require.True(t, got.Valid, name)
		assert.True(t, dec(v).Equal(got.Decimal), "%s: got %s, want %s", name, got.Decimal, v)
	}
	ar := set.Get(ARTurnover)
	assert.Equal(t, "3.3333", ar.Decimal.StringFixed(4))
	assert.False(t, set.Get(APOver90Pct).Valid)
}

func TestComputeZeroRevenueIsUndefined(t *testing.T) {
	set := Compute(fixture(t, "0"))
	for _, name := range []string{GrossMargin, NetMargin, DaysSalesOutstanding} {
		assert.False(t, set.Get(name).Valid, name)
	}
	assert.True(t, set.Get(ARTurnover).Valid)
	assert.True(t, set.Get(ARTurnover).Decimal.IsZero())
	assert.False(t, set.Get("no_such_kpi").Valid)
}
