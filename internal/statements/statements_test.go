package statements

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	chart  *accounts.Service
	ledger *ledger.Ledger
	class  *Classification
}

func newFixture(t *testing.T, extra ...model.JournalEntry) fixture {
	t.Helper()
	chart, err := accounts.NewService(accounts.DefaultChart())
	require.NoError(t, err)

	seq := 0
	e := func(d time.Time, lines ...model.JournalLine) model.JournalEntry {
		seq++
		entry, err := journal.NewEntry(fmt.Sprintf("E%02d", seq), d, "", model.SourceRef{}, time.Time{}, lines)
		require.NoError(t, err)
		return entry
	}
	D, C := journal.Debit, journal.Credit
	entries := []model.JournalEntry{
		e(date(2024, 12, 31), D(1000, dec("5000")), C(3000, dec("5000"))),
		e(date(2025, 1, 15), D(1100, dec("550")), C(4000, dec("500")), C(2100, dec("50"))),
		e(date(2025, 1, 20), D(1200, dec("200")), C(2000, dec("200"))),
		e(date(2025, 1, 25), D(5000, dec("80")), C(1200, dec("80"))),
		e(date(2025, 2, 1), D(1000, dec("300")), C(1100, dec("300"))),
		e(date(2025, 2, 5), D(1500, dec("1200")), C(1000, dec("1200"))),
		e(date(2025, 2, 28), D(6200, dec("20")), C(1510, dec("20"))),
		e(date(2025, 2, 28), D(6000, dec("100")), C(1000, dec("100"))),
		e(date(2025, 3, 1), D(1000, dec("1000")), C(2500, dec("1000"))),
	}
	entries = append(entries, extra...)

	l, err := ledger.Build(context.Background(), chart, entries)
	require.NoError(t, err)
	class, err := Classify(chart, config.Default("").CashFlow)
	require.NoError(t, err)
	return fixture{chart: chart, ledger: l, class: class}
}

func income(f fixture) *IncomeStatement {
	return Income(f.ledger, date(2025, 1, 1), date(2025, 3, 31), COGSAccounts(nil, []int{5000}))
}

func TestIncome(t *testing.T) {
	is := income(newFixture(t))

	assert.Equal(t, "500", is.TotalRevenue.String())
	assert.Equal(t, "80", is.TotalCostOfSales.String())
	assert.Equal(t, "420", is.GrossProfit.String())
	assert.Equal(t, "120", is.TotalOperatingExpenses.String())
	assert.Equal(t, "300", is.NetIncome.String())
	assert.Equal(t, "200", is.TotalExpenses().String())
	assert.Equal(t, 90, is.Days())

	require.Len(t, is.OperatingExpenses, 2)
	assert.Equal(t, 6000, is.OperatingExpenses[0].AccountID)
	assert.Equal(t, 6200, is.OperatingExpenses[1].AccountID)
}

func TestIncomeWindowExcludesPriorPeriod(t *testing.T) {
	is := Income(newFixture(t).ledger, date(2025, 2, 1), date(2025, 2, 28), nil)
	assert.True(t, is.TotalRevenue.IsZero())
	// Without a COGS set, cost of sales is reported as operating expense.
	assert.Empty(t, is.CostOfSales)
	assert.Equal(t, "-120", is.NetIncome.String())
}

func TestCOGSAccounts(t *testing.T) {
	got := COGSAccounts([]model.Item{{COGSAccount: 5000}, {COGSAccount: 0}}, []int{5100})
	assert.Equal(t, map[int]bool{5000: true, 5100: true}, got)
}

func TestMonthlyRevenue(t *testing.T) {
	got := MonthlyRevenue(newFixture(t).ledger, date(2025, 3, 31))
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01", got[0].Month)
	assert.Equal(t, "500", got[0].Amount.String())
	assert.Equal(t, "2025-03", got[2].Month)
	assert.True(t, got[1].Amount.IsZero())
	assert.True(t, got[2].Amount.IsZero())
}

func TestBalanceSheet(t *testing.T) {
	f := newFixture(t)
	tb, err := f.ledger.TrialBalance(date(2025, 3, 31))
	require.NoError(t, err)

	bs, err := Balance(tb)
	require.NoError(t, err)

	assert.Equal(t, "6550", bs.TotalAssets.String())
	assert.Equal(t, "1250", bs.TotalLiabilities.String())
	assert.Equal(t, "5300", bs.TotalEquity.String())
	assert.Equal(t, "300", bs.CurrentEarnings.String())
	last := bs.Equity[len(bs.Equity)-1]
	assert.Equal(t, CurrentEarningsName, last.Name)
	assert.Zero(t, last.AccountID)

	// Cash, AR, input tax, inventory and clearing are current; equipment is not.
	assert.Equal(t, "5370", bs.CurrentAssets(f.class).String())
	assert.Equal(t, "250", bs.CurrentLiabilities(f.class).String())
}

func TestBalanceSheetIdentityHoldsAtEveryDate(t *testing.T) {
	f := newFixture(t)
	for d := date(2024, 12, 30); !d.After(date(2025, 3, 31)); d = d.AddDate(0, 0, 1) {
		tb, err := f.ledger.TrialBalance(d)
		require.NoError(t, err)
		bs, err := Balance(tb)
		require.NoError(t, err, d)
		assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity)))
	}
}

func TestBalanceSheetDetectsBrokenIdentity(t *testing.T) {
	tb := &ledger.TrialBalance{Rows: []model.TrialBalanceRow{
		{AccountID: 1000, Type: model.AccountTypeAsset, Debit: dec("10"), Balance: dec("10")},
	}}
	_, err := Balance(tb)
	var re *apperrors.ReconciliationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "balance_sheet", re.Check)
}

func TestCashFlowIndirect(t *testing.T) {
	f := newFixture(t)
	cf, err := CashFlowIndirect(f.ledger, f.chart, f.class, income(f))
	require.NoError(t, err)

	assert.Equal(t, "300", cf.NetIncome.String())
	require.Len(t, cf.NonCash, 1)
	assert.Equal(t, 1510, cf.NonCash[0].AccountID)
	assert.Equal(t, "20", cf.NonCash[0].Amount.String())

	wc := make(map[int]string)
	for _, l := range cf.WorkingCapital {
		wc[l.AccountID] = l.Amount.String()
	}
	assert.Equal(t, map[int]string{1100: "-250", 1200: "-120", 2000: "200", 2100: "50"}, wc)

	assert.Equal(t, "200", cf.NetOperating.String())
	assert.Equal(t, "-1200", cf.NetInvesting.String())
	assert.Equal(t, "1000", cf.NetFinancing.String())
	assert.True(t, cf.NetChange.IsZero())
	assert.Equal(t, "5000", cf.OpeningCash.String())
	assert.Equal(t, "5000", cf.ClosingCash.String())
}

func TestCashFlowMismatch(t *testing.T) {
	f := newFixture(t)
	is := income(f)
	is.NetIncome = is.NetIncome.Add(dec("1"))

	_, err := CashFlowIndirect(f.ledger, f.chart, f.class, is)
	var re *apperrors.ReconciliationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "cash_flow", re.Check)
}

func TestCashFlowExcludedAccountMoved(t *testing.T) {
	f := newFixture(t)
	cfg := config.Default("").CashFlow
	cfg.Financing = []int{2500}
	cfg.Excluded = []int{3000}
	class, err := Classify(f.chart, cfg)
	require.NoError(t, err)

	contribution, err := journal.NewEntry("2025-03-99", date(2025, 3, 2), "", model.SourceRef{}, time.Time{}, []model.JournalLine{
		journal.Debit(1000, dec("10")), journal.Credit(3000, dec("10")),
	})
	require.NoError(t, err)
	moved := newFixture(t, contribution)

	_, err = CashFlowIndirect(moved.ledger, moved.chart, class, income(moved))
	var re *apperrors.ReconciliationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "cash_flow_excluded", re.Check)
}

func TestClassify(t *testing.T) {
	chart, err := accounts.NewService(append(accounts.DefaultChart(),
		model.Account{ID: 1010, Name: "Petty Cash", Type: model.AccountTypeAsset, ParentID: 1000, IsActive: true},
	))
	require.NoError(t, err)

	c, err := Classify(chart, config.Default("").CashFlow)
	require.NoError(t, err)
	s, ok := c.Section(1010)
	assert.True(t, ok)
	assert.Equal(t, SectionCash, s)
	assert.Equal(t, []int{1000, 1010}, c.IDs(SectionCash))
	assert.True(t, c.IsCurrent(1100))
	assert.False(t, c.IsCurrent(1500))
	_, ok = c.Section(4000)
	assert.False(t, ok)
}

func TestClassifyErrors(t *testing.T) {
	chart, err := accounts.NewService(append(accounts.DefaultChart(),
		model.Account{ID: 1800, Name: "Deposits", Type: model.AccountTypeAsset, IsActive: true},
	))
	require.NoError(t, err)

	_, err = Classify(chart, config.Default("").CashFlow)
	var uae *apperrors.UnmappedAccountError
	require.ErrorAs(t, err, &uae)
	assert.Equal(t, "cash_flow", uae.Category)
	assert.Equal(t, 1800, uae.AccountID)

	cfg := config.Default("").CashFlow
	cfg.Operating = append(cfg.Operating, 4000)
	_, err = Classify(chart, cfg)
	require.ErrorAs(t, err, &uae)
	assert.Equal(t, 4000, uae.AccountID)

	cfg = config.Default("").CashFlow
	cfg.Investing = append(cfg.Investing, 1234)
	_, err = Classify(chart, cfg)
	require.ErrorAs(t, err, &uae)
	assert.Contains(t, uae.Reason, "cash_flow.investing")
}
