package statements

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
)

// CurrentEarningsName labels the synthetic equity line carrying cumulative
// profit that has not been closed to equity.
const CurrentEarningsName = "Current earnings"

// balanceTolerance bounds |assets - (liabilities + equity)|.
var balanceTolerance = decimal.New(1, -6)

// BalanceSheet is the position at AsOf.
type BalanceSheet struct {
	AsOf time.Time

	Assets      []Line
	Liabilities []Line
	Equity      []Line // includes the current earnings line

	CurrentEarnings  decimal.Decimal
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
}

// Balance builds the balance sheet from a trial balance. Books are never
// closed, so cumulative revenue minus expense is reported as a current
// earnings equity line. The accounting identity is checked.
func Balance(tb *ledger.TrialBalance) (*BalanceSheet, error) {
	bs := &BalanceSheet{AsOf: tb.AsOf, CurrentEarnings: decimal.Zero}
	for _, r := range tb.Rows {
		line := Line{AccountID: r.AccountID, Name: r.Name, Amount: r.Balance}
		switch r.Type {
		case model.AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
		case model.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
		case model.AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
		case model.AccountTypeRevenue:
			bs.CurrentEarnings = bs.CurrentEarnings.Add(r.Balance)
		case model.AccountTypeExpense:
			bs.CurrentEarnings = bs.CurrentEarnings.Sub(r.Balance)
		}
	}
	bs.Equity = append(bs.Equity, Line{Name: CurrentEarningsName, Amount: bs.CurrentEarnings})

	bs.TotalAssets = sumLines(bs.Assets)
	bs.TotalLiabilities = sumLines(bs.Liabilities)
	bs.TotalEquity = sumLines(bs.Equity)

	rhs := bs.TotalLiabilities.Add(bs.TotalEquity)
	if bs.TotalAssets.Sub(rhs).Abs().GreaterThan(balanceTolerance) {
		return nil, &apperrors.ReconciliationError{
			Check:    "balance_sheet",
			Expected: bs.TotalAssets,
			Actual:   rhs,
			Detail:   "assets != liabilities + equity",
		}
	}
	return bs, nil
}

// CurrentAssets sums asset balances classified as current.
func (bs *BalanceSheet) CurrentAssets(c *Classification) decimal.Decimal {
	return sumCurrent(bs.Assets, c)
}

// CurrentLiabilities sums liability balances classified as current.
func (bs *BalanceSheet) CurrentLiabilities(c *Classification) decimal.Decimal {
	return sumCurrent(bs.Liabilities, c)
}

func sumCurrent(lines []Line, c *Classification) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if c.IsCurrent(l.AccountID) {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// Amount returns the balance of one account on the sheet, zero if absent.
func (bs *BalanceSheet) Amount(id int) decimal.Decimal {
	for _, group := range [][]Line{bs.Assets, bs.Liabilities, bs.Equity} {
		for _, l := range group {
			if l.AccountID == id && id != 0 {
				return l.Amount
			}
		}
	}
	return decimal.Zero
}
