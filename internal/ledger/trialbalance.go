package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/model"
)

// TrialBalance is the position of every reported account as of a date.
type TrialBalance struct {
	AsOf        time.Time
	Rows        []model.TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal

	byID map[int]int
}

// TrialBalance computes balances from postings dated on or before asOf.
// Rows are ordered by account type, then id. Active accounts are always
// listed; inactive accounts only when they have postings up to asOf.
func (l *Ledger) TrialBalance(asOf time.Time) (*TrialBalance, error) {
	tb := &TrialBalance{AsOf: asOf, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero, byID: make(map[int]int)}
	for _, a := range l.accounts {
		raw, active := decimal.Zero, false
		for _, p := range a.Postings {
			if p.Date.After(asOf) {
				break
			}
			active = true
			raw = raw.Add(p.Debit).Sub(p.Credit)
		}
		if !a.Account.IsActive && !active {
			continue
		}
		row := model.TrialBalanceRow{
			AccountID: a.Account.ID,
			Name:      a.Account.Name,
			Type:      a.Account.Type,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
			Balance:   Natural(a.Account.Type, raw),
		}
		if raw.IsNegative() {
			row.Credit = raw.Neg()
		} else {
			row.Debit = raw
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}

	sort.SliceStable(tb.Rows, func(i, j int) bool {
		oi, oj := tb.Rows[i].Type.Order(), tb.Rows[j].Type.Order()
		if oi != oj {
			return oi < oj
		}
		return tb.Rows[i].AccountID < tb.Rows[j].AccountID
	})
	for i, r := range tb.Rows {
		tb.byID[r.AccountID] = i
	}

	if !tb.TotalDebit.Equal(tb.TotalCredit) {
		return nil, &apperrors.ReconciliationError{
			Check:    "trial_balance",
			Expected: tb.TotalDebit,
			Actual:   tb.TotalCredit,
			Detail:   fmt.Sprintf("as of %s debits and credits differ", asOf.Format("2006-01-02")),
		}
	}
	return tb, nil
}

// Row returns the row for an account, if it is listed.
func (tb *TrialBalance) Row(id int) (model.TrialBalanceRow, bool) {
	i, ok := tb.byID[id]
	if !ok {
		return model.TrialBalanceRow{}, false
	}
	return tb.Rows[i], true
}

// Raw returns the debit-minus-credit balance of an account, zero if unlisted.
func (tb *TrialBalance) Raw(id int) decimal.Decimal {
	r, ok := tb.Row(id)
	if !ok {
		return decimal.Zero
	}
	return r.Raw()
}

// Balance returns the natural-side balance of an account, zero if unlisted.
func (tb *TrialBalance) Balance(id int) decimal.Decimal {
	r, ok := tb.Row(id)
	if !ok {
		return decimal.Zero
	}
	return r.Balance
}

// SumBalance adds natural-side balances over ids.
func (tb *TrialBalance) SumBalance(ids []int) decimal.Decimal {
	total := decimal.Zero
	for _, id := range ids {
		total = total.Add(tb.Balance(id))
	}
	return total
}

// ByType returns the rows of one account type.
func (tb *TrialBalance) ByType(t model.AccountType) []model.TrialBalanceRow {
	var out []model.TrialBalanceRow
	for _, r := range tb.Rows {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Flow is an account's activity over a date window.
type Flow struct {
	Account model.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Net returns the window's movement on the account's normal side.
func (f Flow) Net() decimal.Decimal {
	return Natural(f.Account.Type, f.Debit.Sub(f.Credit))
}

// Window returns per-account activity for postings dated within [from, to].
// Accounts without activity in the window are omitted. A zero from means
// no lower bound.
func (l *Ledger) Window(from, to time.Time) []Flow {
	var out []Flow
	for _, a := range l.accounts {
		f := Flow{Account: a.Account, Debit: decimal.Zero, Credit: decimal.Zero}
		seen := false
		for _, p := range a.Postings {
			if p.Date.After(to) {
				break
			}
			if !from.IsZero() && p.Date.Before(from) {
				continue
			}
			seen = true
			f.Debit = f.Debit.Add(p.Debit)
			f.Credit = f.Credit.Add(p.Credit)
		}
		if seen {
			out = append(out, f)
		}
	}
	return out
}

// Monthly returns the natural-side movement per calendar month ("2006-01")
// of the accounts of type t, for postings dated on or before to.
func (l *Ledger) Monthly(t model.AccountType, to time.Time) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, a := range l.accounts {
		if a.Account.Type != t {
			continue
		}
		for _, p := range a.Postings {
			if p.Date.After(to) {
				break
			}
			key := p.Date.Format("2006-01")
			out[key] = out[key].Add(Natural(t, p.Debit.Sub(p.Credit)))
		}
	}
	return out
}
