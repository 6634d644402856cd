// Package ledger folds journal entries into per-account general ledgers and
// derives trial balances and period activity from them.
package ledger

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/model"
)

// Chart is the read-only view of the chart of accounts the ledger needs.
type Chart interface {
	All() []model.Account
	Get(id int) (model.Account, bool)
}

// Posting is a journal line as it appears in an account's ledger.
type Posting struct {
	EntryID string
	LineID  string
	Date    time.Time
	Memo    string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal // running balance on the account's normal side
	Source  model.SourceRef
}

// AccountLedger is the date-ordered history of one account.
type AccountLedger struct {
	Account  model.Account
	Postings []Posting
}

// Debit returns the total debits posted.
func (a AccountLedger) Debit() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Postings {
		total = total.Add(p.Debit)
	}
	return total
}

// Credit returns the total credits posted.
func (a AccountLedger) Credit() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Postings {
		total = total.Add(p.Credit)
	}
	return total
}

// Raw returns debits minus credits.
func (a AccountLedger) Raw() decimal.Decimal {
	return a.Debit().Sub(a.Credit())
}

// Balance returns the closing balance on the account's normal side.
func (a AccountLedger) Balance() decimal.Decimal {
	return Natural(a.Account.Type, a.Raw())
}

// Natural converts a raw debit-minus-credit amount to the normal side of t:
// unchanged for debit-normal types, negated otherwise.
func Natural(t model.AccountType, raw decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return raw
	}
	return raw.Neg()
}

// Ledger is the general ledger: one AccountLedger per chart account, ordered
// by account id.
type Ledger struct {
	accounts []AccountLedger
	byID     map[int]int
}

// Build folds entries into per-account ledgers. Accounts are folded in
// parallel; the result does not depend on scheduling. A line posting to an
// account outside the chart is an UnmappedAccountError.
func Build(ctx context.Context, chart Chart, entries []model.JournalEntry) (*Ledger, error) {
	all := chart.All()
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	byID := make(map[int]int, len(all))
	for i, a := range all {
		byID[a.ID] = i
	}

	grouped := make([][]Posting, len(all))
	for _, e := range entries {
		for _, l := range e.Lines {
			i, ok := byID[l.AccountID]
			if !ok {
				return nil, &apperrors.UnmappedAccountError{EntryID: e.ID, AccountID: l.AccountID, Category: "posting", Reason: "not in chart of accounts"}
			}
			grouped[i] = append(grouped[i], Posting{
				EntryID: e.ID,
				LineID:  l.LineID,
				Date:    e.Date,
				Memo:    l.Memo,
				Debit:   l.Debit,
				Credit:  l.Credit,
				Source:  e.Source,
			})
		}
	}

	out := make([]AccountLedger, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range all {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = fold(all[i], grouped[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Ledger{accounts: out, byID: byID}, nil
}

func fold(acct model.Account, postings []Posting) AccountLedger {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i], postings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.EntryID != b.EntryID {
			return a.EntryID < b.EntryID
		}
		return a.LineID < b.LineID
	})
	running := decimal.Zero
	for i := range postings {
		running = running.Add(Natural(acct.Type, postings[i].Debit.Sub(postings[i].Credit)))
		postings[i].Balance = running
	}
	return AccountLedger{Account: acct, Postings: postings}
}

// Accounts returns every account ledger ordered by account id.
func (l *Ledger) Accounts() []AccountLedger {
	return append([]AccountLedger(nil), l.accounts...)
}

// Account returns the ledger of one account.
func (l *Ledger) Account(id int) (AccountLedger, bool) {
	i, ok := l.byID[id]
	if !ok {
		return AccountLedger{}, false
	}
	return l.accounts[i], true
}

// AssertClosure checks global double-entry closure: raw balances across all
// accounts sum to exactly zero.
func (l *Ledger) AssertClosure() error {
	sum := decimal.Zero
	for _, a := range l.accounts {
		sum = sum.Add(a.Raw())
	}
	if !sum.IsZero() {
		return &apperrors.ReconciliationError{Check: "ledger_closure", Expected: decimal.Zero, Actual: sum, Detail: "sum of account balances is not zero"}
	}
	return nil
}

// LatestDate returns the latest posting date, or the zero time.
func (l *Ledger) LatestDate() time.Time {
	var latest time.Time
	for _, a := range l.accounts {
		if n := len(a.Postings); n > 0 && a.Postings[n-1].Date.After(latest) {
			latest = a.Postings[n-1].Date
		}
	}
	return latest
}
