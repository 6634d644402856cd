package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceRef points a journal entry back at the input row it was derived from.
type SourceRef struct {
	Table    string // input table name, e.g. "ar_entries"
	Row      int    // 1-based data row (header excluded)
	SourceID string // EntryID of the source row, if it has one
}

// JournalLine is one side of a double-entry.
type JournalLine struct {
	LineID    string // "YYYY-MM-NNNx" where x = a,b,c...
	AccountID int
	Memo      string
	Debit     decimal.Decimal // zero if credit side
	Credit    decimal.Decimal // zero if debit side
}

// EntryGroup returns the base entry ID (without leg suffix).
// "2025-01-001a" -> "2025-01-001"
func (l JournalLine) EntryGroup() string {
	i := len(l.LineID)
	for i > 0 && l.LineID[i-1] >= 'a' && l.LineID[i-1] <= 'z' {
		i--
	}
	return l.LineID[:i]
}

// JournalEntry is a balanced, immutable set of lines posted on one date.
// Construct entries through journal.NewEntry; the zero value is not valid.
type JournalEntry struct {
	ID        string
	Date      time.Time
	Memo      string
	Lines     []JournalLine
	Source    SourceRef
	CreatedAt time.Time
}

// TotalDebit sums the debit side.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// TrialBalanceRow is one account's position as of a date. Debit and Credit
// present the raw balance on its side; Balance is signed by the account's
// normal side.
type TrialBalanceRow struct {
	AccountID int
	Name      string
	Type      AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Balance   decimal.Decimal
}

// Raw returns debit minus credit.
func (r TrialBalanceRow) Raw() decimal.Decimal {
	return r.Debit.Sub(r.Credit)
}
