// Package journal turns validated source rows into balanced double-entry
// journal entries and keeps them in an append-only book.
package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/id"
	"github.com/cleared-dev/glengine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// AccountChecker looks up accounts in the chart of accounts.
type AccountChecker interface {
	Get(id int) (model.Account, bool)
}

// NewEntry builds a journal entry from lines, assigning line ids in order.
// It rejects the entry whole if it has fewer than two lines, a line with
// both or neither side set, a negative amount, more than two decimal
// places, or unequal debit and credit totals.
func NewEntry(entryID string, date time.Time, memo string, src model.SourceRef, createdAt time.Time, lines []model.JournalLine) (model.JournalEntry, error) {
	if len(lines) < 2 {
		return model.JournalEntry{}, &apperrors.ImbalancedEntryError{EntryID: entryID, Reason: fmt.Sprintf("entry needs at least two lines, got %d", len(lines))}
	}

	out := make([]model.JournalLine, len(lines))
	debit, credit := decimal.Zero, decimal.Zero
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return model.JournalEntry{}, &apperrors.ImbalancedEntryError{EntryID: entryID, Reason: fmt.Sprintf("line %d has a negative amount", i+1)}
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return model.JournalEntry{}, &apperrors.ImbalancedEntryError{EntryID: entryID, Reason: fmt.Sprintf("line %d must have exactly one of debit or credit", i+1)}
		}
		if !hasTwoPlaces(l.Debit) || !hasTwoPlaces(l.Credit) {
			return model.JournalEntry{}, &apperrors.ImbalancedEntryError{EntryID: entryID, Reason: fmt.Sprintf("line %d has more than 2 decimal places", i+1)}
		}
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)

		l.LineID = id.FormatLineID(entryID, i)
		if l.Memo == "" {
			l.Memo = memo
		}
		out[i] = l
	}
	if !debit.Equal(credit) {
		return model.JournalEntry{}, &apperrors.ImbalancedEntryError{EntryID: entryID, Debit: debit, Credit: credit}
	}

	return model.JournalEntry{
		ID:        entryID,
		Date:      date,
		Memo:      memo,
		Lines:     out,
		Source:    src,
		CreatedAt: createdAt,
	}, nil
}

func hasTwoPlaces(d decimal.Decimal) bool {
	scaled := d.Mul(hundred)
	return scaled.Equal(scaled.Truncate(0))
}

// CheckAccounts verifies every line of e posts to an existing, active
// account.
func CheckAccounts(e model.JournalEntry, chart AccountChecker) error {
	for _, l := range e.Lines {
		a, ok := chart.Get(l.AccountID)
		if !ok {
			return &apperrors.UnmappedAccountError{EntryID: e.ID, AccountID: l.AccountID, Category: "posting", Reason: "not in chart of accounts"}
		}
		if !a.IsActive {
			return &apperrors.UnmappedAccountError{EntryID: e.ID, AccountID: l.AccountID, Category: "posting", Reason: "account is inactive"}
		}
	}
	return nil
}

// Debit returns a debit line.
func Debit(accountID int, amount decimal.Decimal) model.JournalLine {
	return model.JournalLine{AccountID: accountID, Debit: amount}
}

// Credit returns a credit line.
func Credit(accountID int, amount decimal.Decimal) model.JournalLine {
	return model.JournalLine{AccountID: accountID, Credit: amount}
}
