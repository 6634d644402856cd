package journal

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/glengine/internal/id"
	"github.com/cleared-dev/glengine/internal/model"
)

// AuditError describes a single invariant violation found by Audit.
type AuditError struct {
	EntryID     string
	Description string
}

func (e AuditError) Error() string {
	return fmt.Sprintf("[%s]: %s", e.EntryID, e.Description)
}

// Audit re-checks a full journal: every entry balances, line ids belong to
// their entry, accounts exist and are active, entry dates match the month
// in their id, and ids are unique and run 1..N within each month.
func Audit(entries []model.JournalEntry, chart AccountChecker) []AuditError {
	var errs []AuditError

	seqs := make(map[string]map[int]bool)
	for _, e := range entries {
		if !e.TotalDebit().Equal(e.TotalCredit()) {
			errs = append(errs, AuditError{
				EntryID:     e.ID,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", e.TotalDebit().StringFixed(2), e.TotalCredit().StringFixed(2)),
			})
		}

		for _, l := range e.Lines {
			if l.EntryGroup() != e.ID {
				errs = append(errs, AuditError{EntryID: e.ID, Description: fmt.Sprintf("line %s does not belong to entry", l.LineID)})
			}
			if l.Debit.IsZero() == l.Credit.IsZero() {
				errs = append(errs, AuditError{EntryID: e.ID, Description: fmt.Sprintf("line %s must have exactly one of debit or credit", l.LineID)})
			}
			a, ok := chart.Get(l.AccountID)
			switch {
			case !ok:
				errs = append(errs, AuditError{EntryID: e.ID, Description: fmt.Sprintf("unknown account %d", l.AccountID)})
			case !a.IsActive:
				errs = append(errs, AuditError{EntryID: e.ID, Description: fmt.Sprintf("inactive account %d", l.AccountID)})
			}
		}

		year, month, seq, err := id.ParseEntryID(e.ID)
		if err != nil {
			errs = append(errs, AuditError{EntryID: e.ID, Description: fmt.Sprintf("invalid entry ID: %v", err)})
			continue
		}
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			errs = append(errs, AuditError{
				EntryID:     e.ID,
				Description: fmt.Sprintf("date %s not in %04d-%02d", e.Date.Format(dateFormat), year, month),
			})
		}
		key := fmt.Sprintf("%04d-%02d", year, month)
		if seqs[key] == nil {
			seqs[key] = make(map[int]bool)
		}
		if seqs[key][seq] {
			errs = append(errs, AuditError{EntryID: e.ID, Description: "duplicate entry ID"})
		}
		seqs[key][seq] = true
	}

	months := make([]string, 0, len(seqs))
	for m := range seqs {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, month := range months {
		seen := seqs[month]
		for i := 1; i <= len(seen); i++ {
			if !seen[i] {
				errs = append(errs, AuditError{
					EntryID:     fmt.Sprintf("%s-%03d", month, i),
					Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seen)),
				})
			}
		}
	}
	return errs
}
