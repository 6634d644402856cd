package journal

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/id"
	"github.com/cleared-dev/glengine/internal/model"
)

// Source table names recorded in SourceRef.Table.
const (
	SourceTableAR         = "ar_entries"
	SourceTableAP         = "ap_entries"
	SourceTableCashbook   = "cashbook"
	SourceTableAdjustment = "journal_adjustments"
)

// Sources are the validated rows the journalizer consumes.
type Sources struct {
	AR          []model.SourceEntry
	AP          []model.SourceEntry
	Cashbook    []model.CashbookEntry
	Adjustments []model.AdjustmentLine
}

// Journalizer converts source rows into journal entries using a configured
// account mapping. It never guesses an account: a row that needs a mapping
// that is not configured is rejected with an UnmappedAccountError.
type Journalizer struct {
	chart    AccountChecker
	mapping  config.AccountMapping
	now      func() time.Time
	log      *zap.Logger
	warnings []apperrors.RowFailure
}

// NewJournalizer returns a Journalizer. now stamps CreatedAt on every entry
// and may be nil; log may be nil.
func NewJournalizer(chart AccountChecker, mapping config.AccountMapping, now func() time.Time, log *zap.Logger) *Journalizer {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Journalizer{chart: chart, mapping: mapping, now: now, log: log}
}

// draft is an entry before it has an id. Drafts are ordered by date, then
// source table, then source row, then position within the row.
type draft struct {
	date  time.Time
	table int
	row   int
	sub   int
	memo  string
	src   model.SourceRef
	lines []model.JournalLine
}

var tableOrder = map[string]int{
	SourceTableAR:         0,
	SourceTableAP:         1,
	SourceTableCashbook:   2,
	SourceTableAdjustment: 3,
}

// Journalize converts every source row and posts the result to a new Book.
// Entry ids are assigned per month in date order, so the same input always
// yields the same ids.
func (j *Journalizer) Journalize(in Sources) (*Book, error) {
	j.warnings = nil
	settled := make(map[string]model.SourceEntry, len(in.AR)+len(in.AP))
	for _, e := range in.AR {
		settled[e.EntryID] = e
	}
	for _, e := range in.AP {
		settled[e.EntryID] = e
	}

	var drafts []draft
	for _, e := range in.AR {
		ds, err := j.receivable(e)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, ds...)
	}
	for _, e := range in.AP {
		ds, err := j.payable(e)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, ds...)
	}
	for _, e := range in.Cashbook {
		if e.LinkedEntryID != "" {
			j.checkLink(e, settled[e.LinkedEntryID])
			continue
		}
		d, ok, err := j.cashbook(e)
		if err != nil {
			return nil, err
		}
		if ok {
			drafts = append(drafts, d)
		}
	}
	drafts = append(drafts, adjustments(in.Adjustments)...)

	sort.SliceStable(drafts, func(a, b int) bool {
		da, db := drafts[a], drafts[b]
		if !da.date.Equal(db.date) {
			return da.date.Before(db.date)
		}
		if da.table != db.table {
			return da.table < db.table
		}
		if da.row != db.row {
			return da.row < db.row
		}
		return da.sub < db.sub
	})

	createdAt := j.now().UTC()
	seq := id.NewSequencer()
	book := NewBook()
	for _, d := range drafts {
		entryID := seq.Next(d.date)
		e, err := NewEntry(entryID, d.date, d.memo, d.src, createdAt, d.lines)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", describeSource(d.src), err)
		}
		if err := CheckAccounts(e, j.chart); err != nil {
			return nil, fmt.Errorf("%s: %w", describeSource(d.src), err)
		}
		if err := book.Post(e); err != nil {
			return nil, err
		}
	}
	j.log.Debug("journalized", zap.Int("entries", book.Len()))
	return book, nil
}

func describeSource(src model.SourceRef) string {
	if src.SourceID != "" {
		return fmt.Sprintf("%s row %d (%s)", src.Table, src.Row, src.SourceID)
	}
	return fmt.Sprintf("%s row %d", src.Table, src.Row)
}

func (j *Journalizer) unmapped(sourceID, category string, accountID int, reason string) error {
	return &apperrors.UnmappedAccountError{EntryID: sourceID, AccountID: accountID, Category: category, Reason: reason}
}

// lineAccount resolves the account named on a source row, falling back to
// the mapping fallback when the row leaves it blank.
func (j *Journalizer) lineAccount(e model.SourceEntry, category string, fallback int, types ...model.AccountType) (int, error) {
	acct := e.AccountID
	if acct == 0 {
		if fallback == 0 {
			return 0, j.unmapped(e.EntryID, category, 0, "AccountID is blank and no "+category+" mapping is configured")
		}
		acct = fallback
	}
	a, ok := j.chart.Get(acct)
	if !ok {
		return 0, j.unmapped(e.EntryID, category, acct, "not in chart of accounts")
	}
	for _, t := range types {
		if a.Type == t {
			return acct, nil
		}
	}
	return 0, j.unmapped(e.EntryID, category, acct, fmt.Sprintf("account type %s cannot take %s postings", a.Type.Title(), category))
}

func (j *Journalizer) required(sourceID, category string, acct int) error {
	if acct == 0 {
		return j.unmapped(sourceID, category, 0, "no "+category+" mapping is configured")
	}
	return nil
}

// receivable books an AR invoice and, when paid, its settlement.
func (j *Journalizer) receivable(e model.SourceEntry) ([]draft, error) {
	if !e.Total().IsPositive() {
		j.log.Debug("skipping zero-value invoice", zap.String("entry_id", e.EntryID))
		return nil, nil
	}
	m := j.mapping
	if err := j.required(e.EntryID, "receivable", m.Receivable); err != nil {
		return nil, err
	}

	lines := []model.JournalLine{Debit(m.Receivable, e.Total())}
	if e.Amount.IsPositive() {
		revenue, err := j.lineAccount(e, "revenue", m.Revenue, model.AccountTypeRevenue)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Credit(revenue, e.Amount))
	}
	if e.Tax.IsPositive() {
		if err := j.required(e.EntryID, "tax_payable", m.TaxPayable); err != nil {
			return nil, err
		}
		lines = append(lines, Credit(m.TaxPayable, e.Tax))
	}

	src := model.SourceRef{Table: SourceTableAR, Row: e.Row, SourceID: e.EntryID}
	out := []draft{{
		date:  e.InvoiceDate,
		table: tableOrder[SourceTableAR],
		row:   e.Row,
		memo:  sourceMemo(e, "Invoice"),
		src:   src,
		lines: lines,
	}}

	if e.PaidAmount.IsPositive() {
		if err := j.required(e.EntryID, "cash", m.Cash); err != nil {
			return nil, err
		}
		out = append(out, draft{
			date:  e.PaymentDate,
			table: tableOrder[SourceTableAR],
			row:   e.Row,
			sub:   1,
			memo:  sourceMemo(e, "Payment received"),
			src:   src,
			lines: []model.JournalLine{Debit(m.Cash, e.PaidAmount), Credit(m.Receivable, e.PaidAmount)},
		})
	}
	return out, nil
}

// payable books an AP bill and, when paid, its settlement.
func (j *Journalizer) payable(e model.SourceEntry) ([]draft, error) {
	if !e.Total().IsPositive() {
		j.log.Debug("skipping zero-value bill", zap.String("entry_id", e.EntryID))
		return nil, nil
	}
	m := j.mapping
	if err := j.required(e.EntryID, "payable", m.Payable); err != nil {
		return nil, err
	}

	var lines []model.JournalLine
	if e.Amount.IsPositive() {
		expense, err := j.lineAccount(e, "expense", m.Expense, model.AccountTypeExpense, model.AccountTypeAsset)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Debit(expense, e.Amount))
	}
	if e.Tax.IsPositive() {
		if err := j.required(e.EntryID, "tax_receivable", m.TaxReceivable); err != nil {
			return nil, err
		}
		lines = append(lines, Debit(m.TaxReceivable, e.Tax))
	}
	lines = append(lines, Credit(m.Payable, e.Total()))

	src := model.SourceRef{Table: SourceTableAP, Row: e.Row, SourceID: e.EntryID}
	out := []draft{{
		date:  e.InvoiceDate,
		table: tableOrder[SourceTableAP],
		row:   e.Row,
		memo:  sourceMemo(e, "Bill"),
		src:   src,
		lines: lines,
	}}

	if e.PaidAmount.IsPositive() {
		if err := j.required(e.EntryID, "cash", m.Cash); err != nil {
			return nil, err
		}
		out = append(out, draft{
			date:  e.PaymentDate,
			table: tableOrder[SourceTableAP],
			row:   e.Row,
			sub:   1,
			memo:  sourceMemo(e, "Payment made"),
			src:   src,
			lines: []model.JournalLine{Debit(m.Payable, e.PaidAmount), Credit(m.Cash, e.PaidAmount)},
		})
	}
	return out, nil
}

func sourceMemo(e model.SourceEntry, what string) string {
	memo := fmt.Sprintf("%s %s %s", e.Kind, what, e.EntryID)
	if e.Memo != "" {
		memo += ": " + e.Memo
	}
	return memo
}

// Warnings returns the cashbook rows of the last Journalize call that link
// to an AR/AP entry but disagree with the payment booked from it. The rows
// are kept; the payment on the entry wins.
func (j *Journalizer) Warnings() []apperrors.RowFailure {
	return append([]apperrors.RowFailure(nil), j.warnings...)
}

// checkLink compares a linked cashbook row with the payment of the entry it
// settles. The payment is booked from the entry itself, so the row produces
// nothing.
func (j *Journalizer) checkLink(e model.CashbookEntry, src model.SourceEntry) {
	warn := func(column, reason string) {
		j.log.Warn("cashbook row disagrees with linked entry",
			zap.Int("row", e.Row),
			zap.String("entry_id", e.LinkedEntryID),
			zap.String("column", column),
			zap.String("reason", reason),
		)
		j.warnings = append(j.warnings, apperrors.RowFailure{Table: SourceTableCashbook, Row: e.Row, Column: column, Reason: reason})
	}

	want := model.DirectionReceipt
	if src.Kind == model.SourceAP {
		want = model.DirectionPayment
	}
	if e.Direction != want {
		warn("Type", fmt.Sprintf("%s settles %s entry %s, want %s", e.Direction, src.Kind, e.LinkedEntryID, want))
	}
	if !e.Amount.Equal(src.PaidAmount) {
		warn("Amount", fmt.Sprintf("%s does not match %s paid on entry %s", e.Amount.StringFixed(2), src.PaidAmount.StringFixed(2), e.LinkedEntryID))
	}
	if !e.Date.Equal(src.PaymentDate) {
		paid := "no payment date"
		if !src.PaymentDate.IsZero() {
			paid = "payment date " + src.PaymentDate.Format(dateFormat)
		}
		warn("Date", fmt.Sprintf("%s does not match %s on entry %s", e.Date.Format(dateFormat), paid, e.LinkedEntryID))
	}
}

// cashbook books an unlinked cashbook row against its counter-account.
func (j *Journalizer) cashbook(e model.CashbookEntry) (draft, bool, error) {
	ref := fmt.Sprintf("cashbook row %d", e.Row)
	counter, category := j.mapping.Clearing, "clearing"
	if route, ok := j.mapping.CashbookRoutes[e.CounterpartyID]; ok && e.CounterpartyID != "" {
		counter, category = route, fmt.Sprintf("cashbook_routes[%s]", e.CounterpartyID)
	}
	if counter == 0 {
		return draft{}, false, j.unmapped(ref, "clearing", 0, "no cashbook route or clearing account is configured")
	}
	if counter == e.AccountID {
		return draft{}, false, j.unmapped(ref, category, counter, "counter-account is the cash account itself")
	}

	var lines []model.JournalLine
	switch e.Direction {
	case model.DirectionReceipt:
		lines = []model.JournalLine{Debit(e.AccountID, e.Amount), Credit(counter, e.Amount)}
	case model.DirectionPayment:
		lines = []model.JournalLine{Debit(counter, e.Amount), Credit(e.AccountID, e.Amount)}
	default:
		return draft{}, false, fmt.Errorf("%s: unknown direction %q", ref, e.Direction)
	}

	memo := e.Description
	if memo == "" {
		memo = fmt.Sprintf("Cashbook %s", e.Direction)
	}
	return draft{
		date:  e.Date,
		table: tableOrder[SourceTableCashbook],
		row:   e.Row,
		memo:  memo,
		src:   model.SourceRef{Table: SourceTableCashbook, Row: e.Row},
		lines: lines,
	}, true, nil
}

// adjustments groups manual lines by EntryID in first-seen order.
func adjustments(lines []model.AdjustmentLine) []draft {
	index := make(map[string]int)
	var out []draft
	for _, l := range lines {
		i, ok := index[l.EntryID]
		if !ok {
			i = len(out)
			index[l.EntryID] = i
			out = append(out, draft{
				date:  l.Date,
				table: tableOrder[SourceTableAdjustment],
				row:   l.Row,
				memo:  "Adjustment " + l.EntryID,
				src:   model.SourceRef{Table: SourceTableAdjustment, Row: l.Row, SourceID: l.EntryID},
			})
		}
		out[i].lines = append(out[i].lines, model.JournalLine{
			AccountID: l.AccountID,
			Memo:      l.Memo,
			Debit:     l.Debit,
			Credit:    l.Credit,
		})
	}
	return out
}
