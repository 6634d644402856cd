package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/model"
)

// Header is the CSV header of the Journal output table.
const Header = "entry_id,line_id,date,account_id,memo,debit,credit,source_table,source_row,source_id"

const (
	numFields   = 10
	dateFormat  = "2006-01-02"
	colEntryID  = 0
	colLineID   = 1
	colDate     = 2
	colAcctID   = 3
	colMemo     = 4
	colDebit    = 5
	colCredit   = 6
	colSrcTable = 7
	colSrcRow   = 8
	colSrcID    = 9
)

// Columns returns Header split into column names.
func Columns() []string {
	return strings.Split(Header, ",")
}

// Row is one line of the Journal table with its entry context.
type Row struct {
	EntryID string
	Date    time.Time
	Line    model.JournalLine
	Source  model.SourceRef
}

// MarshalLine converts one line of e to a CSV row.
func MarshalLine(e model.JournalEntry, l model.JournalLine) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colLineID] = l.LineID
	row[colDate] = e.Date.Format(dateFormat)
	row[colAcctID] = strconv.Itoa(l.AccountID)
	row[colMemo] = l.Memo

	if !l.Debit.IsZero() {
		row[colDebit] = l.Debit.StringFixed(2)
	}
	if !l.Credit.IsZero() {
		row[colCredit] = l.Credit.StringFixed(2)
	}

	row[colSrcTable] = e.Source.Table
	if e.Source.Row != 0 {
		row[colSrcRow] = strconv.Itoa(e.Source.Row)
	}
	row[colSrcID] = e.Source.SourceID
	return row
}

// UnmarshalLine converts a CSV row to a Row.
func UnmarshalLine(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	accountID, err := strconv.Atoi(record[colAcctID])
	if err != nil {
		return Row{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	var debit, credit decimal.Decimal
	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return Row{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}
	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return Row{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	var srcRow int
	if record[colSrcRow] != "" {
		srcRow, err = strconv.Atoi(record[colSrcRow])
		if err != nil {
			return Row{}, fmt.Errorf("parsing source_row %q: %w", record[colSrcRow], err)
		}
	}

	return Row{
		EntryID: record[colEntryID],
		Date:    date,
		Line: model.JournalLine{
			LineID:    record[colLineID],
			AccountID: accountID,
			Memo:      record[colMemo],
			Debit:     debit,
			Credit:    credit,
		},
		Source: model.SourceRef{Table: record[colSrcTable], Row: srcRow, SourceID: record[colSrcID]},
	}, nil
}

// ReadJournal reads a Journal table back into entries. Each entry is rebuilt
// through NewEntry, so a hand-edited file that no longer balances is
// rejected.
func ReadJournal(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var (
		entries []model.JournalEntry
		cur     []Row
	)
	flush := func() error {
		if len(cur) == 0 {
			return nil
		}
		lines := make([]model.JournalLine, len(cur))
		for i, r := range cur {
			lines[i] = r.Line
		}
		first := cur[0]
		e, err := NewEntry(first.EntryID, first.Date, first.Line.Memo, first.Source, time.Time{}, lines)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		cur = nil
		return nil
	}

	for i, rec := range records[1:] {
		row, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if len(cur) > 0 && cur[0].EntryID != row.EntryID {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("entry %s: %w", cur[0].EntryID, err)
			}
		}
		cur = append(cur, row)
	}
	if len(cur) > 0 {
		if err := flush(); err != nil {
			return nil, fmt.Errorf("entry %s: %w", cur[0].EntryID, err)
		}
	}
	return entries, nil
}
