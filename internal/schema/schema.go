// Package schema validates raw input rows against expected column sets and
// coerces them into typed records. It never guesses: a value that does not
// parse cleanly is reported, not repaired.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
)

// DateFormat is the only accepted date layout.
const DateFormat = "2006-01-02"

// Kind is the expected type of a column.
type Kind int

const (
	String Kind = iota
	Int
	Decimal
	Date
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Decimal:
		return "decimal"
	case Date:
		return "date"
	case Bool:
		return "boolean"
	default:
		return "string"
	}
}

// Column describes one expected input column.
type Column struct {
	Name        string
	Kind        Kind
	Required    bool // the value must be present on every row
	Optional    bool // the column may be absent from the header
	NonNegative bool
	MaxPlaces   int // decimal places allowed; 0 = any
}

// Table is the expected shape of an input table.
type Table struct {
	Name    string
	Columns []Column
}

// RawTable is an already-parsed input table: a header and string cells.
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Present reports whether the table was supplied at all.
func (t RawTable) Present() bool {
	return len(t.Header) > 0
}

// Record is a row that passed column validation.
type Record struct {
	Table  string
	Row    int
	values map[string]any
}

// Has reports whether col holds a non-blank value.
func (r Record) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

// String returns the trimmed value of col, or "".
func (r Record) String(col string) string {
	s, _ := r.values[col].(string)
	return s
}

// Int returns the value of col, or 0.
func (r Record) Int(col string) int {
	n, _ := r.values[col].(int)
	return n
}

// Decimal returns the value of col, or zero.
func (r Record) Decimal(col string) decimal.Decimal {
	d, ok := r.values[col].(decimal.Decimal)
	if !ok {
		return decimal.Zero
	}
	return d
}

// Date returns the value of col, or the zero time.
func (r Record) Date(col string) time.Time {
	t, _ := r.values[col].(time.Time)
	return t
}

// Bool returns the value of col, or false.
func (r Record) Bool(col string) bool {
	b, _ := r.values[col].(bool)
	return b
}

// Validate coerces rows into Records. Rows are numbered from 1 (the header
// is not counted). A header missing a non-optional column yields a single
// table-level failure (Row 0) and no records.
func Validate(t Table, raw RawTable) ([]Record, []apperrors.RowFailure) {
	index := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		index[normalizeHeader(h)] = i
	}

	var failures []apperrors.RowFailure
	for _, c := range t.Columns {
		if _, ok := index[normalizeHeader(c.Name)]; !ok && !c.Optional {
			failures = append(failures, apperrors.RowFailure{Table: t.Name, Column: c.Name, Reason: "missing column in header"})
		}
	}
	if len(failures) > 0 {
		return nil, failures
	}

	records := make([]Record, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		rowNum := i + 1
		if isBlankRow(row) {
			continue
		}
		if len(row) != len(raw.Header) {
			failures = append(failures, apperrors.RowFailure{
				Table:  t.Name,
				Row:    rowNum,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(raw.Header), len(row)),
			})
			continue
		}

		rec := Record{Table: t.Name, Row: rowNum, values: make(map[string]any, len(t.Columns))}
		var rowFailures []apperrors.RowFailure
		for _, c := range t.Columns {
			pos, ok := index[normalizeHeader(c.Name)]
			cell := ""
			if ok {
				cell = strings.TrimSpace(row[pos])
			}
			if cell == "" {
				if c.Required {
					rowFailures = append(rowFailures, apperrors.RowFailure{Table: t.Name, Row: rowNum, Column: c.Name, Reason: "missing required value"})
				}
				continue
			}
			v, err := coerce(c, cell)
			if err != nil {
				rowFailures = append(rowFailures, apperrors.RowFailure{Table: t.Name, Row: rowNum, Column: c.Name, Reason: err.Error()})
				continue
			}
			rec.values[c.Name] = v
		}
		if len(rowFailures) > 0 {
			failures = append(failures, rowFailures...)
			continue
		}
		records = append(records, rec)
	}
	return records, failures
}

var (
	intPattern     = regexp.MustCompile(`^-?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

func coerce(c Column, cell string) (any, error) {
	switch c.Kind {
	case Int:
		if !intPattern.MatchString(cell) {
			return nil, fmt.Errorf("want %s, got %q", c.Kind, cell)
		}
		n, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", cell, err)
		}
		if c.NonNegative && n < 0 {
			return nil, fmt.Errorf("negative value %d not allowed", n)
		}
		return n, nil
	case Decimal:
		if !decimalPattern.MatchString(cell) {
			return nil, fmt.Errorf("want %s, got %q", c.Kind, cell)
		}
		d, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", cell, err)
		}
		if c.NonNegative && d.IsNegative() {
			return nil, fmt.Errorf("negative value %s not allowed", cell)
		}
		if c.MaxPlaces > 0 && !d.Equal(d.Round(int32(c.MaxPlaces))) {
			return nil, fmt.Errorf("%s has more than %d decimal places", cell, c.MaxPlaces)
		}
		return d, nil
	case Date:
		d, err := time.Parse(DateFormat, cell)
		if err != nil {
			return nil, fmt.Errorf("want date YYYY-MM-DD, got %q", cell)
		}
		return d, nil
	case Bool:
		return parseBool(cell)
	default:
		return cell, nil
	}
}

func parseBool(cell string) (bool, error) {
	switch strings.ToLower(cell) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("want boolean, got %q", cell)
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
