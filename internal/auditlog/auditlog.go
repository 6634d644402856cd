// Package auditlog keeps the append-only record of engine runs in
// <output>/logs/audit-log.csv.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the CLI.
const (
	ActionRunStarted   = "run_started"
	ActionStage        = "stage_complete"
	ActionRunSucceeded = "run_succeeded"
	ActionRunFailed    = "run_failed"
	ActionCommitted    = "output_committed"
)

// Entry is one row in the audit log. All entries of one run share a RunID.
type Entry struct {
	Timestamp time.Time
	RunID     uuid.UUID
	Stage     string
	Action    string
	Details   string
	EntryID   string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,run_id,stage,action,details,entry_id"

const (
	numFields    = 6
	logDir       = "logs"
	logFile      = "logs/audit-log.csv"
	colTimestamp = 0
	colRunID     = 1
	colStage     = 2
	colAction    = 3
	colDetails   = 4
	colEntryID   = 5
)

// Run accumulates the entries of one run.
type Run struct {
	ID      uuid.UUID
	now     func() time.Time
	entries []Entry
}

// NewRun starts a run with a fresh id. now may be nil.
func NewRun(now func() time.Time) *Run {
	if now == nil {
		now = time.Now
	}
	return &Run{ID: uuid.New(), now: now}
}

// Record adds an entry stamped with the current time.
func (r *Run) Record(stage, action, details string) {
	r.entries = append(r.entries, Entry{
		Timestamp: r.now().UTC(),
		RunID:     r.ID,
		Stage:     stage,
		Action:    action,
		Details:   details,
	})
}

// Entries returns the recorded entries.
func (r *Run) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID.String()
	row[colStage] = e.Stage
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colEntryID] = e.EntryID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	runID, err := uuid.Parse(record[colRunID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing run id %q: %w", record[colRunID], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     runID,
		Stage:     record[colStage],
		Action:    record[colAction],
		Details:   record[colDetails],
		EntryID:   record[colEntryID],
	}, nil
}

// Append writes entries to <dir>/logs/audit-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
