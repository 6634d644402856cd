package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatEntryID returns an entry ID like "2025-01-001".
func FormatEntryID(date time.Time, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", date.Year(), int(date.Month()), seq)
}

// FormatLineID returns a line ID like "2025-01-001a" (leg 0='a', 25='z',
// 26='aa', ...).
func FormatLineID(entryID string, leg int) string {
	var suffix []byte
	for n := leg; ; n = n/26 - 1 {
		suffix = append([]byte{byte('a' + n%26)}, suffix...)
		if n < 26 {
			break
		}
	}
	return entryID + string(suffix)
}

// ParseEntryID parses "2025-01-001" into year, month, seq.
func ParseEntryID(id string) (year, month, seq int, err error) {
	base := EntryGroup(id)

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q", id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// EntryGroup strips the leg suffix from a line ID.
// "2025-01-001a" -> "2025-01-001"
func EntryGroup(lineID string) string {
	i := len(lineID)
	for i > 0 && lineID[i-1] >= 'a' && lineID[i-1] <= 'z' {
		i--
	}
	return lineID[:i]
}

// Sequencer hands out per-month entry IDs in call order. Callers must feed
// it entries in their final sort order for IDs to be reproducible.
type Sequencer struct {
	next map[string]int
}

// NewSequencer returns a Sequencer starting every month at 1.
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[string]int)}
}

// Next returns the next entry ID for the month of date.
func (s *Sequencer) Next(date time.Time) string {
	key := date.Format("2006-01")
	s.next[key]++
	return FormatEntryID(date, s.next[key])
}
