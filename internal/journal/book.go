package journal

import (
	"fmt"
	"time"

	"github.com/cleared-dev/glengine/internal/model"
)

// Book is an append-only sequence of posted entries. Entries cannot be
// changed or removed once posted.
type Book struct {
	entries []model.JournalEntry
	byID    map[string]int
}

// NewBook returns an empty Book.
func NewBook() *Book {
	return &Book{byID: make(map[string]int)}
}

// Post appends e. Entry ids must be unique.
func (b *Book) Post(e model.JournalEntry) error {
	if _, dup := b.byID[e.ID]; dup {
		return fmt.Errorf("entry %s already posted", e.ID)
	}
	b.byID[e.ID] = len(b.entries)
	b.entries = append(b.entries, e)
	return nil
}

// Entries returns the posted entries in posting order.
func (b *Book) Entries() []model.JournalEntry {
	out := make([]model.JournalEntry, len(b.entries))
	for i, e := range b.entries {
		e.Lines = append([]model.JournalLine(nil), e.Lines...)
		out[i] = e
	}
	return out
}

// Get returns the entry with the given id.
func (b *Book) Get(entryID string) (model.JournalEntry, bool) {
	i, ok := b.byID[entryID]
	if !ok {
		return model.JournalEntry{}, false
	}
	return b.entries[i], true
}

// Len returns the number of posted entries.
func (b *Book) Len() int { return len(b.entries) }

// LatestDate returns the date of the latest entry, or the zero time.
func (b *Book) LatestDate() time.Time {
	var latest time.Time
	for _, e := range b.entries {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest
}
