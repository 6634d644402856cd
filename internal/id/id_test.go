package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jan(day int) time.Time {
	return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestFormatEntryID(t *testing.T) {
	assert.Equal(t, "2025-01-001", FormatEntryID(jan(3), 1))
	assert.Equal(t, "2025-12-042", FormatEntryID(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 42))
}

func TestFormatLineID(t *testing.T) {
	tests := []struct {
		leg  int
		want string
	}{
		{0, "2025-01-001a"},
		{1, "2025-01-001b"},
		{25, "2025-01-001z"},
		{26, "2025-01-001aa"},
		{27, "2025-01-001ab"},
		{52, "2025-01-001ba"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatLineID("2025-01-001", tt.leg), "leg %d", tt.leg)
	}
}

func TestParseEntryID(t *testing.T) {
	year, month, seq, err := ParseEntryID("2025-03-017b")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 3, month)
	assert.Equal(t, 17, seq)

	_, _, _, err = ParseEntryID("2025-13-001")
	assert.Error(t, err)
	_, _, _, err = ParseEntryID("INV-1")
	assert.Error(t, err)
}

func TestEntryGroup(t *testing.T) {
	assert.Equal(t, "2025-01-001", EntryGroup("2025-01-001aa"))
	assert.Equal(t, "", EntryGroup(""))
}

func TestSequencer(t *testing.T) {
	s := NewSequencer()
	assert.Equal(t, "2025-01-001", s.Next(jan(5)))
	assert.Equal(t, "2025-01-002", s.Next(jan(5)))
	assert.Equal(t, "2025-02-001", s.Next(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-003", s.Next(jan(31)))
}
