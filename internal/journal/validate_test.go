package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/model"
)

func TestAuditCleanJournal(t *testing.T) {
	assert.Empty(t, Audit(sampleEntries(t), chart(t)))
}

func TestAuditFindsProblems(t *testing.T) {
	entries := sampleEntries(t)

	// Gap: 2025-01-001 then 2025-01-003.
	gap, err := NewEntry("2025-01-003", date(2025, 1, 22), "", model.SourceRef{}, time.Time{}, []model.JournalLine{
		Debit(1000, dec("1")), Credit(4000, dec("1")),
	})
	require.NoError(t, err)
	// Wrong month and unknown account.
	wrong, err := NewEntry("2025-02-001", date(2025, 3, 1), "", model.SourceRef{}, time.Time{}, []model.JournalLine{
		Debit(1000, dec("1")), Credit(4999, dec("1")),
	})
	require.NoError(t, err)

	errs := Audit([]model.JournalEntry{entries[0], gap, wrong}, chart(t))
	var descs []string
	for _, e := range errs {
		descs = append(descs, e.Error())
	}
	assert.Contains(t, descs, "[2025-02-001]: unknown account 4999")
	assert.Contains(t, descs, "[2025-02-001]: date 2025-03-01 not in 2025-02")
	assert.Contains(t, descs, "[2025-01-002]: missing sequence 2 in 1..2")
}
