package report

import (
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTables() []Table {
	tb := Table{Name: TableTrialBalance, Header: []string{"account_id", "name", "debit", "credit"}}
	tb.Append("1000", "Cash", "500.00", "0.00")
	tb.Append("4000", "Sales, \"retail\"", "0.00", "500.00")
	empty := Table{Name: TableInsights, Header: []string{"rule", "severity", "message", "metric"}}
	return []Table{tb, empty}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12.50", Money(decimal.RequireFromString("12.5")))
	assert.Equal(t, "-0.10", Money(decimal.RequireFromString("-0.1")))
	assert.Equal(t, "0.3333", Ratio(decimal.NewNullDecimal(decimal.NewFromInt(1).Div(decimal.NewFromInt(3)))))
	assert.Equal(t, "", Ratio(decimal.NullDecimal{}))
	assert.Equal(t, "108.52", Forecast(108.52000000000001))
	assert.Equal(t, "2025-03-31", Date(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", Date(time.Time{}))
}

func TestOrderIsComplete(t *testing.T) {
	assert.Len(t, Order, 14)
	assert.Equal(t, TableJournal, Order[0])
	assert.Equal(t, TableValidationReport, Order[len(Order)-1])
}

// readCSV reads back one published table.
func readCSV(t *testing.T, dir, name string) Table {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, name+".csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return Table{Name: name, Header: records[0], Rows: records[1:]}
}

func TestPublishCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Publish(context.Background(), Sinks{CSVDir: dir}, sampleTables()))

	assert.Equal(t, sampleTables()[0], readCSV(t, dir, TableTrialBalance))

	empty := readCSV(t, dir, TableInsights)
	assert.Equal(t, []string{"rule", "severity", "message", "metric"}, empty.Header)
	assert.Empty(t, empty.Rows)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "scratch dir must be removed")
}

func TestPublishIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, Publish(ctx, Sinks{CSVDir: dir}, sampleTables()))
	first, err := os.ReadFile(filepath.Join(dir, "TrialBalance.csv"))
	require.NoError(t, err)

	require.NoError(t, Publish(ctx, Sinks{CSVDir: dir}, sampleTables()))
	second, err := os.ReadFile(filepath.Join(dir, "TrialBalance.csv"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPublishSQLite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "books.db")
	sinks := Sinks{CSVDir: filepath.Join(root, "out"), SQLitePath: path}
	ctx := context.Background()
	require.NoError(t, Publish(ctx, sinks, sampleTables()))
	// A second publish replaces the database rather than appending.
	require.NoError(t, Publish(ctx, sinks, sampleTables()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "TrialBalance"`).Scan(&n))
	assert.Equal(t, 2, n)

	var name, credit string
	require.NoError(t, db.QueryRow(`SELECT name, credit FROM "TrialBalance" WHERE account_id = '4000'`).Scan(&name, &credit))
	assert.Equal(t, `Sales, "retail"`, name)
	assert.Equal(t, "500.00", credit)

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "Insights"`).Scan(&n))
	assert.Equal(t, 0, n)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"books.db", "out"}, names)
}

func TestPublishFailureLeavesNoOutput(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	sinks := Sinks{CSVDir: out, SQLitePath: filepath.Join(root, "missing", "books.db")}

	err := Publish(context.Background(), sinks, sampleTables())
	require.Error(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "no table may be written when a sink fails")
	assert.NoFileExists(t, filepath.Join(out, "TrialBalance.csv"))
}
