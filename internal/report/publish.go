package report

import "context"

// Sinks are the destinations of one run's output tables.
type Sinks struct {
	// CSVDir receives one <Name>.csv per table.
	CSVDir string
	// SQLitePath, when set, is replaced by a database holding every table.
	SQLitePath string
}

// Publish writes tables to every sink. Each sink is written in full to a
// scratch location first; nothing is moved into place unless all of them
// were written, so a failure leaves the previous output untouched.
func Publish(ctx context.Context, sinks Sinks, tables []Table) error {
	csvOut, err := stageCSV(sinks.CSVDir, tables)
	if err != nil {
		return err
	}
	defer csvOut.discard()

	if sinks.SQLitePath != "" {
		db, err := stageSQLite(ctx, sinks.SQLitePath, tables)
		if err != nil {
			return err
		}
		defer db.discard()
		if err := db.commit(); err != nil {
			return err
		}
	}
	return csvOut.commit()
}
