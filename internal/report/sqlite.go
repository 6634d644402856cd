package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteStage is a complete database written next to its target path.
type sqliteStage struct {
	path string
	tmp  string
}

// stageSQLite writes every table into a fresh database beside path, one SQL
// table per output table with TEXT columns, in a single transaction.
func stageSQLite(ctx context.Context, path string, tables []Table) (*sqliteStage, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".glengine-*.db")
	if err != nil {
		return nil, fmt.Errorf("creating sqlite scratch file: %w", err)
	}
	s := &sqliteStage{path: path, tmp: f.Name()}
	if err := f.Close(); err != nil {
		s.discard()
		return nil, err
	}
	if err := writeSQLite(ctx, s.tmp, tables); err != nil {
		s.discard()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStage) commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		return fmt.Errorf("moving %s into place: %w", filepath.Base(s.path), err)
	}
	return nil
}

func (s *sqliteStage) discard() {
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		_ = os.Remove(s.tmp + suffix)
	}
}

func writeSQLite(ctx context.Context, path string, tables []Table) error {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := writeTable(ctx, tx, t); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return db.Close()
}

func writeTable(ctx context.Context, tx *sql.Tx, t Table) error {
	name := quoteIdent(t.Name)
	cols := make([]string, len(t.Header))
	marks := make([]string, len(t.Header))
	for i, h := range t.Header {
		cols[i] = quoteIdent(h) + " TEXT"
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(cols, ", "))); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, row := range t.Rows {
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
