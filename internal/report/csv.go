package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// csvStage holds tables written to a scratch directory inside dir that
// have not been moved into place yet.
type csvStage struct {
	dir   string
	tmp   string
	names []string
}

func stageCSV(dir string, tables []Table) (*csvStage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	tmp, err := os.MkdirTemp(dir, ".glengine-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	s := &csvStage{dir: dir, tmp: tmp}
	for _, t := range tables {
		name := t.Name + ".csv"
		if err := writeCSV(filepath.Join(tmp, name), t); err != nil {
			s.discard()
			return nil, fmt.Errorf("writing %s: %w", t.Name, err)
		}
		s.names = append(s.names, name)
	}
	return s, nil
}

func (s *csvStage) commit() error {
	for _, name := range s.names {
		if err := os.Rename(filepath.Join(s.tmp, name), filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("moving %s into place: %w", name, err)
		}
	}
	return nil
}

func (s *csvStage) discard() {
	_ = os.RemoveAll(s.tmp)
}

func writeCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}
