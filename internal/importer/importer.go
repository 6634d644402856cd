// Package importer reads the input directory into raw tables. It only
// splits CSV; typing and validation belong to the schema package.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/schema"
)

// Tables lists the input tables the engine reads, in load order. Each is
// read from <dir>/<name>.csv.
var Tables = []string{
	schema.TableAccounts,
	schema.TableCustomers,
	schema.TableVendors,
	schema.TableItems,
	schema.TableAREntries,
	schema.TableAPEntries,
	schema.TableCashbook,
	schema.TableAdjustments,
}

// FileInfo describes a CSV file in the input directory.
type FileInfo struct {
	Name  string
	Path  string
	Size  int64
	Table string // "" when the file is not an input table
}

// Scan returns the CSV files in dir, sorted by name.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}
	known := make(map[string]bool, len(Tables))
	for _, t := range Tables {
		known[t] = true
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		fi := FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		}
		if base := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))); known[base] {
			fi.Table = base
		}
		files = append(files, fi)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Load reads every input table found in dir. Missing tables are simply
// absent from the result; unknown CSV files are logged and ignored.
func Load(dir string, log *zap.Logger) (map[string]schema.RawTable, error) {
	if log == nil {
		log = zap.NewNop()
	}
	files, err := Scan(dir)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]schema.RawTable)
	for _, f := range files {
		if f.Table == "" {
			log.Warn("ignoring unknown input file", zap.String("file", f.Name))
			continue
		}
		if _, dup := tables[f.Table]; dup {
			return nil, fmt.Errorf("%s: more than one file for table %s", f.Name, f.Table)
		}
		t, err := ReadFile(f.Path, f.Table)
		if err != nil {
			return nil, err
		}
		log.Debug("loaded input table", zap.String("table", f.Table), zap.Int("rows", len(t.Rows)))
		tables[f.Table] = t
	}
	return tables, nil
}

// ReadFile reads one CSV file as table name.
func ReadFile(path, name string) (schema.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	t, err := Read(f, name)
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Read parses CSV from r. The first record is the header. Rows are not
// required to match the header width; the schema validator reports those.
func Read(r io.Reader, name string) (schema.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("parsing CSV: %w", err)
	}
	t := schema.RawTable{Name: name}
	if len(records) == 0 {
		return t, nil
	}
	t.Header = records[0]
	t.Rows = records[1:]
	return t, nil
}
