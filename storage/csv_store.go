package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CSVStore keeps the history table in a CSV file on disk. It is safe for
// concurrent use, though a reconciliation run only ever touches it from
// one goroutine.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore prepares a store backed by the CSV file at the given path.
// Intermediate directories are created automatically; the file itself is
// only created once something is written.
func NewCSVStore(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}
	return &CSVStore{path: path}, nil
}

// ReadAll parses the whole file, header row included. A missing file is an
// empty table, not an error.
func (c *CSVStore) ReadAll() ([][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // historical files may carry short rows
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", c.path, err)
	}
	return rows, nil
}

// WriteHeader truncates the file and writes the header row.
func (c *CSVStore) WriteHeader(columns []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create %q: %w", c.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush header: %w", err)
	}
	return f.Close()
}

// AppendRows adds rows to the end of the file without rewriting existing
// content.
func (c *CSVStore) AppendRows(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q for append: %w", c.path, err)
	}

	w := csv.NewWriter(f)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush rows: %w", err)
	}
	return f.Close()
}

// ClearAll truncates the file to zero length.
func (c *CSVStore) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: truncate %q: %w", c.path, err)
	}
	return f.Close()
}

// Close is a no-op; the file is opened and closed per operation.
func (c *CSVStore) Close() error {
	return nil
}
