package storage

// TableStore is the contract every history-table backend must satisfy.
// A reconciliation run calls ReadAll once, optionally ClearAll and
// WriteHeader once, then AppendRows once. Stored rows are append-only:
// no backend ever updates or deletes individual rows.
type TableStore interface {
	// ReadAll returns the full table, header row included. An empty or
	// missing table yields a nil slice, not an error.
	ReadAll() ([][]string, error)
	// WriteHeader starts a fresh table containing only the header row.
	WriteHeader(columns []string) error
	// AppendRows adds rows after the current last row.
	AppendRows(rows [][]string) error
	// ClearAll discards all stored content, header included.
	ClearAll() error
	Close() error
}
