package services

import (
	"fmt"
	"strings"

	"nycdev-scraper/models"
	"nycdev-scraper/storage"
	"nycdev-scraper/utils"
)

// Reconciler implements the dedup-and-append procedure for the history
// table: given the stored rows and a freshly fetched batch, it computes
// which batch rows are genuinely new and appends only those. Stored rows
// are never rewritten or reordered.
type Reconciler struct {
	logger *utils.Logger
}

// NewReconciler creates a Reconciler with the given logger.
func NewReconciler(logger *utils.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Align maps dataset rows onto the canonical column order. Incoming column
// names match case-insensitively with surrounding whitespace ignored; a
// canonical column absent from the dataset yields an empty field in every
// row, and extra incoming columns are dropped.
func Align(ds models.Dataset) [][]string {
	index := make([]int, len(models.Columns))
	for i, want := range models.Columns {
		index[i] = -1
		for j, have := range ds.Header {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				index[i] = j
				break
			}
		}
	}

	aligned := make([][]string, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		out := make([]string, len(models.Columns))
		for i, j := range index {
			if j >= 0 && j < len(row) {
				out[i] = row[j]
			}
		}
		aligned = append(aligned, out)
	}
	return aligned
}

// Reconcile returns the incoming rows that do not already appear in the
// existing table, aligned to canonical column order and in their original
// relative order. A row that repeats within the batch is emitted only
// once. Rows without a date are treated as padding and skipped, on both
// sides.
func (r *Reconciler) Reconcile(existing [][]string, incoming models.Dataset) [][]string {
	seen := make(map[models.Key]struct{}, len(existing))
	for _, row := range existing {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		seen[models.KeyFor(row)] = struct{}{}
	}

	var fresh [][]string
	for _, row := range Align(incoming) {
		if strings.TrimSpace(row[0]) == "" {
			r.logger.Debug("[reconcile] Skipping row with empty date: %q", row[2])
			continue
		}
		key := models.KeyFor(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, row)
	}
	return fresh
}

// Run performs one reconciliation pass against a store: read the full
// table once, reset it when the stored header does not exactly match the
// canonical schema, then append the new rows in a single call. Returns the
// rows that were appended.
func (r *Reconciler) Run(store storage.TableStore, incoming models.Dataset) ([][]string, error) {
	table, err := store.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reconcile: read table: %w", err)
	}

	var existing [][]string
	if len(table) == 0 || !headerMatches(table[0]) {
		if len(table) > 0 {
			r.logger.Warn("[reconcile] Stored header does not match canonical schema — resetting table")
		}
		if err := store.ClearAll(); err != nil {
			return nil, fmt.Errorf("reconcile: clear table: %w", err)
		}
		if err := store.WriteHeader(models.Columns); err != nil {
			return nil, fmt.Errorf("reconcile: write header: %w", err)
		}
	} else {
		existing = table[1:]
	}

	fresh := r.Reconcile(existing, incoming)
	if len(fresh) == 0 {
		return nil, nil
	}
	if err := store.AppendRows(fresh); err != nil {
		return nil, fmt.Errorf("reconcile: append rows: %w", err)
	}
	return fresh, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(models.Columns) {
		return false
	}
	for i, want := range models.Columns {
		if header[i] != want {
			return false
		}
	}
	return true
}
