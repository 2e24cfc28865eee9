package services

import (
	"reflect"
	"testing"

	"nycdev-scraper/models"
	"nycdev-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func row(date, source, title, address string, rest ...string) []string {
	r := []string{date, source, title, address, "", "", ""}
	for i, v := range rest {
		r[4+i] = v
	}
	return r
}

func batch(rows ...[]string) models.Dataset {
	return models.Dataset{Header: models.Columns, Rows: rows}
}

// fakeStore is an in-memory TableStore recording the calls a
// reconciliation run makes.
type fakeStore struct {
	table        [][]string
	cleared      bool
	headerWrites int
	appendCalls  int
}

func (f *fakeStore) ReadAll() ([][]string, error) { return f.table, nil }

func (f *fakeStore) WriteHeader(columns []string) error {
	f.headerWrites++
	f.table = [][]string{columns}
	return nil
}

func (f *fakeStore) AppendRows(rows [][]string) error {
	f.appendCalls++
	f.table = append(f.table, rows...)
	return nil
}

func (f *fakeStore) ClearAll() error {
	f.cleared = true
	f.table = nil
	return nil
}

func (f *fakeStore) Close() error { return nil }

func TestReconcileEmitsOnlyNewRows(t *testing.T) {
	r := NewReconciler(newTestLogger())

	existing := [][]string{
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St", "Manhattan", "Acme Dev", "http://x"),
	}
	incoming := batch(
		row("2024-01-01", "YIMBY", "new tower", "123 MAIN ST"),
		row("2024-01-02", "TRD", "Other Project", "456 Elm St"),
	)

	fresh := r.Reconcile(existing, incoming)
	if len(fresh) != 1 {
		t.Fatalf("expected 1 new row, got %d", len(fresh))
	}
	if fresh[0][2] != "Other Project" {
		t.Errorf("wrong row emitted: %v", fresh[0])
	}
}

func TestReconcileIdempotence(t *testing.T) {
	r := NewReconciler(newTestLogger())

	existing := [][]string{
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St"),
	}
	incoming := batch(
		row("2024-01-02", "TRD", "Other Project", "456 Elm St"),
		row("2024-01-03", "YIMBY", "Third Project", "789 Oak St"),
	)

	first := r.Reconcile(existing, incoming)
	if len(first) != 2 {
		t.Fatalf("first pass: expected 2 new rows, got %d", len(first))
	}

	second := r.Reconcile(append(existing, first...), incoming)
	if len(second) != 0 {
		t.Errorf("second pass: expected 0 new rows, got %d", len(second))
	}
}

func TestReconcilePreservesOrder(t *testing.T) {
	r := NewReconciler(newTestLogger())

	incoming := batch(
		row("2024-01-03", "TRD", "Gamma", "3 Third Ave"),
		row("2024-01-01", "YIMBY", "Alpha", "1 First Ave"),
		row("2024-01-02", "TRD", "Beta", "2 Second Ave"),
	)

	fresh := r.Reconcile(nil, incoming)
	if len(fresh) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(fresh))
	}
	want := []string{"Gamma", "Alpha", "Beta"}
	for i, title := range want {
		if fresh[i][2] != title {
			t.Errorf("row %d: got %q, want %q", i, fresh[i][2], title)
		}
	}
}

func TestReconcileKeyIsCaseInsensitiveOnTitleAndAddress(t *testing.T) {
	r := NewReconciler(newTestLogger())

	existing := [][]string{
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St"),
	}
	incoming := batch(
		row("2024-01-01", "YIMBY", "NEW TOWER", "123 main st"),
	)

	if fresh := r.Reconcile(existing, incoming); len(fresh) != 0 {
		t.Errorf("case variants of title/address should be duplicates, got %d rows", len(fresh))
	}
}

func TestReconcileKeyIsExactOnDateAndSource(t *testing.T) {
	r := NewReconciler(newTestLogger())

	existing := [][]string{
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St"),
	}
	incoming := batch(
		row("2024-01-02", "YIMBY", "New Tower", "123 Main St"),
		row("2024-01-01", "TRD", "New Tower", "123 Main St"),
	)

	if fresh := r.Reconcile(existing, incoming); len(fresh) != 2 {
		t.Errorf("different date or source should not be duplicates, got %d rows", len(fresh))
	}
}

func TestReconcileSuppressesDuplicatesWithinBatch(t *testing.T) {
	r := NewReconciler(newTestLogger())

	incoming := batch(
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St"),
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St"),
	)

	fresh := r.Reconcile(nil, incoming)
	if len(fresh) != 1 {
		t.Errorf("back-to-back identical rows: expected 1 emitted, got %d", len(fresh))
	}
}

func TestReconcileSkipsRowsWithoutDate(t *testing.T) {
	r := NewReconciler(newTestLogger())

	// Blank existing rows are padding, not data: they must not poison the
	// seen-set or block incoming rows.
	existing := [][]string{
		{"", "", "", "", "", "", ""},
	}
	incoming := batch(
		row("", "YIMBY", "No Date", "1 First Ave"),
		row("2024-01-01", "YIMBY", "Has Date", "2 Second Ave"),
	)

	fresh := r.Reconcile(existing, incoming)
	if len(fresh) != 1 {
		t.Fatalf("expected 1 row, got %d", len(fresh))
	}
	if fresh[0][2] != "Has Date" {
		t.Errorf("wrong row emitted: %v", fresh[0])
	}
}

func TestAlignRealignsShuffledColumns(t *testing.T) {
	ds := models.Dataset{
		Header: []string{" Address ", "DATE", "Title", "SOURCE"},
		Rows: [][]string{
			{"123 Main St", "2024-01-01", "New Tower", "YIMBY"},
		},
	}

	aligned := Align(ds)
	want := [][]string{
		{"2024-01-01", "YIMBY", "New Tower", "123 Main St", "", "", ""},
	}
	if !reflect.DeepEqual(aligned, want) {
		t.Errorf("Align() = %v, want %v", aligned, want)
	}
}

func TestAlignIgnoresExtraColumns(t *testing.T) {
	ds := models.Dataset{
		Header: []string{"date", "source", "title", "address", "borough", "developers", "url", "comments"},
		Rows: [][]string{
			{"2024-01-01", "YIMBY", "New Tower", "123 Main St", "Manhattan", "Acme Dev", "http://x", "ignore me"},
		},
	}

	aligned := Align(ds)
	if len(aligned) != 1 {
		t.Fatalf("expected 1 row, got %d", len(aligned))
	}
	if len(aligned[0]) != len(models.Columns) {
		t.Errorf("aligned row width: got %d, want %d", len(aligned[0]), len(models.Columns))
	}
	if aligned[0][6] != "http://x" {
		t.Errorf("url: got %q, want %q", aligned[0][6], "http://x")
	}
}

func TestRunWritesHeaderOnEmptyTable(t *testing.T) {
	r := NewReconciler(newTestLogger())
	store := &fakeStore{}

	appended, err := r.Run(store, batch(row("2024-01-01", "YIMBY", "New Tower", "123 Main St")))
	if err != nil {
		t.Fatal(err)
	}
	if len(appended) != 1 {
		t.Fatalf("expected 1 appended row, got %d", len(appended))
	}
	if store.headerWrites != 1 {
		t.Errorf("header writes: got %d, want 1", store.headerWrites)
	}
	if !reflect.DeepEqual(store.table[0], models.Columns) {
		t.Errorf("table header: got %v, want %v", store.table[0], models.Columns)
	}
	if len(store.table) != 2 {
		t.Errorf("table rows: got %d, want 2 (header + 1 row)", len(store.table))
	}
}

func TestRunResetsTableOnHeaderMismatch(t *testing.T) {
	r := NewReconciler(newTestLogger())
	store := &fakeStore{table: [][]string{
		{"Date", "Source", "Title", "Address", "Borough", "Developers", "URL"},
		row("2024-01-01", "YIMBY", "Old Row", "1 First Ave"),
	}}

	appended, err := r.Run(store, batch(row("2024-01-01", "YIMBY", "Old Row", "1 First Ave")))
	if err != nil {
		t.Fatal(err)
	}
	if !store.cleared {
		t.Error("store should have been cleared on header mismatch")
	}
	// Historical rows under the mismatched schema are discarded, so the
	// incoming row counts as new again.
	if len(appended) != 1 {
		t.Errorf("expected 1 appended row after reset, got %d", len(appended))
	}
}

func TestRunLeavesMatchingTableAlone(t *testing.T) {
	r := NewReconciler(newTestLogger())
	store := &fakeStore{table: [][]string{
		models.Columns,
		row("2024-01-01", "YIMBY", "New Tower", "123 Main St"),
	}}

	appended, err := r.Run(store, batch(row("2024-01-01", "YIMBY", "New Tower", "123 Main St")))
	if err != nil {
		t.Fatal(err)
	}
	if store.cleared || store.headerWrites != 0 {
		t.Error("matching table must not be reset")
	}
	if len(appended) != 0 {
		t.Errorf("expected 0 appended rows, got %d", len(appended))
	}
	if store.appendCalls != 0 {
		t.Errorf("AppendRows should not be called with nothing new, got %d calls", store.appendCalls)
	}
}

func TestRunAppendsAfterExistingRows(t *testing.T) {
	r := NewReconciler(newTestLogger())
	existing := row("2024-01-01", "YIMBY", "New Tower", "123 Main St", "Manhattan", "Acme Dev", "http://x")
	store := &fakeStore{table: [][]string{models.Columns, existing}}

	incoming := batch(
		row("2024-01-01", "YIMBY", "new tower", "123 MAIN ST"),
		row("2024-01-02", "TRD", "Other Project", "456 Elm St"),
	)

	_, err := r.Run(store, incoming)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.table) != 3 {
		t.Fatalf("table rows: got %d, want 3 (header + 2 data rows)", len(store.table))
	}
	if !reflect.DeepEqual(store.table[1], existing) {
		t.Errorf("existing row must not be rewritten: %v", store.table[1])
	}
	if store.table[2][2] != "Other Project" {
		t.Errorf("appended row: got %v", store.table[2])
	}
}
