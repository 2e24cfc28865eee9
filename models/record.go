package models

import "strings"

// Columns is the canonical column order of the history table. Every store
// backend and every incoming dataset is aligned to this schema.
var Columns = []string{"date", "source", "title", "address", "borough", "developers", "url"}

// Record is one normalized development item produced by a source fetcher.
// Date is a calendar date in YYYY-MM-DD form, rendered in New York time.
type Record struct {
	Date       string
	Source     string
	Title      string
	Address    string
	Borough    string
	Developers []string
	URL        string
}

// Row renders the record in canonical column order. Developer names are
// joined with "; ", matching how they appear in the stored table.
func (r *Record) Row() []string {
	return []string{
		r.Date,
		r.Source,
		r.Title,
		r.Address,
		r.Borough,
		strings.Join(r.Developers, "; "),
		r.URL,
	}
}

// Dataset is a rectangular batch of string rows carrying its own header.
// Column names are matched case-insensitively against Columns during
// reconciliation, so the header may use any order, casing or padding.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// Key identifies a row for deduplication. Title and address compare
// case-insensitively; date and source compare exact.
type Key struct {
	Date    string
	Source  string
	Title   string
	Address string
}

// KeyFor derives the uniqueness key from a row in canonical column order.
// Short rows are padded with empty fields.
func KeyFor(row []string) Key {
	field := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Key{
		Date:    field(0),
		Source:  field(1),
		Title:   strings.ToLower(field(2)),
		Address: strings.ToLower(field(3)),
	}
}

// RunReport summarizes one scrape-and-append run.
type RunReport struct {
	Fetched    int
	Cleaned    int
	Appended   int
	Duplicates int
	BySource   map[string]int
	ByBorough  map[string]int
}
