package services

import (
	"testing"

	"nycdev-scraper/models"
)

func TestCleanerDropsRecordsWithoutDate(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.Record{
		{Date: "", Source: "YIMBY", Title: "No Date", Developers: []string{"Acme Dev"}},
		{Date: "2024-01-01", Source: "YIMBY", Title: "Has Date", Developers: []string{"Acme Dev"}},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 record, got %d", len(cleaned))
	}
	if cleaned[0].Title != "Has Date" {
		t.Errorf("wrong record kept: %q", cleaned[0].Title)
	}
}

func TestCleanerDropsRecordsWithoutDevelopers(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.Record{
		{Date: "2024-01-01", Source: "TRD", Title: "No Devs"},
		{Date: "2024-01-01", Source: "TRD", Title: "Blank Dev", Developers: []string{"  "}},
		{Date: "2024-01-01", Source: "TRD", Title: "Has Dev", Developers: []string{"Acme Dev"}},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 record, got %d", len(cleaned))
	}
	if cleaned[0].Title != "Has Dev" {
		t.Errorf("wrong record kept: %q", cleaned[0].Title)
	}
}

func TestCleanerDeduplicatesStoriesWithinRun(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.Record{
		{Date: "2024-01-01", Source: "TRD", Title: "New Tower", Address: "123 Main St", Developers: []string{"Acme Dev"}},
		{Date: "2024-01-01", Source: "TRD", Title: "NEW TOWER", Address: "123 MAIN ST", Developers: []string{"Acme Dev"}},
		{Date: "2024-01-01", Source: "YIMBY", Title: "New Tower", Address: "123 Main St", Developers: []string{"Acme Dev"}},
	}

	cleaned := c.Clean(raw)
	// Same story from the same source collapses; the other source survives.
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 records, got %d", len(cleaned))
	}
}

func TestCleanerNormalisesWhitespace(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.Record{
		{
			Date:       " 2024-01-01 ",
			Source:     "YIMBY",
			Title:      "  New\t Tower  ",
			Address:    "123  Main   St",
			Borough:    " Manhattan ",
			Developers: []string{" Acme  Dev "},
		},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 record, got %d", len(cleaned))
	}
	got := cleaned[0]
	if got.Date != "2024-01-01" || got.Title != "New Tower" || got.Address != "123 Main St" ||
		got.Borough != "Manhattan" || got.Developers[0] != "Acme Dev" {
		t.Errorf("whitespace not normalised: %+v", got)
	}
}
