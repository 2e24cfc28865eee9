package services

import (
	"strings"
	"unicode"

	"nycdev-scraper/models"
	"nycdev-scraper/utils"
)

// Cleaner normalizes fetched records and drops the ones that carry no
// developer information or cannot be keyed. It also collapses repeats of
// the same story within a single run, so one article syndicated across
// list pages only enters the batch once.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

type batchKey struct {
	source  string
	title   string
	address string
}

// Clean processes raw records and returns the normalized batch.
func (c *Cleaner) Clean(raw []*models.Record) []*models.Record {
	seen := make(map[batchKey]struct{})
	result := make([]*models.Record, 0, len(raw))

	for _, r := range raw {
		rec := &models.Record{
			Date:    strings.TrimSpace(r.Date),
			Source:  strings.TrimSpace(r.Source),
			Title:   normaliseText(r.Title),
			Address: normaliseText(r.Address),
			Borough: normaliseText(r.Borough),
			URL:     strings.TrimSpace(r.URL),
		}
		for _, d := range r.Developers {
			if d = normaliseText(d); d != "" {
				rec.Developers = append(rec.Developers, d)
			}
		}

		if rec.Date == "" {
			c.logger.Warn("[cleaner] Dropping record with no date: %s", rec.Title)
			continue
		}
		if len(rec.Developers) == 0 {
			c.logger.Debug("[cleaner] No developers identified, skipping: %s", rec.Title)
			continue
		}

		key := batchKey{
			source:  rec.Source,
			title:   strings.ToLower(rec.Title),
			address: strings.ToLower(rec.Address),
		}
		if _, dup := seen[key]; dup {
			c.logger.Debug("[cleaner] Duplicate story skipped: %s", rec.Title)
			continue
		}
		seen[key] = struct{}{}

		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d records (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
