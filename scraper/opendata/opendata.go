package opendata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"nycdev-scraper/config"
	"nycdev-scraper/models"
	"nycdev-scraper/utils"
)

// dataset describes one NYC Open Data (SODA) endpoint and the preference
// order of the fields read from it. Column names vary between the BIS and
// DOB NOW datasets, so each carries its own candidates.
type dataset struct {
	name          string
	endpoint      string
	dateFields    []string
	ownerFields   []string
	addressFields []string
	boroughFields []string
	titleFields   []string
}

var datasets = []dataset{
	{
		name:       "DOB Permit Issuance",
		endpoint:   "https://data.cityofnewyork.us/resource/ipu4-2q9a.json",
		dateFields: []string{":updated_at", "issuance_date", "issue_date", "job_start_date", "filing_date"},
		ownerFields: []string{
			"owner_business_name", "owner_business", "owner_name", "owners_business_name",
			"permittee_business_name", "permittee", "applicant_business_name", "business_name",
		},
		addressFields: []string{"house__", "house", "street_name", "streetname", "job_location_street_name", "address", "location"},
		boroughFields: []string{"borough", "borocode", "bbl_borough", "city"},
		titleFields:   []string{"job_description", "work_description", "job_type"},
	},
	{
		name:       "DOB NOW: Build – Job Application Filings",
		endpoint:   "https://data.cityofnewyork.us/resource/w9ak-ipjd.json",
		dateFields: []string{":updated_at", "filing_date", "latest_action_date", "pre_filing_date"},
		ownerFields: []string{
			"owner_business_name", "owner_name", "owner_s_business_name", "applicant_business_name",
			"owner_s_first_name", "owner_s_last_name", "business_name",
		},
		addressFields: []string{"house_number", "street_name", "bin", "bbl", "borough_block_lot", "job_location_street_name", "address"},
		boroughFields: []string{"borough", "borough_name", "city"},
		titleFields:   []string{"job_type", "proposed_occupancy_description", "work_type", "job_description"},
	},
	{
		name:       "DOB NOW: Build – Approved Permits",
		endpoint:   "https://data.cityofnewyork.us/resource/rbx6-tga4.json",
		dateFields: []string{":updated_at", "approval_date", "filing_date", "latest_action_date"},
		ownerFields: []string{
			"owner_business_name", "owner_name", "owner_s_business_name", "permittee_business_name",
			"applicant_business_name", "business_name",
		},
		addressFields: []string{"house_number", "street_name", "address", "bin", "bbl"},
		boroughFields: []string{"borough", "borough_name", "city"},
		titleFields:   []string{"job_type", "work_type", "job_description"},
	},
}

// Scraper queries the DOB datasets on the NYC Open Data SODA API.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	client *resty.Client
}

// New creates a ready-to-use Open Data Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTPTimeoutSec) * time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &Scraper{cfg: cfg, logger: logger, client: client}
}

// Fetch queries every dataset and returns records updated within the
// lookback window. A dataset that fails is logged and skipped; an error is
// returned only when every dataset fails.
func (s *Scraper) Fetch() ([]*models.Record, error) {
	today := time.Now().In(utils.NewYork).Format("2006-01-02")
	cutoff := time.Now().UTC().Add(-time.Duration(s.cfg.LookbackHours) * time.Hour)

	var records []*models.Record
	failures := 0
	for _, ds := range datasets {
		rows, err := s.query(ds)
		if err != nil {
			s.logger.Warn("[opendata] %s fetch failed: %v", ds.name, err)
			failures++
			continue
		}

		kept := 0
		for _, raw := range rows {
			if !withinLookback(raw, cutoff) {
				continue
			}
			if s.cfg.DOBOnlyGeneral && !isGeneralConstruction(raw, ds) {
				continue
			}

			owner := pickFirst(raw, ds.ownerFields)
			title := pickFirst(raw, ds.titleFields)
			if title == "" {
				title = "DOB record"
			}

			var developers []string
			if owner != "" {
				developers = []string{owner}
			}

			records = append(records, &models.Record{
				Date:       today,
				Source:     ds.name,
				Title:      title,
				Address:    pickFirst(raw, ds.addressFields),
				Borough:    pickFirst(raw, ds.boroughFields),
				Developers: developers,
				URL:        ds.endpoint,
			})
			kept++
		}
		s.logger.Info("[opendata] %s: kept %d of %d rows", ds.name, kept, len(rows))
	}

	if failures == len(datasets) {
		return nil, fmt.Errorf("opendata: all %d datasets failed", len(datasets))
	}
	return records, nil
}

func (s *Scraper) query(ds dataset) ([]map[string]any, error) {
	req := s.client.R().SetQueryParams(map[string]string{
		"$order": ":updated_at DESC",
		"$limit": "1000",
	})
	if s.cfg.SodaAppToken != "" {
		req.SetHeader("X-App-Token", s.cfg.SodaAppToken)
	}

	res, err := req.Get(ds.endpoint)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("status %s", res.Status())
	}

	var rows []map[string]any
	if err := json.Unmarshal(res.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return rows, nil
}

// withinLookback keeps rows whose update timestamp is missing or
// unparseable; only rows with a timestamp older than the cutoff are
// filtered out.
func withinLookback(rec map[string]any, cutoff time.Time) bool {
	var updated string
	for _, k := range []string{":updated_at", "updated_at", "approval_date", "filing_date"} {
		if v, ok := rec[k].(string); ok && v != "" {
			updated = v
			break
		}
	}
	if updated == "" {
		return true
	}

	t, ok := utils.ParseTimestamp(updated)
	if !ok {
		return true
	}
	return !t.UTC().Before(cutoff)
}

// pickFirst returns the first non-empty candidate field, flattening the
// SODA location columns that carry a human_address JSON blob.
func pickFirst(rec map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
			return t
		case map[string]any:
			if ha, ok := t["human_address"].(string); ok {
				var addr struct {
					Address string `json:"address"`
					City    string `json:"city"`
				}
				if err := json.Unmarshal([]byte(ha), &addr); err == nil {
					return strings.TrimSpace(addr.Address + " " + addr.City)
				}
			}
			return fmt.Sprint(t)
		case []any:
			parts := make([]string, 0, len(t))
			for _, e := range t {
				parts = append(parts, fmt.Sprint(e))
			}
			return strings.Join(parts, ", ")
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

var jobCodes = regexp.MustCompile(`\b(nb|dm|a1|a2|a3)\b`)

// blockedWorkTypes are trade permits that never describe general
// construction work.
var blockedWorkTypes = []string{
	"plumbing", "sprinkler", "standpipe", "fire suppression", "fire-suppression",
	"mechanical", "hvac", "boiler", "fuel burning", "fuel storage",
	"sign", "curb cut", "sidewalk shed", "scaffold", "antenna",
	"sprinklers", "fire alarm",
}

var allowedWorkTypes = []string{
	"general construction", "ot-general construction", "ot general construction",
	"new building", "foundation", "structural", "demolition",
}

// isGeneralConstruction keeps new-building, alteration, demolition,
// foundation and structural records while dropping trade permits.
func isGeneralConstruction(rec map[string]any, ds dataset) bool {
	candidates := map[string]struct{}{
		"work_type":             {},
		"job_type":              {},
		"permit_type":           {},
		"permit_subtype":        {},
		"work_type_description": {},
		"job_description":       {},
	}
	for _, k := range ds.titleFields {
		candidates[k] = struct{}{}
	}

	var parts []string
	for k := range candidates {
		if v, ok := rec[k].(string); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	t := strings.ToLower(strings.TrimSpace(strings.Join(parts, " ")))
	if t == "" {
		return false
	}

	for _, b := range blockedWorkTypes {
		if strings.Contains(t, b) {
			return false
		}
	}
	for _, a := range allowedWorkTypes {
		if strings.Contains(t, a) {
			return true
		}
	}
	return jobCodes.MatchString(t)
}
