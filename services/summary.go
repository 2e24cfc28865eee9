package services

import (
	"fmt"
	"sort"
	"strings"

	"nycdev-scraper/models"
	"nycdev-scraper/utils"
)

// SummaryService builds and prints the end-of-run report.
type SummaryService struct {
	logger *utils.Logger
}

// NewSummaryService creates a SummaryService with the given logger.
func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate computes run statistics from the raw fetch count, the cleaned
// batch size and the rows that were actually appended.
func (s *SummaryService) Generate(fetched, cleaned int, appended [][]string) *models.RunReport {
	report := &models.RunReport{
		Fetched:    fetched,
		Cleaned:    cleaned,
		Appended:   len(appended),
		Duplicates: cleaned - len(appended),
		BySource:   make(map[string]int),
		ByBorough:  make(map[string]int),
	}

	for _, row := range appended {
		if len(row) > 1 && row[1] != "" {
			report.BySource[row[1]]++
		}
		if len(row) > 4 && row[4] != "" {
			report.ByBorough[row[4]]++
		}
	}

	return report
}

// Print renders the report to the terminal.
func (s *SummaryService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  NYC DEVELOPMENT SCRAPE SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Records fetched     : \033[1m%d\033[0m\n", r.Fetched)
	fmt.Printf("  After cleaning      : \033[1m%d\033[0m\n", r.Cleaned)
	fmt.Printf("  Appended to history : \033[1;32m%d\033[0m\n", r.Appended)
	fmt.Printf("  Already seen        : \033[1m%d\033[0m\n", r.Duplicates)
	fmt.Println()

	fmt.Printf("\033[1;33m  New Rows by Source\033[0m\n")
	fmt.Printf("  %s\n", thin)
	printCounts(r.BySource)
	fmt.Println()

	fmt.Printf("\033[1;33m  New Rows by Borough\033[0m\n")
	fmt.Printf("  %s\n", thin)
	printCounts(r.ByBorough)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(counts map[string]int) {
	if len(counts) == 0 {
		fmt.Printf("  None\n")
		return
	}

	type entry struct {
		name  string
		count int
	}
	var entries []entry
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	for _, e := range entries {
		bar := strings.Repeat("█", e.count)
		fmt.Printf("  %-32s %s (%d)\n", truncate(e.name, 30), bar, e.count)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
