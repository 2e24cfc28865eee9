package services

import (
	"regexp"
	"strings"
)

const orgSuffix = `(?:LLC|LLP|LP|Inc\.|Incorporated|Ltd\.|Ltd|Corp\.|Corporation|Company|Group|Partners|Properties|Holdings|Realty|Development|Builders|Construction|Management)`

var (
	// devPatterns match the phrasings news articles use to attribute a
	// project to an owner, developer, applicant or sponsor.
	devPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:is|are) listed as the (?:owner|developer|applicant|sponsor)[^,.]*?\b([A-Z][\w&'.\- ]+(?:\s+` + orgSuffix + `)?)`),
		regexp.MustCompile(`(?i)(?:the\s+)?developer(?:s)?\s+(?:is|are)\s+\b([A-Z][\w&'.\- ]+(?:\s+` + orgSuffix + `)?)`),
		regexp.MustCompile(`(?i)developed\s+by\s+\b([A-Z][\w&'.\- ]+(?:\s+` + orgSuffix + `)?)`),
		regexp.MustCompile(`(?i)owner\s+(?:is|are)\s+\b([A-Z][\w&'.\- ]+(?:\s+` + orgSuffix + `)?)`),
	}

	// orgFallback catches capitalized names ending in a company suffix when
	// none of the attribution phrasings matched.
	orgFallback = regexp.MustCompile(`\b([A-Z][\w&'.\- ]+\s` + orgSuffix + `)`)

	streetAddress = regexp.MustCompile(`(\d{1,5} [A-Za-z0-9'\- ]+ (?:Street|St\.|Avenue|Ave\.|Boulevard|Blvd\.|Road|Rd\.|Place|Pl\.|Court|Ct\.|Drive|Dr\.|Lane|Ln\.)(?:,?\s+(?:Brooklyn|Manhattan|Queens|Bronx|Staten Island))?)`)
)

const maxDevelopers = 3

// boroughs is checked in order; the first keyword found in the text wins.
var boroughs = []struct {
	keyword string
	name    string
}{
	{"manhattan", "Manhattan"},
	{"brooklyn", "Brooklyn"},
	{"queens", "Queens"},
	{"bronx", "Bronx"},
	{"staten island", "Staten Island"},
}

// ExtractDevelopers pulls up to three organization names out of article
// text. Attribution phrasings are tried first; the company-suffix fallback
// only runs when they all come up empty.
func ExtractDevelopers(text string) []string {
	var names []string
	for _, pat := range devPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			if name := cleanName(m[1]); name != "" && !contains(names, name) {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		for _, m := range orgFallback.FindAllStringSubmatch(text, -1) {
			if name := cleanName(m[1]); name != "" && !contains(names, name) {
				names = append(names, name)
			}
		}
	}
	if len(names) > maxDevelopers {
		names = names[:maxDevelopers]
	}
	return names
}

// GuessBorough returns the first borough mentioned in the text, or "".
func GuessBorough(text string) string {
	t := strings.ToLower(text)
	for _, b := range boroughs {
		if strings.Contains(t, b.keyword) {
			return b.name
		}
	}
	return ""
}

// ExtractStreetAddress returns the first street-address-shaped substring,
// or "" when none is found.
func ExtractStreetAddress(text string) string {
	return streetAddress.FindString(text)
}

func cleanName(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ",.;:")
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
