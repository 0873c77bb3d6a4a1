package scheduler

import "strings"

// ContainsExcluded returns true if any exclusion term appears (case-insensitive)
// in the vacancy name or employer name. Empty terms are ignored.
func ContainsExcluded(vacancyName, employerName string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	combined := strings.ToLower(vacancyName + " " + employerName)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
