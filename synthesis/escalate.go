package synthesis

import "strings"

var comparisonMarkers = []string{"compare", "versus", " vs ", "difference between", "pros and cons"}

// ShouldEscalate decides whether synthesis needs the stronger generation
// tier. Long multi-entity or comparative questions routinely exceed what
// the fast model answers well.
func ShouldEscalate(query string, entities map[string][]string) bool {
	lower := strings.ToLower(query)
	for _, marker := range comparisonMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	if len(strings.Fields(query)) > 20 {
		return true
	}
	var total int
	for _, vals := range entities {
		total += len(vals)
	}
	return total >= 3
}
