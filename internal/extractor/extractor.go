// Package extractor derives structured search criteria from free-form
// Japanese conversation turns. Extraction is monotonic: a field, once set
// on the filter set, is never overwritten by later turns.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"subsidy-concierge/internal/models"
)

var (
	headcountPattern = regexp.MustCompile(`(\d+)名?人?`)
	budgetPattern    = regexp.MustCompile(`(\d+)(万円?|千万円?|億円?)`)
)

// Extract folds one user utterance into the accumulated filter set and
// returns the updated copy. The very first utterance is kept verbatim as
// the specific-needs keyword for later searches.
func Extract(filters models.FilterSet, input string) models.FilterSet {
	lower := strings.ToLower(input)

	if filters.SpecificNeeds == "" {
		filters.SpecificNeeds = input
	}

	if filters.UsePurpose == "" {
		filters.UsePurpose = matchTaxonomy(purposeTaxonomy, lower)
	}

	if filters.Industry == "" {
		filters.Industry = matchTaxonomy(industryTaxonomy, lower)
	}

	if filters.EmployeeBand == "" {
		filters.EmployeeBand = extractEmployeeBand(input)
	}

	if filters.TargetArea == "" {
		filters.TargetArea = extractArea(input)
	}

	if filters.BudgetHint == "" {
		if m := budgetPattern.FindString(input); m != "" {
			filters.BudgetHint = m
		}
	}

	return filters
}

func matchTaxonomy(entries []taxonomyEntry, lowerInput string) string {
	for _, entry := range entries {
		for _, kw := range entry.Keywords {
			if strings.Contains(lowerInput, kw) {
				return entry.Value
			}
		}
	}
	return ""
}

func extractEmployeeBand(input string) string {
	if band := matchTaxonomy(employeeTaxonomy, input); band != "" {
		return band
	}

	// Fall back to any bare headcount, e.g. "従業員10名".
	if m := headcountPattern.FindStringSubmatch(input); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return employeeBandFor(n)
		}
	}

	return ""
}

func extractArea(input string) string {
	for _, p := range prefectureTable {
		if strings.Contains(input, p.Alias) {
			return p.Name
		}
	}
	for _, r := range regionTable {
		if strings.Contains(input, r.Region) {
			return r.Pref
		}
	}
	return ""
}
