// internal/models/filter.go
package models

// FilterSet holds the search criteria accumulated over a conversation.
// Fields start empty and are filled monotonically by the extractor: once a
// field is set it is never overwritten for the lifetime of the conversation.
type FilterSet struct {
	UsePurpose    string `json:"usePurpose,omitempty"`
	Industry      string `json:"industry,omitempty"`
	TargetArea    string `json:"targetArea,omitempty"`
	EmployeeBand  string `json:"employeeBand,omitempty"`
	SpecificNeeds string `json:"specificNeeds,omitempty"`
	BudgetHint    string `json:"budgetHint,omitempty"`
}

// Complete reports whether enough criteria exist to run a search.
// SpecificNeeds and BudgetHint are never required.
func (f FilterSet) Complete() bool {
	return f.UsePurpose != "" && f.Industry != "" && f.TargetArea != "" && f.EmployeeBand != ""
}

// SearchParams is one concrete query against the subsidy directory. Unset
// fields are sent as empty values, which the upstream treats as unfiltered.
type SearchParams struct {
	Keyword      string `json:"keyword"`
	UsePurpose   string `json:"use_purpose"`
	Industry     string `json:"industry"`
	TargetArea   string `json:"target_area_search"`
	EmployeeBand string `json:"target_number_of_employees"`
}

// Params converts the filter set into directory query parameters. The keyword
// falls back to a generic term because the upstream requires at least two
// characters.
func (f FilterSet) Params() SearchParams {
	keyword := f.SpecificNeeds
	if keyword == "" {
		keyword = "補助金"
	}
	return SearchParams{
		Keyword:      keyword,
		UsePurpose:   f.UsePurpose,
		Industry:     f.Industry,
		TargetArea:   f.TargetArea,
		EmployeeBand: f.EmployeeBand,
	}
}
