// internal/models/subsidy.go
package models

import "time"

// Subsidy is one program as returned by the jGrants directory. List responses
// carry a subset of the fields; a detail lookup fills in the rest.
type Subsidy struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"detail,omitempty"`
	MaxLimit      int64     `json:"subsidy_max_limit,omitempty"`
	UsePurpose    string    `json:"use_purpose,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	TargetArea    string    `json:"target_area_search,omitempty"`
	EmployeeBand  string    `json:"target_number_of_employees,omitempty"`
	AcceptStart   time.Time `json:"acceptance_start_datetime,omitempty"`
	AcceptEnd     time.Time `json:"acceptance_end_datetime,omitempty"`
	DetailPageURL string    `json:"front_subsidy_detail_page_url,omitempty"`
}

// Merge copies detail-only fields onto a list record without clobbering
// values the list response already provided.
func (s *Subsidy) Merge(detail *Subsidy) {
	if detail == nil {
		return
	}
	if detail.Description != "" {
		s.Description = detail.Description
	}
	if detail.DetailPageURL != "" {
		s.DetailPageURL = detail.DetailPageURL
	}
	if detail.MaxLimit > 0 {
		s.MaxLimit = detail.MaxLimit
	}
	if detail.UsePurpose != "" {
		s.UsePurpose = detail.UsePurpose
	}
	if detail.Industry != "" {
		s.Industry = detail.Industry
	}
	if detail.TargetArea != "" {
		s.TargetArea = detail.TargetArea
	}
	if detail.EmployeeBand != "" {
		s.EmployeeBand = detail.EmployeeBand
	}
	if !detail.AcceptStart.IsZero() {
		s.AcceptStart = detail.AcceptStart
	}
	if !detail.AcceptEnd.IsZero() {
		s.AcceptEnd = detail.AcceptEnd
	}
}

// RankedSubsidy is a subsidy enriched by the search orchestrator: the
// strategies and keywords that found it plus its accumulated relevance score.
type RankedSubsidy struct {
	Subsidy
	DetailURL       string   `json:"detailUrl"`
	MatchedKeywords []string `json:"matchedKeywords"`
	SearchStrategy  string   `json:"searchStrategy"`
	RelevanceScore  int      `json:"relevanceScore"`
}

// Recommendation is one oracle-selected result with its justification.
type Recommendation struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
	Priority int    `json:"priority"`
}
