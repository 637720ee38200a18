// Package scoring ranks directory results against the user's criteria.
// Scores are additive integers; absolute values are meaningless, only the
// ordering matters. All weights live here so ranking stays tunable in one
// place.
package scoring

import (
	"strings"
	"time"

	"subsidy-concierge/internal/models"
)

// Field-match weights, strongest signal first.
const (
	weightTitleKeyword = 30
	weightPurpose      = 25
	weightIndustry     = 20
	weightEmployee     = 15
	weightArea         = 10

	weightWindowOpen    = 5 // deadline comfortably ahead
	weightWindowClosing = 5 // deadline within a month, subtracted

	weightPhraseOverlap = 8
)

// CrossStrategyBonus is added each time a later strategy rediscovers a
// subsidy an earlier strategy already found.
const CrossStrategyBonus = 5

// strategyBonuses reward precision: results from stricter strategies
// outrank the same score from a relaxed one. First matching prefix wins.
var strategyBonuses = []struct {
	Prefix string
	Bonus  int
}{
	{"base", 20},
	{"keyword-", 15},
	{"industry-broadened", 8},
	{"area-broadened", 5},
	{"employee-broadened", 5},
	{"generic", 2},
}

// keyPhrases are terms whose co-occurrence in the title and the user's own
// wording signals a strong topical match. ASCII entries are lowercase;
// comparison happens on lowercased text.
var keyPhrases = []string{"効率化", "省エネ", "生産性", "dx", "デジタル", "人材", "設備", "技術"}

// Score rates one subsidy for one executed strategy. now anchors the
// acceptance-window check so ranking is reproducible in tests.
func Score(s models.Subsidy, needs string, params models.SearchParams, strategyName string, now time.Time) int {
	score := baseScore(s, params, now)

	for _, sb := range strategyBonuses {
		if strings.HasPrefix(strategyName, sb.Prefix) {
			score += sb.Bonus
			break
		}
	}

	if s.MaxLimit >= 1_000_000 {
		score += 10
	}
	if s.MaxLimit >= 5_000_000 {
		score += 5
	}
	if s.MaxLimit >= 10_000_000 {
		score += 5
	}

	if s.Title != "" && needs != "" {
		title := strings.ToLower(s.Title)
		needsLower := strings.ToLower(needs)
		for _, phrase := range keyPhrases {
			if strings.Contains(title, phrase) && strings.Contains(needsLower, phrase) {
				score += weightPhraseOverlap
			}
		}
	}

	return score
}

// MatchedKeywords reports which key phrases the title and the user's needs
// share, for display alongside the score.
func MatchedKeywords(s models.Subsidy, needs string) []string {
	if s.Title == "" || needs == "" {
		return nil
	}
	title := strings.ToLower(s.Title)
	needsLower := strings.ToLower(needs)

	var matched []string
	for _, phrase := range keyPhrases {
		if strings.Contains(title, phrase) && strings.Contains(needsLower, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

func baseScore(s models.Subsidy, params models.SearchParams, now time.Time) int {
	score := 0

	if params.Keyword != "" && s.Title != "" {
		if strings.Contains(strings.ToLower(s.Title), strings.ToLower(params.Keyword)) {
			score += weightTitleKeyword
		}
	}

	if params.UsePurpose != "" && s.UsePurpose != "" {
		if strings.Contains(s.UsePurpose, params.UsePurpose) {
			score += weightPurpose
		}
	}

	if params.Industry != "" && s.Industry != "" {
		if strings.Contains(s.Industry, params.Industry) {
			score += weightIndustry
		}
	}

	if params.EmployeeBand != "" && s.EmployeeBand != "" {
		if params.EmployeeBand == s.EmployeeBand {
			score += weightEmployee
		}
	}

	if params.TargetArea != "" && s.TargetArea != "" {
		if strings.Contains(s.TargetArea, params.TargetArea) || s.TargetArea == "全国" {
			score += weightArea
		}
	}

	if !s.AcceptEnd.IsZero() {
		days := int(s.AcceptEnd.Sub(now).Hours() / 24)
		if days > 30 && days < 180 {
			score += weightWindowOpen
		} else if days <= 30 {
			score -= weightWindowClosing
		}
	}

	return score
}
