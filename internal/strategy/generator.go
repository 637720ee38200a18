// Package strategy expands one complete filter set into an ordered list of
// directory queries. The first strategy is the user's criteria verbatim;
// later strategies progressively trade precision for recall so a strict
// profile still yields results.
package strategy

import (
	"fmt"

	"subsidy-concierge/internal/models"
)

// Strategy names carry a fixed prefix the relevance scorer keys bonuses on.
const (
	NameBase    = "base"
	NameGeneric = "generic"

	prefixKeyword  = "keyword-"
	prefixArea     = "area-broadened"
	prefixEmployee = "employee-broadened-"
	prefixIndustry = "industry-broadened-"
)

// Strategy is one named directory query.
type Strategy struct {
	Name   string
	Params models.SearchParams
}

// keywordVariants are purpose-specific terms substituted for the user's own
// phrasing, which is often too specific to match program titles.
var keywordVariants = map[string][]string{
	"設備整備・IT導入をしたい":   {"設備", "IT", "DX", "デジタル", "機械"},
	"新たな事業を行いたい":      {"創業", "事業", "起業", "新規"},
	"研究開発・実証事業を行いたい": {"研究", "開発", "R&D", "技術"},
	"販路拡大・海外展開をしたい":  {"販路", "市場", "海外", "輸出"},
}

// broadenedBands widens an employee band one or two steps up. 100名以下 and
// 300名以下 already cover most programs and are not broadened.
var broadenedBands = map[string][]string{
	"5名以下":  {"20名以下", "50名以下"},
	"20名以下": {"50名以下", "100名以下"},
	"50名以下": {"100名以下", "300名以下"},
}

// adjacentIndustries maps an industry to categories whose programs often
// accept applicants from it.
var adjacentIndustries = map[string][]string{
	"製造業":     {"建設業", "卸売業，小売業"},
	"情報通信業":   {"サービス業（他に分類されないもの）", "卸売業，小売業"},
	"卸売業，小売業": {"製造業", "サービス業（他に分類されないもの）"},
}

// Generate builds the ordered strategy list for one base query. Order
// matters downstream: earlier strategies claim the cross-strategy dedup slot
// and receive larger score bonuses.
func Generate(base models.SearchParams) []Strategy {
	strategies := []Strategy{{Name: NameBase, Params: base}}

	if base.UsePurpose != "" {
		variants := keywordVariants[base.UsePurpose]
		if len(variants) == 0 {
			variants = []string{"補助金"}
		}
		for _, kw := range variants {
			p := base
			p.Keyword = kw
			strategies = append(strategies, Strategy{
				Name:   prefixKeyword + kw,
				Params: p,
			})
		}
	}

	if base.TargetArea != "" {
		p := base
		p.TargetArea = ""
		strategies = append(strategies, Strategy{Name: prefixArea, Params: p})
	}

	if base.EmployeeBand != "" {
		for _, band := range broadenedBands[base.EmployeeBand] {
			p := base
			p.EmployeeBand = band
			strategies = append(strategies, Strategy{
				Name:   fmt.Sprintf("%s%s", prefixEmployee, band),
				Params: p,
			})
		}
	}

	if base.Industry != "" {
		for _, ind := range adjacentIndustries[base.Industry] {
			p := base
			p.Industry = ind
			strategies = append(strategies, Strategy{
				Name:   fmt.Sprintf("%s%s", prefixIndustry, ind),
				Params: p,
			})
		}
	}

	strategies = append(strategies, Strategy{
		Name: NameGeneric,
		Params: models.SearchParams{
			Keyword:    "補助金",
			UsePurpose: base.UsePurpose,
		},
	})

	return strategies
}
