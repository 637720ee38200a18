package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"subsidy-concierge/internal/common/database"
	"subsidy-concierge/internal/models"
)

// Archive stores completed searches in Elasticsearch for offline analysis
// of what users ask for and what the directory returns. Archiving is
// best-effort; the orchestrator only logs failures.
type Archive struct {
	es    *database.ElasticsearchClient
	index string
}

type archiveDocument struct {
	Timestamp   time.Time           `json:"timestamp"`
	Needs       string              `json:"needs"`
	Params      models.SearchParams `json:"params"`
	ResultCount int                 `json:"resultCount"`
	TopResults  []archiveResult     `json:"topResults"`
}

type archiveResult struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	SearchStrategy string `json:"searchStrategy"`
	RelevanceScore int    `json:"relevanceScore"`
}

func NewArchive(es *database.ElasticsearchClient, index string) *Archive {
	return &Archive{es: es, index: index}
}

// Record indexes one search outcome. Only the top five results are kept;
// the archive exists for query analysis, not as a result cache.
func (a *Archive) Record(ctx context.Context, needs string, params models.SearchParams, results []models.RankedSubsidy) error {
	top := results
	if len(top) > 5 {
		top = top[:5]
	}

	doc := archiveDocument{
		Timestamp:   time.Now().UTC(),
		Needs:       needs,
		Params:      params,
		ResultCount: len(results),
	}
	for _, r := range top {
		doc.TopResults = append(doc.TopResults, archiveResult{
			ID:             r.ID,
			Title:          r.Title,
			SearchStrategy: r.SearchStrategy,
			RelevanceScore: r.RelevanceScore,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal archive document: %w", err)
	}

	return a.es.Index(ctx, a.index, data)
}
