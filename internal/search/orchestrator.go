// Package search runs the multi-strategy subsidy search: it expands a
// filter set into strategies, queries the directory for each, enriches hits
// with detail lookups, and folds everything into one deduplicated ranking.
package search

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/common/errors"
	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/common/metrics"
	"subsidy-concierge/internal/common/observability"
	"subsidy-concierge/internal/models"
	"subsidy-concierge/internal/scoring"
	"subsidy-concierge/internal/strategy"
)

const fallbackDetailURL = "https://jgrants.go.jp/"

// Directory is the subsidy catalog the orchestrator queries.
type Directory interface {
	Search(ctx context.Context, p models.SearchParams) ([]models.Subsidy, error)
	Detail(ctx context.Context, id string) (*models.Subsidy, error)
}

// Orchestrator executes the strategy fan-out. The archive and obs fields
// are optional; a nil archive disables result archiving and a nil obs
// disables tracing.
type Orchestrator struct {
	directory Directory
	archive   *Archive
	obs       *observability.Observability
	log       logger.Logger
	cfg       config.SearchConfig
	now       func() time.Time
}

func NewOrchestrator(directory Directory, archive *Archive, obs *observability.Observability, log logger.Logger, cfg config.SearchConfig) *Orchestrator {
	return &Orchestrator{
		directory: directory,
		archive:   archive,
		obs:       obs,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run executes every strategy for the given criteria and returns the ranked,
// deduplicated top results. Individual strategy failures are logged and
// skipped; Run errors only when every strategy fails.
func (o *Orchestrator) Run(ctx context.Context, params models.SearchParams, needs string) ([]models.RankedSubsidy, error) {
	started := o.now()
	strategies := strategy.Generate(params)

	ranked := make(map[string]*models.RankedSubsidy)
	var order []string
	failed := 0

	for _, st := range strategies {
		spanCtx, span := o.startSpan(ctx, st.Name)
		hits, err := o.directory.Search(spanCtx, st.Params)
		if err != nil {
			failed++
			metrics.DirectorySearches.WithLabelValues(st.Name, "error").Inc()
			o.log.Warn("search strategy failed", map[string]interface{}{
				"strategy": st.Name,
				"error":    errors.NewDirectoryQueryError(st.Name, err).Error(),
			})
			span()
			continue
		}
		metrics.DirectorySearches.WithLabelValues(st.Name, "success").Inc()

		if len(hits) > o.cfg.DetailLimit {
			hits = hits[:o.cfg.DetailLimit]
		}
		o.enrichDetails(spanCtx, hits)

		for _, hit := range hits {
			score := scoring.Score(hit, needs, st.Params, st.Name, o.now())
			existing, seen := ranked[hit.ID]
			if !seen {
				detailURL := hit.DetailPageURL
				if detailURL == "" {
					detailURL = fallbackDetailURL
				}
				ranked[hit.ID] = &models.RankedSubsidy{
					Subsidy:         hit,
					DetailURL:       detailURL,
					MatchedKeywords: []string{st.Params.Keyword},
					SearchStrategy:  st.Name,
					RelevanceScore:  score,
				}
				order = append(order, hit.ID)
				continue
			}
			// Rediscovery by a later strategy keeps the best score and
			// earns a bonus on top.
			existing.MatchedKeywords = appendUnique(existing.MatchedKeywords, st.Params.Keyword)
			if score > existing.RelevanceScore {
				existing.RelevanceScore = score
			}
			existing.RelevanceScore += scoring.CrossStrategyBonus
		}

		span()
	}

	duration := o.now().Sub(started)
	metrics.SearchDuration.Observe(duration.Seconds())

	if failed == len(strategies) {
		o.recordSearch(ctx, duration, "error", 0)
		return nil, errors.NewSearchFailedError(len(strategies))
	}

	results := make([]models.RankedSubsidy, 0, len(order))
	for _, id := range order {
		results = append(results, *ranked[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > o.cfg.MaxResults {
		results = results[:o.cfg.MaxResults]
	}

	o.recordSearch(ctx, duration, "success", len(results))
	o.archiveResults(ctx, needs, params, results)

	return results, nil
}

// enrichDetails fetches detail records for the hits in parallel and merges
// them in place. A failed detail lookup leaves the list record as is.
func (o *Orchestrator) enrichDetails(ctx context.Context, hits []models.Subsidy) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.DetailConcurrency)

	for i := range hits {
		i := i
		g.Go(func() error {
			detail, err := o.directory.Detail(gctx, hits[i].ID)
			if err != nil {
				metrics.DetailFetches.WithLabelValues("error").Inc()
				o.log.Warn("detail fetch failed", map[string]interface{}{
					"subsidyId": hits[i].ID,
					"error":     errors.NewDetailFetchError(hits[i].ID, err).Error(),
				})
				return nil
			}
			metrics.DetailFetches.WithLabelValues("success").Inc()
			hits[i].Merge(detail)
			return nil
		})
	}

	g.Wait()
}

func (o *Orchestrator) archiveResults(ctx context.Context, needs string, params models.SearchParams, results []models.RankedSubsidy) {
	if o.archive == nil {
		return
	}
	if err := o.archive.Record(ctx, needs, params, results); err != nil {
		o.log.Warn("failed to archive search results", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (o *Orchestrator) startSpan(ctx context.Context, name string) (context.Context, func()) {
	if o.obs == nil {
		return ctx, func() {}
	}
	spanCtx, span := o.obs.StartStrategySpan(ctx, name)
	return spanCtx, func() { span.End() }
}

func (o *Orchestrator) recordSearch(ctx context.Context, duration time.Duration, status string, results int) {
	if o.obs == nil {
		return
	}
	o.obs.RecordSearch(ctx, duration, status, results)
}

func appendUnique(keywords []string, kw string) []string {
	for _, existing := range keywords {
		if existing == kw {
			return keywords
		}
	}
	return append(keywords, kw)
}
