package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	mu          sync.Mutex
	searchFn    func(p models.SearchParams) ([]models.Subsidy, error)
	detailFn    func(id string) (*models.Subsidy, error)
	searchCalls []models.SearchParams
	detailCalls []string
}

func (f *fakeDirectory) Search(_ context.Context, p models.SearchParams) ([]models.Subsidy, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, p)
	f.mu.Unlock()
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(p)
}

func (f *fakeDirectory) Detail(_ context.Context, id string) (*models.Subsidy, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, id)
	f.mu.Unlock()
	if f.detailFn == nil {
		return nil, fmt.Errorf("no detail")
	}
	return f.detailFn(id)
}

func testConfig() config.SearchConfig {
	return config.SearchConfig{
		DetailLimit:       20,
		DetailConcurrency: 4,
		MaxResults:        15,
	}
}

func newTestOrchestrator(dir Directory, cfg config.SearchConfig) *Orchestrator {
	o := NewOrchestrator(dir, nil, nil, logger.NewNoOpLogger(), cfg)
	o.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return o
}

func fullParams() models.SearchParams {
	return models.SearchParams{
		Keyword:      "設備更新",
		UsePurpose:   "設備整備・IT導入をしたい",
		Industry:     "製造業",
		TargetArea:   "東京都",
		EmployeeBand: "20名以下",
	}
}

func TestRun_RanksAndDedupes(t *testing.T) {
	// a001 is returned by every strategy; a002 only by the base strategy
	// but with stronger field matches.
	dir := &fakeDirectory{
		searchFn: func(p models.SearchParams) ([]models.Subsidy, error) {
			return []models.Subsidy{
				{ID: "a001", Title: "ものづくり補助金"},
				{ID: "a002", Title: "設備投資支援事業", Industry: "製造業", TargetArea: "東京都"},
			}, nil
		},
		detailFn: func(id string) (*models.Subsidy, error) {
			return &models.Subsidy{ID: id, DetailPageURL: "https://example.jp/" + id}, nil
		},
	}

	o := newTestOrchestrator(dir, testConfig())
	results, err := o.Run(context.Background(), fullParams(), "設備更新で困っています")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]models.RankedSubsidy{}
	for _, r := range results {
		byID[r.ID] = r
	}

	// 12 strategies ran; each rediscovery of a001 after the first added the
	// cross-strategy bonus on top of the best single-strategy score.
	a001 := byID["a001"]
	assert.Equal(t, "base", a001.SearchStrategy)
	assert.Greater(t, len(a001.MatchedKeywords), 1)
	assert.Contains(t, a001.MatchedKeywords, "設備更新")
	assert.Contains(t, a001.MatchedKeywords, "補助金")

	// a002 accumulated the same bonuses plus its field matches, so it ranks
	// above a001.
	assert.Equal(t, "a002", results[0].ID)
	assert.Equal(t, "https://example.jp/a002", results[0].DetailURL)
}

func TestRun_AllStrategiesFail(t *testing.T) {
	dir := &fakeDirectory{
		searchFn: func(models.SearchParams) ([]models.Subsidy, error) {
			return nil, fmt.Errorf("upstream down")
		},
	}

	o := newTestOrchestrator(dir, testConfig())
	_, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_FAILED")
}

func TestRun_PartialFailureStillReturnsResults(t *testing.T) {
	calls := 0
	dir := &fakeDirectory{
		searchFn: func(p models.SearchParams) ([]models.Subsidy, error) {
			calls++
			if calls > 1 {
				return nil, fmt.Errorf("upstream down")
			}
			return []models.Subsidy{{ID: "a001", Title: "ものづくり補助金"}}, nil
		},
	}

	o := newTestOrchestrator(dir, testConfig())
	results, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a001", results[0].ID)
}

func TestRun_EmptyResultsIsNotAnError(t *testing.T) {
	dir := &fakeDirectory{
		searchFn: func(models.SearchParams) ([]models.Subsidy, error) {
			return nil, nil
		},
	}

	o := newTestOrchestrator(dir, testConfig())
	results, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_DetailEnrichment(t *testing.T) {
	dir := &fakeDirectory{
		searchFn: func(p models.SearchParams) ([]models.Subsidy, error) {
			if p.Keyword != "設備更新" {
				return nil, nil
			}
			return []models.Subsidy{{ID: "a001", Title: "ものづくり補助金"}}, nil
		},
		detailFn: func(id string) (*models.Subsidy, error) {
			return &models.Subsidy{
				ID:            id,
				Description:   "生産設備の更新を支援",
				MaxLimit:      10_000_000,
				DetailPageURL: "https://example.jp/a001",
			}, nil
		},
	}

	o := newTestOrchestrator(dir, testConfig())
	results, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "生産設備の更新を支援", results[0].Description)
	assert.Equal(t, int64(10_000_000), results[0].MaxLimit)
	assert.Equal(t, "https://example.jp/a001", results[0].DetailURL)
}

func TestRun_DetailFailureKeepsListRecord(t *testing.T) {
	dir := &fakeDirectory{
		searchFn: func(p models.SearchParams) ([]models.Subsidy, error) {
			if p.Keyword != "設備更新" {
				return nil, nil
			}
			return []models.Subsidy{{ID: "a001", Title: "ものづくり補助金"}}, nil
		},
		detailFn: func(id string) (*models.Subsidy, error) {
			return nil, fmt.Errorf("detail unavailable")
		},
	}

	o := newTestOrchestrator(dir, testConfig())
	results, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ものづくり補助金", results[0].Title)
	assert.Equal(t, fallbackDetailURL, results[0].DetailURL)
}

func TestRun_DetailLimitCapsFetches(t *testing.T) {
	var hits []models.Subsidy
	for i := 0; i < 30; i++ {
		hits = append(hits, models.Subsidy{ID: fmt.Sprintf("s%02d", i), Title: "補助金"})
	}

	served := false
	dir := &fakeDirectory{
		searchFn: func(p models.SearchParams) ([]models.Subsidy, error) {
			if served {
				return nil, nil
			}
			served = true
			return hits, nil
		},
		detailFn: func(id string) (*models.Subsidy, error) {
			return &models.Subsidy{ID: id}, nil
		},
	}

	cfg := testConfig()
	cfg.DetailLimit = 20
	o := newTestOrchestrator(dir, cfg)
	_, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.NoError(t, err)
	assert.Len(t, dir.detailCalls, 20)
}

func TestRun_TruncatesToMaxResults(t *testing.T) {
	var hits []models.Subsidy
	for i := 0; i < 20; i++ {
		hits = append(hits, models.Subsidy{ID: fmt.Sprintf("s%02d", i), Title: "補助金"})
	}

	dir := &fakeDirectory{
		searchFn: func(p models.SearchParams) ([]models.Subsidy, error) {
			if p.Keyword != "設備更新" {
				return nil, nil
			}
			return hits, nil
		},
		detailFn: func(id string) (*models.Subsidy, error) {
			return &models.Subsidy{ID: id}, nil
		},
	}

	cfg := testConfig()
	cfg.MaxResults = 15
	o := newTestOrchestrator(dir, cfg)
	results, err := o.Run(context.Background(), fullParams(), "設備更新")
	require.NoError(t, err)
	assert.Len(t, results, 15)
}
