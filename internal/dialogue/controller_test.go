package dialogue

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/common/database"
	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/models"
	"subsidy-concierge/internal/session"
)

type fakeOracle struct {
	responses []string
	errs      []error
	calls     []string
}

func (f *fakeOracle) Complete(_ context.Context, prompt string) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i)
}

type fakeSearcher struct {
	results []models.RankedSubsidy
	err     error
	calls   []models.SearchParams
	needs   []string
}

func (f *fakeSearcher) Run(_ context.Context, params models.SearchParams, needs string) ([]models.RankedSubsidy, error) {
	f.calls = append(f.calls, params)
	f.needs = append(f.needs, needs)
	return f.results, f.err
}

func newTestController(t *testing.T, oracle Oracle, searcher Searcher) *Controller {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { rdb.Close() })

	store := session.NewStore(rdb, logger.NewNoOpLogger(), config.SessionConfig{
		TTLHours:      72,
		MaxMessages:   15,
		MaxContext:    10,
		MaxSessions:   5,
		MaxEntryBytes: 1024 * 1024,
	})

	return NewController(oracle, searcher, store, nil, logger.NewNoOpLogger(), config.DialogueConfig{
		MaxQuestions:  3,
		ContextWindow: 4,
	})
}

func rankedResults() []models.RankedSubsidy {
	return []models.RankedSubsidy{
		{
			Subsidy:        models.Subsidy{ID: "a001", Title: "ものづくり補助金", MaxLimit: 10_000_000},
			DetailURL:      "https://example.jp/a001",
			SearchStrategy: "base",
			RelevanceScore: 120,
		},
		{
			Subsidy:        models.Subsidy{ID: "a002", Title: "省エネ設備導入支援"},
			DetailURL:      "https://example.jp/a002",
			SearchStrategy: "keyword-設備",
			RelevanceScore: 85,
		},
	}
}

func greetingJSON() string {
	return `{"response":"こんにちは！どのような課題をお持ちですか？","quickOptions":[{"label":"設備投資","value":"設備を更新したい"}],"shouldSearch":false,"currentStage":"introduction"}`
}

func questionJSON() string {
	return `{"response":"どのような設備の更新をお考えですか？","quickOptions":[{"label":"生産設備","value":"生産設備を更新したい"}],"shouldSearch":false,"currentStage":"deep_discovery"}`
}

func analysisJSON() string {
	return `{"response":"お客様には以下の補助金がおすすめです。","recommendedSubsidies":[{"id":"a001","title":"ものづくり補助金","reason":"設備投資に最適です","priority":1}]}`
}

func TestStart_UsesOracleGreeting(t *testing.T) {
	oracle := &fakeOracle{responses: []string{greetingJSON()}}
	c := newTestController(t, oracle, &fakeSearcher{})

	reply, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "こんにちは！どのような課題をお持ちですか？", reply.Message)
	require.Len(t, reply.QuickOptions, 1)
	assert.Equal(t, models.StageIntroduction, reply.Stage)
}

func TestStart_FallsBackWhenOracleFails(t *testing.T) {
	oracle := &fakeOracle{errs: []error{fmt.Errorf("connection refused")}}
	c := newTestController(t, oracle, &fakeSearcher{})

	reply, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallbackGreetingMessage, reply.Message)
	assert.Len(t, reply.QuickOptions, 9)
}

func TestStart_FallsBackOnMalformedPayload(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"承知しました。どうぞよろしくお願いします。"}}
	c := newTestController(t, oracle, &fakeSearcher{})

	reply, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallbackGreetingMessage, reply.Message)
	assert.Len(t, reply.QuickOptions, 9)
}

func TestHandleMessage_AsksNextQuestion(t *testing.T) {
	oracle := &fakeOracle{responses: []string{questionJSON()}}
	c := newTestController(t, oracle, &fakeSearcher{})

	reply, err := c.HandleMessage(context.Background(), "s1", "設備更新で困っています")
	require.NoError(t, err)
	assert.Equal(t, "どのような設備の更新をお考えですか？", reply.Message)
	assert.Equal(t, models.StageCollecting, reply.Stage)
	assert.Equal(t, 1, reply.QuestionCount)
	require.Len(t, reply.QuickOptions, 1)

	// The prompt carries what extraction already picked up.
	require.Len(t, oracle.calls, 1)
	assert.Contains(t, oracle.calls[0], "設備整備・IT導入をしたい")
}

func TestHandleMessage_CompleteFiltersSearchImmediately(t *testing.T) {
	searcher := &fakeSearcher{results: rankedResults()}
	oracle := &fakeOracle{responses: []string{analysisJSON()}}
	c := newTestController(t, oracle, searcher)

	reply, err := c.HandleMessage(context.Background(), "s1", "設備更新で困っています。製造業で東京、従業員10名です。")
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	params := searcher.calls[0]
	assert.Equal(t, "設備整備・IT導入をしたい", params.UsePurpose)
	assert.Equal(t, "製造業", params.Industry)
	assert.Equal(t, "東京都", params.TargetArea)
	assert.Equal(t, "20名以下", params.EmployeeBand)
	assert.Equal(t, "設備整備・IT導入をしたいを目的とした製造業の事業者（20名以下、東京都）", searcher.needs[0])

	assert.Equal(t, models.StagePresenting, reply.Stage)
	assert.Len(t, reply.Results, 2)
	require.Len(t, reply.Recommendations, 1)
	assert.Equal(t, "a001", reply.Recommendations[0].ID)
	assert.Contains(t, reply.Message, "おすすめ")
	assert.Contains(t, reply.Message, "【推奨1】ものづくり補助金")
	assert.Contains(t, reply.Message, "10,000,000円")
	assert.Len(t, reply.QuickOptions, 5)
}

func TestHandleMessage_FiltersAccumulateAcrossTurns(t *testing.T) {
	searcher := &fakeSearcher{results: rankedResults()}
	oracle := &fakeOracle{responses: []string{
		questionJSON(),
		questionJSON(),
		questionJSON(),
		analysisJSON(),
	}}
	c := newTestController(t, oracle, searcher)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "設備更新で困っています")
	require.NoError(t, err)
	_, err = c.HandleMessage(ctx, "s1", "製造業です")
	require.NoError(t, err)
	_, err = c.HandleMessage(ctx, "s1", "東京です")
	require.NoError(t, err)
	reply, err := c.HandleMessage(ctx, "s1", "従業員10名です")
	require.NoError(t, err)

	// The last turn completed the filters; no question prompt was needed.
	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "20名以下", searcher.calls[0].EmployeeBand)
	assert.Equal(t, 4, reply.QuestionCount)
	assert.Equal(t, models.StagePresenting, reply.Stage)
}

func TestHandleMessage_TurnBudgetForcesSearch(t *testing.T) {
	searcher := &fakeSearcher{results: rankedResults()}
	// Four turns with nothing extractable. The oracle gets three full
	// question rounds; the fourth turn exhausts the budget and forces the
	// search, whose results the oracle then analyzes.
	oracle := &fakeOracle{responses: []string{
		questionJSON(),
		questionJSON(),
		questionJSON(),
		questionJSON(),
		analysisJSON(),
	}}
	c := newTestController(t, oracle, searcher)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "よくわかりません")
	require.NoError(t, err)
	_, err = c.HandleMessage(ctx, "s1", "難しいですね")
	require.NoError(t, err)
	_, err = c.HandleMessage(ctx, "s1", "おまかせします")
	require.NoError(t, err)
	reply, err := c.HandleMessage(ctx, "s1", "お願いします")
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "補助金", searcher.calls[0].Keyword)
	assert.Equal(t, forcedSearchNeeds, searcher.needs[0])
	assert.Equal(t, 4, reply.QuestionCount)
	assert.Equal(t, models.StagePresenting, reply.Stage)
}

func TestHandleMessage_OracleDirectedSearch(t *testing.T) {
	searcher := &fakeSearcher{results: rankedResults()}
	directed := `{"response":"検索します","shouldSearch":true,"multipleSearchParams":[{"keyword":"省エネ","use_purpose":"設備整備・IT導入をしたい","industry":"","target_area_search":"","target_number_of_employees":""}],"userNeeds":"省エネ設備への投資","currentStage":"execute_search"}`
	oracle := &fakeOracle{responses: []string{directed, analysisJSON()}}
	c := newTestController(t, oracle, searcher)

	reply, err := c.HandleMessage(context.Background(), "s1", "省エネについて詳しく知りたい")
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "省エネ", searcher.calls[0].Keyword)
	assert.Equal(t, "省エネ設備への投資", searcher.needs[0])
	assert.Equal(t, models.StagePresenting, reply.Stage)
}

func TestHandleMessage_ParseFailureAsksToRetry(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"ではまず業種を教えてください"}}
	c := newTestController(t, oracle, &fakeSearcher{})

	reply, err := c.HandleMessage(context.Background(), "s1", "よろしくお願いします")
	require.NoError(t, err)
	assert.Equal(t, parseFailureMessage, reply.Message)
	assert.Empty(t, reply.QuickOptions)
}

func TestHandleMessage_EmptyResultsOfferRelaxation(t *testing.T) {
	searcher := &fakeSearcher{results: nil}
	c := newTestController(t, &fakeOracle{}, searcher)

	reply, err := c.HandleMessage(context.Background(), "s1", "設備更新で困っています。製造業で東京、従業員10名です。")
	require.NoError(t, err)
	assert.Equal(t, noResultsMessage, reply.Message)
	assert.Len(t, reply.QuickOptions, 5)
	assert.Equal(t, models.StageCollecting, reply.Stage)
	assert.Empty(t, reply.Results)
}

func TestHandleMessage_SearchErrorKeepsConversationAlive(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("all strategies failed")}
	c := newTestController(t, &fakeOracle{}, searcher)

	reply, err := c.HandleMessage(context.Background(), "s1", "設備更新で困っています。製造業で東京、従業員10名です。")
	require.NoError(t, err)
	assert.Equal(t, searchFailureMessage, reply.Message)
	assert.Len(t, reply.QuickOptions, 5)
}

func TestHandleMessage_AnalysisFailureUsesSimpleFormatting(t *testing.T) {
	searcher := &fakeSearcher{results: rankedResults()}
	oracle := &fakeOracle{errs: []error{fmt.Errorf("rate limited")}}
	c := newTestController(t, oracle, searcher)

	reply, err := c.HandleMessage(context.Background(), "s1", "設備更新で困っています。製造業で東京、従業員10名です。")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply.Message, "2件の補助金が見つかりました。"))
	assert.Contains(t, reply.Message, "【1】ものづくり補助金")
	assert.Empty(t, reply.Recommendations)
	assert.Len(t, reply.Results, 2)
}

func TestHandleMessage_StatePersistsAcrossCalls(t *testing.T) {
	oracle := &fakeOracle{responses: []string{questionJSON(), questionJSON()}}
	c := newTestController(t, oracle, &fakeSearcher{})
	ctx := context.Background()

	first, err := c.HandleMessage(ctx, "s1", "何かありますか")
	require.NoError(t, err)
	assert.Equal(t, 1, first.QuestionCount)

	second, err := c.HandleMessage(ctx, "s1", "教えてください")
	require.NoError(t, err)
	assert.Equal(t, 2, second.QuestionCount)
}

func TestReset_StartsFreshConversation(t *testing.T) {
	oracle := &fakeOracle{responses: []string{questionJSON(), greetingJSON(), questionJSON()}}
	c := newTestController(t, oracle, &fakeSearcher{})
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "設備更新で困っています")
	require.NoError(t, err)

	reply, err := c.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.NotEqual(t, "s1", reply.SessionID)
	assert.Equal(t, models.StageIntroduction, reply.Stage)

	// The old session is gone; a new message against it starts at one.
	after, err := c.HandleMessage(ctx, "s1", "何かありますか")
	require.NoError(t, err)
	assert.Equal(t, 1, after.QuestionCount)
}
