// Package dialogue implements the conversation loop: greet, collect search
// criteria over a bounded number of turns, trigger the multi-strategy
// search, and present results. The oracle steers the wording of every turn
// but never gates progress; deterministic extraction and the turn budget
// guarantee a search happens.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/common/metrics"
	"subsidy-concierge/internal/common/observability"
	"subsidy-concierge/internal/extractor"
	"subsidy-concierge/internal/models"
	"subsidy-concierge/internal/session"
)

const searchingNotice = "🔍 ユーザーのニーズに最適な補助金を検索しています...\n\n複数の検索戦略で幅広く調査中です。"

const forcedSearchNeeds = "収集された情報に基づく補助金検索"

// Oracle produces conversational text. Implemented by the DeepSeek client.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Searcher runs the multi-strategy search. Implemented by search.Orchestrator.
type Searcher interface {
	Run(ctx context.Context, params models.SearchParams, needs string) ([]models.RankedSubsidy, error)
}

// Reply is one assistant turn as returned to the transport layer.
type Reply struct {
	SessionID       string                  `json:"sessionId"`
	Message         string                  `json:"message"`
	QuickOptions    []models.QuickOption    `json:"quickOptions,omitempty"`
	MultiSelect     bool                    `json:"allowMultiSelect,omitempty"`
	Results         []models.RankedSubsidy  `json:"results,omitempty"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
	Stage           string                  `json:"stage"`
	QuestionCount   int                     `json:"questionCount"`
	Searchable      bool                    `json:"searchable"`
}

// Controller owns the conversation state machine.
type Controller struct {
	oracle   Oracle
	searcher Searcher
	store    *session.Store
	obs      *observability.Observability
	log      logger.Logger
	cfg      config.DialogueConfig
}

func NewController(oracle Oracle, searcher Searcher, store *session.Store, obs *observability.Observability, log logger.Logger, cfg config.DialogueConfig) *Controller {
	return &Controller{
		oracle:   oracle,
		searcher: searcher,
		store:    store,
		obs:      obs,
		log:      log,
		cfg:      cfg,
	}
}

// Start opens a new conversation and returns the greeting turn. If the
// oracle is unavailable the canned greeting is used; starting a conversation
// never fails on oracle problems.
func (c *Controller) Start(ctx context.Context) (*Reply, error) {
	state := models.NewDialogueState(session.NewSessionID())

	message := fallbackGreetingMessage
	options := fallbackGreetingOptions()
	multiSelect := false

	raw, err := c.oracle.Complete(ctx, initialPrompt())
	if err != nil {
		metrics.OracleRequests.WithLabelValues("greeting", "transport_error").Inc()
		c.log.Warn("greeting oracle call failed, using canned greeting", map[string]interface{}{
			"error": err.Error(),
		})
	} else if payload, perr := parseTurnPayload(raw); perr != nil {
		metrics.OracleRequests.WithLabelValues("greeting", "shape_error").Inc()
		c.log.Warn("greeting payload malformed, using canned greeting", map[string]interface{}{
			"error": perr.Error(),
		})
	} else {
		metrics.OracleRequests.WithLabelValues("greeting", "success").Inc()
		message = payload.Response
		if len(payload.QuickOptions) > 0 {
			options = payload.QuickOptions
		}
		multiSelect = payload.AllowMultiSelect
	}

	state.AddMessage(uuid.New().String(), "bot", message)
	state.AddContext("assistant", message)
	state.QuickOptions = options
	state.MultiSelect = multiSelect

	c.save(ctx, state)

	return &Reply{
		SessionID:    state.SessionID,
		Message:      message,
		QuickOptions: options,
		MultiSelect:  multiSelect,
		Stage:        state.Stage,
	}, nil
}

// HandleMessage processes one user turn: fold it into the filters, then
// either search (criteria complete or turn budget spent) or ask the next
// question.
func (c *Controller) HandleMessage(ctx context.Context, sessionID, input string) (*Reply, error) {
	state, err := c.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = models.NewDialogueState(sessionID)
	}

	if c.obs != nil {
		c.obs.RecordTurn(ctx, state.Stage)
	}

	state.AddMessage(uuid.New().String(), "user", input)
	state.AddContext("user", input)
	state.QuickOptions = nil
	state.MultiSelect = false
	state.Stage = models.StageCollecting

	// The budget compares against the count before this turn, so the oracle
	// gets MaxQuestions full rounds before the search is forced.
	prevCount := state.QuestionCount
	state.QuestionCount++

	state.Filters = extractor.Extract(state.Filters, input)

	var reply *Reply
	if state.Filters.Complete() {
		f := state.Filters
		needs := fmt.Sprintf("%sを目的とした%sの事業者（%s、%s）",
			f.UsePurpose, f.Industry, f.EmployeeBand, f.TargetArea)
		reply = c.runSearch(ctx, state, f.Params(), needs)
	} else {
		reply = c.discoveryTurn(ctx, state, input, prevCount)
	}

	c.save(ctx, state)
	return reply, nil
}

// Reset discards the session and opens a fresh conversation.
func (c *Controller) Reset(ctx context.Context, sessionID string) (*Reply, error) {
	if err := c.store.Delete(ctx, sessionID); err != nil {
		c.log.Warn("failed to delete session on reset", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}
	return c.Start(ctx)
}

// discoveryTurn asks the oracle for the next question, honoring the turn
// budget: once MaxQuestions user turns have passed, the search runs with
// whatever was collected.
func (c *Controller) discoveryTurn(ctx context.Context, state *models.DialogueState, input string, prevCount int) *Reply {
	prompt := questionPrompt(input, prevCount, c.cfg.MaxQuestions, state.Filters, state.RecentContext(c.cfg.ContextWindow))

	raw, err := c.oracle.Complete(ctx, prompt)
	if err != nil {
		metrics.OracleRequests.WithLabelValues("question", "transport_error").Inc()
		c.log.Warn("question oracle call failed", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     err.Error(),
		})
		if prevCount >= c.cfg.MaxQuestions {
			return c.forcedSearch(ctx, state)
		}
		return c.botTurn(state, parseFailureMessage, nil, false)
	}

	payload, perr := parseTurnPayload(raw)
	if perr != nil {
		metrics.OracleRequests.WithLabelValues("question", "shape_error").Inc()
		c.log.Warn("question payload malformed", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     perr.Error(),
		})
		if prevCount >= c.cfg.MaxQuestions {
			return c.forcedSearch(ctx, state)
		}
		return c.botTurn(state, parseFailureMessage, nil, false)
	}
	metrics.OracleRequests.WithLabelValues("question", "success").Inc()

	if payload.ShouldSearch && len(payload.MultipleSearchParams) > 0 {
		needs := payload.UserNeeds
		if needs == "" {
			needs = state.Filters.SpecificNeeds
		}
		return c.runSearch(ctx, state, payload.MultipleSearchParams[0], needs)
	}

	if prevCount >= c.cfg.MaxQuestions {
		return c.forcedSearch(ctx, state)
	}

	return c.botTurn(state, payload.Response, payload.QuickOptions, payload.AllowMultiSelect)
}

// forcedSearch runs with the generic keyword plus whatever criteria exist.
func (c *Controller) forcedSearch(ctx context.Context, state *models.DialogueState) *Reply {
	f := state.Filters
	params := models.SearchParams{
		Keyword:      "補助金",
		UsePurpose:   f.UsePurpose,
		Industry:     f.Industry,
		TargetArea:   f.TargetArea,
		EmployeeBand: f.EmployeeBand,
	}
	return c.runSearch(ctx, state, params, forcedSearchNeeds)
}

func (c *Controller) runSearch(ctx context.Context, state *models.DialogueState, params models.SearchParams, needs string) *Reply {
	state.Stage = models.StageSearching
	state.AddMessage(uuid.New().String(), "bot", searchingNotice)

	results, err := c.searcher.Run(ctx, params, needs)
	if err != nil {
		c.log.Error("search failed", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     err.Error(),
		})
		state.Stage = models.StageCollecting
		return c.botTurn(state, searchFailureMessage, relaxationOptions(), false)
	}

	if len(results) == 0 {
		state.Stage = models.StageCollecting
		return c.botTurn(state, noResultsMessage, relaxationOptions(), false)
	}

	state.Stage = models.StagePresenting
	message, recommendations := c.presentResults(ctx, needs, results)

	reply := c.botTurn(state, message, nextActionOptions(), false)
	reply.Results = results
	reply.Recommendations = recommendations
	return reply
}

// presentResults asks the oracle to analyze the ranked set. When that fails
// the top results are listed without commentary.
func (c *Controller) presentResults(ctx context.Context, needs string, results []models.RankedSubsidy) (string, []models.Recommendation) {
	simplified := simplifyForAnalysis(results)
	data, err := json.Marshal(simplified)
	if err != nil {
		return formatSimpleResults(results), nil
	}

	raw, err := c.oracle.Complete(ctx, analysisPrompt(needs, len(results), string(data)))
	if err != nil {
		metrics.OracleRequests.WithLabelValues("analysis", "transport_error").Inc()
		c.log.Warn("analysis oracle call failed, using simple formatting", map[string]interface{}{
			"error": err.Error(),
		})
		return formatSimpleResults(results), nil
	}

	payload, perr := parseAnalysisPayload(raw)
	if perr != nil {
		metrics.OracleRequests.WithLabelValues("analysis", "shape_error").Inc()
		c.log.Warn("analysis payload malformed, using simple formatting", map[string]interface{}{
			"error": perr.Error(),
		})
		return formatSimpleResults(results), nil
	}
	metrics.OracleRequests.WithLabelValues("analysis", "success").Inc()

	return formatAnalyzedResults(payload, results), payload.RecommendedSubsidies
}

// botTurn records one assistant message on the state and builds the reply.
func (c *Controller) botTurn(state *models.DialogueState, message string, options []models.QuickOption, multiSelect bool) *Reply {
	state.AddMessage(uuid.New().String(), "bot", message)
	state.AddContext("assistant", message)
	state.QuickOptions = options
	state.MultiSelect = multiSelect

	return &Reply{
		SessionID:     state.SessionID,
		Message:       message,
		QuickOptions:  options,
		MultiSelect:   multiSelect,
		Stage:         state.Stage,
		QuestionCount: state.QuestionCount,
		Searchable:    state.Filters.Complete(),
	}
}

func (c *Controller) save(ctx context.Context, state *models.DialogueState) {
	if err := c.store.Save(ctx, state); err != nil {
		c.log.Warn("failed to persist session", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     err.Error(),
		})
	}
}

// analysisRecord is the trimmed view of one result sent to the oracle for
// ranking commentary. Descriptions are capped to keep the prompt small.
type analysisRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MaxLimit     int64  `json:"subsidy_max_limit"`
	UsePurpose   string `json:"use_purpose"`
	Industry     string `json:"industry"`
	TargetArea   string `json:"target_area_search"`
	EmployeeBand string `json:"target_number_of_employees"`
	Description  string `json:"description"`
}

func simplifyForAnalysis(results []models.RankedSubsidy) []analysisRecord {
	capped := results
	if len(capped) > 20 {
		capped = capped[:20]
	}

	records := make([]analysisRecord, 0, len(capped))
	for _, r := range capped {
		desc := r.Description
		if runes := []rune(desc); len(runes) > 200 {
			desc = string(runes[:200])
		}
		records = append(records, analysisRecord{
			ID:           r.ID,
			Title:        r.Title,
			MaxLimit:     r.MaxLimit,
			UsePurpose:   r.UsePurpose,
			Industry:     r.Industry,
			TargetArea:   r.TargetArea,
			EmployeeBand: r.EmployeeBand,
			Description:  desc,
		})
	}
	return records
}
