package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medsearch-ai/medsearch/agent"
	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/router"
	"github.com/medsearch-ai/medsearch/schema"
	"github.com/medsearch-ai/medsearch/search"
	"github.com/medsearch-ai/medsearch/session"
	"github.com/medsearch-ai/medsearch/synthesis"
)

// Sink receives progress events for a session. Implementations must not
// block; events are emitted inline at stage transitions.
type Sink interface {
	Publish(sessionID string, ev schema.ProgressEvent)
}

// NopSink discards progress events.
type NopSink struct{}

func (NopSink) Publish(string, schema.ProgressEvent) {}

// Request is one query execution.
type Request struct {
	Query   string
	Filters schema.Filters
	History schema.History
}

// Engine drives a query through routing, specialist retrieval,
// aggregation and synthesis. Stage failures degrade and accumulate in the
// workflow state; only configuration errors abort execution.
type Engine struct {
	Router    router.Router
	Agents    map[schema.SourceType]agent.Retriever
	Store     session.Store
	Backend   search.Backend
	Indices   config.IndexNames
	Synth     *synthesis.Synthesizer
	Conflicts *synthesis.ConflictDetector
	Retrieval config.RetrievalConfig
	Progress  Sink

	mu      sync.Mutex
	running map[string]*execution
}

type execution struct {
	cancel    context.CancelFunc
	cancelled bool
}

// NewEngine validates the wiring and returns a ready engine.
func NewEngine(rt router.Router, agents map[schema.SourceType]agent.Retriever, store session.Store, backend search.Backend, indices config.IndexNames, synth *synthesis.Synthesizer, conflicts *synthesis.ConflictDetector, retrieval config.RetrievalConfig, progress Sink) (*Engine, error) {
	if rt == nil || len(agents) == 0 || store == nil {
		return nil, fmt.Errorf("%w: orchestrator requires router, agents and session store", schema.ErrFatalConfig)
	}
	if progress == nil {
		progress = NopSink{}
	}
	return &Engine{
		Router:    rt,
		Agents:    agents,
		Store:     store,
		Backend:   backend,
		Indices:   indices,
		Synth:     synth,
		Conflicts: conflicts,
		Retrieval: retrieval,
		Progress:  progress,
		running:   make(map[string]*execution),
	}, nil
}

// Cancel marks the session cancelled and stops its in-flight work.
// Returns false when the session is not currently executing.
func (e *Engine) Cancel(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.running[sessionID]
	if !ok {
		return false
	}
	exec.cancelled = true
	exec.cancel()
	return true
}

func (e *Engine) isCancelled(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.running[sessionID]
	return ok && exec.cancelled
}

// Execute runs the full workflow. The returned state is always non-nil;
// the error is non-nil only for fatal configuration problems.
func (e *Engine) Execute(ctx context.Context, req Request) (*schema.WorkflowState, error) {
	sess, err := e.Store.Create(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: session store unavailable: %v", schema.ErrFatalConfig, err)
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if e.Retrieval.TimeoutMs > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(e.Retrieval.TimeoutMs)*time.Millisecond)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	e.mu.Lock()
	e.running[sess.ID] = &execution{cancel: cancel}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.running, sess.ID)
		e.mu.Unlock()
	}()

	state := &schema.WorkflowState{
		SessionID: sess.ID,
		Query:     schema.Query{Text: req.Query, Filters: req.Filters},
		Outcomes:  make(map[schema.SourceType]schema.AgentOutcome),
		Status:    schema.StatusRunning,
		StartedAt: time.Now(),
	}

	e.step(state, "route", 10, "analyzing query")
	state.Intent = e.route(runCtx, req)
	if e.checkCancelled(state) {
		return e.finish(ctx, state), nil
	}

	e.step(state, "agents", 40, fmt.Sprintf("querying %d sources", len(state.Intent.SelectedAgents)))
	e.retrieve(runCtx, req, state)
	if e.checkCancelled(state) {
		return e.finish(ctx, state), nil
	}

	e.step(state, "aggregate", 60, "scoring evidence")
	records := collectRecords(state)
	if len(records) == 0 {
		e.noEvidence(runCtx, state)
		return e.finish(ctx, state), nil
	}

	assessment := synthesis.AssessOutcomes(state.Outcomes, time.Now())
	state.Assessment = &assessment
	if e.Conflicts != nil {
		conflicts, summary := e.Conflicts.Detect(runCtx, state.Intent.RewrittenQuery, state.Outcomes)
		state.Assessment.Conflicts = conflicts
		state.Assessment.ConflictSummary = summary
	}
	state.Citations = synthesis.ExtractCitations(state.Outcomes)
	if e.checkCancelled(state) {
		return e.finish(ctx, state), nil
	}

	e.step(state, "synthesize", 80, "generating answer")
	if e.Synth != nil {
		answer, serr := e.Synth.Synthesize(runCtx, state.Intent.RewrittenQuery, state.Intent, state.Outcomes, *state.Assessment, req.History)
		state.Synthesis = answer
		if serr != nil {
			state.Errors = append(state.Errors, serr.Error())
		}
	}
	if e.checkCancelled(state) {
		return e.finish(ctx, state), nil
	}

	state.Status = schema.StatusCompleted
	e.step(state, "done", 100, "completed")
	return e.finish(ctx, state), nil
}

// route never fails the workflow: a router error falls back to a general
// intent covering every source.
func (e *Engine) route(ctx context.Context, req Request) *schema.Intent {
	intent, err := e.Router.Route(ctx, req.Query, req.History)
	if err != nil || intent == nil {
		logger.Warnf("routing failed, defaulting to general: %v", err)
		return &schema.Intent{
			Kind:           schema.IntentGeneral,
			Confidence:     0.5,
			SelectedAgents: []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug},
			RewrittenQuery: req.Query,
		}
	}
	return intent
}

// retrieve fans out to the selected agents, concurrently when more than
// one is in play. Agent outcomes never carry fatal errors; degraded
// origins and reasons land in the outcome itself.
func (e *Engine) retrieve(ctx context.Context, req Request, state *schema.WorkflowState) {
	q := schema.Query{Text: state.Intent.RewrittenQuery, Filters: req.Filters}
	max := e.Retrieval.MaxResults

	selected := make([]agent.Retriever, 0, len(state.Intent.SelectedAgents))
	for _, src := range state.Intent.SelectedAgents {
		if a, ok := e.Agents[src]; ok {
			selected = append(selected, a)
		} else {
			state.Errors = append(state.Errors, fmt.Sprintf("no agent registered for source %s", src))
		}
	}

	if len(selected) == 1 {
		outcome := selected[0].Retrieve(ctx, q, max)
		e.recordOutcome(state, outcome)
		return
	}

	var wg sync.WaitGroup
	outCh := make(chan schema.AgentOutcome, len(selected))
	for _, a := range selected {
		ag := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			outCh <- ag.Retrieve(ctx, q, max)
		}()
	}
	wg.Wait()
	close(outCh)
	for outcome := range outCh {
		e.recordOutcome(state, outcome)
	}
}

func (e *Engine) recordOutcome(state *schema.WorkflowState, outcome schema.AgentOutcome) {
	state.Outcomes[outcome.Agent] = outcome
	if outcome.Err != "" {
		state.Errors = append(state.Errors, fmt.Sprintf("%s: %s", outcome.Agent, outcome.Err))
	}
}

// noEvidence is the terminal path when every agent returned nothing, which
// only happens when even synthetic fallbacks produced no match. The
// response reports live corpus sizes so operators can tell empty indices
// from a query that simply missed.
func (e *Engine) noEvidence(ctx context.Context, state *schema.WorkflowState) {
	counts := make(map[schema.SourceType]int64)
	if e.Backend != nil {
		for src, index := range map[schema.SourceType]string{
			schema.SourcePubMed: e.Indices.Literature,
			schema.SourceTrial:  e.Indices.Trials,
			schema.SourceDrug:   e.Indices.Drugs,
		} {
			n, err := e.Backend.Count(ctx, index)
			if err != nil {
				logger.Warnf("corpus count failed for %s: %v", index, err)
				continue
			}
			counts[src] = n
		}
	}
	state.Assessment = &schema.ConfidenceAssessment{Score: 0.0, Band: schema.BandLow, Recency: 0.5}
	state.Synthesis = synthesis.NoEvidencePayload(state.Query.Text, counts)
	state.Status = schema.StatusCompleted
	e.step(state, "done", 100, "completed with no evidence")
}

// step advances the checkpoint. Progress is monotonic and stops once the
// session is cancelled.
func (e *Engine) step(state *schema.WorkflowState, step string, progress int, message string) {
	if progress <= state.Progress || e.isCancelled(state.SessionID) {
		return
	}
	state.Step = step
	state.Progress = progress
	e.Progress.Publish(state.SessionID, schema.ProgressEvent{
		Status:   state.Status,
		Message:  message,
		Progress: progress,
		Step:     step,
	})
}

// checkCancelled flips the state to cancelled and discards any collected
// results so a cancelled session never leaks partial evidence.
func (e *Engine) checkCancelled(state *schema.WorkflowState) bool {
	if !e.isCancelled(state.SessionID) {
		return false
	}
	state.Status = schema.StatusCancelled
	state.Outcomes = make(map[schema.SourceType]schema.AgentOutcome)
	state.Citations = nil
	state.Synthesis = ""
	state.Assessment = nil
	return true
}

// finish timestamps the state and persists the terminal session record.
// Persistence failures are recorded, not fatal.
func (e *Engine) finish(ctx context.Context, state *schema.WorkflowState) *schema.WorkflowState {
	state.FinishedAt = time.Now()
	if state.Status == schema.StatusRunning {
		state.Status = schema.StatusFailed
	}
	err := e.Store.Update(ctx, state.SessionID, func(s *schema.Session) {
		s.Status = state.Status
		s.Response = state.Synthesis
		s.Citations = state.Citations
	})
	if err != nil {
		logger.Warnf("session update failed for %s: %v", state.SessionID, err)
		state.Errors = append(state.Errors, fmt.Sprintf("session persistence: %v", err))
	}
	return state
}

func collectRecords(state *schema.WorkflowState) []schema.RetrievalRecord {
	var out []schema.RetrievalRecord
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		if outcome, ok := state.Outcomes[src]; ok {
			out = append(out, outcome.Records...)
		}
	}
	return out
}
