package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medsearch-ai/medsearch/agent"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/schema"
	"github.com/medsearch-ai/medsearch/search"
	"github.com/medsearch-ai/medsearch/session"
)

type fakeRouter struct {
	intent *schema.Intent
	err    error
}

func (f *fakeRouter) Route(_ context.Context, query string, _ schema.History) (*schema.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &schema.Intent{
		Kind:           schema.IntentGeneral,
		Confidence:     0.6,
		SelectedAgents: []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug},
		RewrittenQuery: query,
	}, nil
}

type fakeAgent struct {
	source  schema.SourceType
	outcome schema.AgentOutcome
	block   bool
}

func (f *fakeAgent) Source() schema.SourceType { return f.source }

func (f *fakeAgent) Retrieve(ctx context.Context, _ schema.Query, _ int) schema.AgentOutcome {
	if f.block {
		<-ctx.Done()
	}
	out := f.outcome
	out.Agent = f.source
	return out
}

type captureSink struct {
	mu     sync.Mutex
	events []schema.ProgressEvent
	ids    chan string
}

func newCaptureSink() *captureSink {
	return &captureSink{ids: make(chan string, 16)}
}

func (s *captureSink) Publish(sessionID string, ev schema.ProgressEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	select {
	case s.ids <- sessionID:
	default:
	}
}

func (s *captureSink) snapshot() []schema.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.ProgressEvent, len(s.events))
	copy(out, s.events)
	return out
}

type countBackend struct {
	counts map[string]int64
}

func (c *countBackend) LexicalSearch(_ context.Context, _ string, _ string, _ []string, _ schema.Filters, _ int) ([]search.Hit, error) {
	return nil, errors.New("not used")
}

func (c *countBackend) VectorSearch(_ context.Context, _ string, _ []float32, _ schema.Filters, _ int) ([]search.Hit, error) {
	return nil, errors.New("not used")
}

func (c *countBackend) Count(_ context.Context, index string) (int64, error) {
	n, ok := c.counts[index]
	if !ok {
		return 0, errors.New("index missing")
	}
	return n, nil
}

var testIndices = config.IndexNames{
	Literature: "pubmed_articles",
	Trials:     "clinical_trials",
	Drugs:      "fda_drugs",
}

func liveOutcome(src schema.SourceType, n int) schema.AgentOutcome {
	records := make([]schema.RetrievalRecord, n)
	for i := range records {
		records[i] = schema.RetrievalRecord{
			ID: string(src) + "-r", Source: src, Title: "T", Relevance: 0.8, Date: "2025-01-01",
		}
	}
	return schema.AgentOutcome{Records: records, Origin: schema.OriginLive}
}

func testEngine(t *testing.T, rt *fakeRouter, agents map[schema.SourceType]agent.Retriever, sink Sink) *Engine {
	t.Helper()
	e, err := NewEngine(rt, agents, session.NewMemory(), &countBackend{counts: map[string]int64{
		"pubmed_articles": 100, "clinical_trials": 50, "fda_drugs": 25,
	}}, testIndices, nil, nil, config.RetrievalConfig{MaxResults: 5}, sink)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func allAgents(block bool, outcomes map[schema.SourceType]schema.AgentOutcome) map[schema.SourceType]agent.Retriever {
	m := make(map[schema.SourceType]agent.Retriever)
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		m[src] = &fakeAgent{source: src, outcome: outcomes[src], block: block}
	}
	return m
}

func TestExecute_CompletesWithEvidence(t *testing.T) {
	sink := newCaptureSink()
	engine := testEngine(t, &fakeRouter{}, allAgents(false, map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: liveOutcome(schema.SourcePubMed, 3),
		schema.SourceTrial:  liveOutcome(schema.SourceTrial, 2),
		schema.SourceDrug:   liveOutcome(schema.SourceDrug, 1),
	}), sink)

	state, err := engine.Execute(context.Background(), Request{Query: "metformin outcomes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Status != schema.StatusCompleted {
		t.Errorf("expected completed, got %s", state.Status)
	}
	if len(state.Outcomes) != 3 {
		t.Errorf("expected 3 outcomes, got %d", len(state.Outcomes))
	}
	if state.Assessment == nil || state.Assessment.Score <= 0 {
		t.Errorf("expected positive confidence, got %+v", state.Assessment)
	}
	if len(state.Citations) == 0 {
		t.Error("expected citations")
	}
	if state.Progress != 100 {
		t.Errorf("expected final progress 100, got %d", state.Progress)
	}

	events := sink.snapshot()
	prev := 0
	for _, ev := range events {
		if ev.Progress <= prev {
			t.Fatalf("progress not monotonic: %v", events)
		}
		prev = ev.Progress
	}
	if prev != 100 {
		t.Errorf("expected last event at 100, got %d", prev)
	}
}

func TestExecute_PersistsTerminalSession(t *testing.T) {
	store := session.NewMemory()
	engine, err := NewEngine(&fakeRouter{}, allAgents(false, map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: liveOutcome(schema.SourcePubMed, 2),
	}), store, nil, testIndices, nil, nil, config.RetrievalConfig{MaxResults: 5}, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	state, _ := engine.Execute(context.Background(), Request{Query: "q"})

	sess, err := store.Get(context.Background(), state.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if sess.Status != schema.StatusCompleted {
		t.Errorf("expected completed session, got %s", sess.Status)
	}
}

func TestExecute_NoEvidenceReportsCorpusSizes(t *testing.T) {
	engine := testEngine(t, &fakeRouter{}, allAgents(false, nil), newCaptureSink())

	state, err := engine.Execute(context.Background(), Request{Query: "unmatched query"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Status != schema.StatusCompleted {
		t.Errorf("expected completed, got %s", state.Status)
	}
	if state.Assessment == nil || state.Assessment.Score != 0.0 {
		t.Errorf("expected zero confidence, got %+v", state.Assessment)
	}
	for _, want := range []string{"100", "50", "25"} {
		if !strings.Contains(state.Synthesis, want) {
			t.Errorf("expected corpus size %s in response: %s", want, state.Synthesis)
		}
	}
}

func TestExecute_RouterFailureDefaultsToGeneral(t *testing.T) {
	engine := testEngine(t, &fakeRouter{err: errors.New("router down")}, allAgents(false, map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: liveOutcome(schema.SourcePubMed, 1),
	}), newCaptureSink())

	state, err := engine.Execute(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("routing failure must not abort: %v", err)
	}
	if state.Intent.Kind != schema.IntentGeneral {
		t.Errorf("expected general fallback intent, got %s", state.Intent.Kind)
	}
	if len(state.Intent.SelectedAgents) != 3 {
		t.Errorf("expected fan-out to all sources, got %v", state.Intent.SelectedAgents)
	}
}

func TestExecute_DegradedOutcomeAccumulatesErrors(t *testing.T) {
	outcome := liveOutcome(schema.SourcePubMed, 1)
	outcome.Origin = schema.OriginSynthetic
	outcome.Err = "connection refused"

	engine := testEngine(t, &fakeRouter{intent: &schema.Intent{
		Kind:           schema.IntentLiterature,
		SelectedAgents: []schema.SourceType{schema.SourcePubMed},
		RewrittenQuery: "q",
	}}, allAgents(false, map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: outcome,
	}), newCaptureSink())

	state, err := engine.Execute(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("degradation must not abort: %v", err)
	}
	if state.Status != schema.StatusCompleted {
		t.Errorf("expected completed, got %s", state.Status)
	}
	if len(state.Errors) == 0 {
		t.Error("expected degradation recorded in state errors")
	}
}

func TestCancel_StopsWorkflowAndDiscardsResults(t *testing.T) {
	sink := newCaptureSink()
	engine := testEngine(t, &fakeRouter{}, allAgents(true, map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: liveOutcome(schema.SourcePubMed, 3),
	}), sink)

	go func() {
		id := <-sink.ids
		time.Sleep(20 * time.Millisecond) // let agents start blocking
		if !engine.Cancel(id) {
			t.Error("expected cancel to find the running session")
		}
	}()

	state, err := engine.Execute(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Status != schema.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", state.Status)
	}
	if len(state.Outcomes) != 0 || state.Synthesis != "" || state.Citations != nil {
		t.Error("cancelled session must not leak partial results")
	}

	events := sink.snapshot()
	for _, ev := range events {
		if ev.Progress > 40 {
			t.Errorf("expected no progress events past retrieval, got %+v", ev)
		}
	}
}

func TestCancel_UnknownSession(t *testing.T) {
	engine := testEngine(t, &fakeRouter{}, allAgents(false, nil), newCaptureSink())
	if engine.Cancel("missing") {
		t.Error("expected false for unknown session")
	}
}
