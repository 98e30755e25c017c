package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medsearch-ai/medsearch/cache"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/embedding"
	"github.com/medsearch-ai/medsearch/fusion"
	"github.com/medsearch-ai/medsearch/llm"
	"github.com/medsearch-ai/medsearch/schema"
	"github.com/medsearch-ai/medsearch/search"
)

var testIndices = config.IndexNames{
	Literature: "pubmed_articles",
	Trials:     "clinical_trials",
	Drugs:      "fda_drugs",
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) GenerateText(_ context.Context, _ llm.GenRequest) (string, error) {
	return "", errors.New("not used")
}

func (m *mockEmbedder) Embed(_ context.Context, _ string, _ llm.EmbedMode) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type mockBackend struct {
	lexHits []search.Hit
	vecHits []search.Hit
	lexErr  error
	vecErr  error
}

func (m *mockBackend) LexicalSearch(_ context.Context, _ string, _ string, _ []string, _ schema.Filters, _ int) ([]search.Hit, error) {
	return m.lexHits, m.lexErr
}

func (m *mockBackend) VectorSearch(_ context.Context, _ string, _ []float32, _ schema.Filters, _ int) ([]search.Hit, error) {
	return m.vecHits, m.vecErr
}

func (m *mockBackend) Count(_ context.Context, _ string) (int64, error) { return 0, nil }

func testCore(backend search.Backend, provider llm.Provider) Core {
	store, _ := cache.New(config.CacheConfig{Provider: "memory", Capacity: 64, SearchResultTTLSec: 60})
	return Core{
		Fuser:    fusion.NewEngine(backend),
		Embedder: embedding.NewGateway(provider, store, time.Minute),
		Cache:    store,
		Retrieval: config.RetrievalConfig{
			MaxResults: 5,
			Strategy:   fusion.StrategyWeighted,
			RRFK:       60,
		},
		ResultTTL: time.Minute,
	}
}

func litHit(id string, score float64, title string) search.Hit {
	return search.Hit{ID: id, Score: score, Source: map[string]interface{}{
		"title":    title,
		"abstract": "abstract for " + title,
		"pmid":     id,
	}}
}

func TestRetrieve_LiveResults(t *testing.T) {
	backend := &mockBackend{
		lexHits: []search.Hit{litHit("p1", 8.0, "Metformin outcomes"), litHit("p2", 4.0, "Insulin therapy")},
		vecHits: []search.Hit{litHit("p1", 0.9, "Metformin outcomes")},
	}
	agent := NewLiterature(testCore(backend, &mockEmbedder{}), testIndices)

	// query deliberately absent from both titles so no post boost applies
	outcome := agent.Retrieve(context.Background(), schema.Query{Text: "diabetes"}, 5)

	if outcome.Origin != schema.OriginLive {
		t.Fatalf("expected live origin, got %s", outcome.Origin)
	}
	if outcome.Err != "" {
		t.Errorf("unexpected outcome error: %s", outcome.Err)
	}
	if len(outcome.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(outcome.Records))
	}
	// relevance is max(lex, vec) / 10
	if outcome.Records[0].Relevance != 0.8 {
		t.Errorf("expected relevance 0.8, got %f", outcome.Records[0].Relevance)
	}
}

func TestRetrieve_SingleModeFailureStaysLiveWithReason(t *testing.T) {
	backend := &mockBackend{
		lexErr:  errors.New("lexical shard down"),
		vecHits: []search.Hit{litHit("p1", 0.9, "Metformin outcomes")},
	}
	agent := NewLiterature(testCore(backend, &mockEmbedder{}), testIndices)

	outcome := agent.Retrieve(context.Background(), schema.Query{Text: "diabetes"}, 5)

	if outcome.Origin != schema.OriginLive {
		t.Fatalf("surviving mode must keep live origin, got %s", outcome.Origin)
	}
	if outcome.Empty() {
		t.Fatal("expected surviving vector records")
	}
	if outcome.Err == "" {
		t.Error("expected degraded mode recorded on the outcome")
	}

	// degraded results must not be cached for later queries
	second := agent.Retrieve(context.Background(), schema.Query{Text: "diabetes"}, 5)
	if second.Origin == schema.OriginCache {
		t.Error("degraded results must not be served from cache")
	}
}

func TestRetrieve_BackendDownFallsBackToSynthetic(t *testing.T) {
	backend := &mockBackend{
		lexErr: errors.New("connection refused"),
		vecErr: errors.New("connection refused"),
	}
	agent := NewLiterature(testCore(backend, &mockEmbedder{}), testIndices)

	outcome := agent.Retrieve(context.Background(), schema.Query{Text: "metformin cardiovascular"}, 5)

	if outcome.Origin != schema.OriginSynthetic {
		t.Fatalf("expected synthetic origin, got %s", outcome.Origin)
	}
	if outcome.Empty() {
		t.Fatal("degraded agent must still return records")
	}
	if outcome.Err == "" {
		t.Error("expected degradation reason on the outcome")
	}
}

func TestRetrieve_EmptyLiveResultsFallsBackToSynthetic(t *testing.T) {
	agent := NewLiterature(testCore(&mockBackend{}, &mockEmbedder{}), testIndices)

	outcome := agent.Retrieve(context.Background(), schema.Query{Text: "anything"}, 5)

	if outcome.Origin != schema.OriginSynthetic {
		t.Fatalf("expected synthetic origin, got %s", outcome.Origin)
	}
	if outcome.Err != schema.ErrEmptyResult.Error() {
		t.Errorf("expected empty-result reason, got %q", outcome.Err)
	}
}

func TestRetrieve_EmbeddingFailureFallsBackToSynthetic(t *testing.T) {
	backend := &mockBackend{lexHits: []search.Hit{litHit("p1", 8.0, "title")}}
	agent := NewLiterature(testCore(backend, &mockEmbedder{err: errors.New("embed down")}), testIndices)

	outcome := agent.Retrieve(context.Background(), schema.Query{Text: "diabetes research"}, 5)

	if outcome.Origin != schema.OriginSynthetic {
		t.Fatalf("expected synthetic origin on embed failure, got %s", outcome.Origin)
	}
}

func TestRetrieve_SecondCallServedFromCache(t *testing.T) {
	backend := &mockBackend{
		lexHits: []search.Hit{litHit("p1", 8.0, "Metformin outcomes")},
		vecHits: []search.Hit{litHit("p1", 0.9, "Metformin outcomes")},
	}
	agent := NewLiterature(testCore(backend, &mockEmbedder{}), testIndices)
	q := schema.Query{Text: "metformin"}

	first := agent.Retrieve(context.Background(), q, 5)
	if first.Origin != schema.OriginLive {
		t.Fatalf("expected live origin on first call, got %s", first.Origin)
	}

	second := agent.Retrieve(context.Background(), q, 5)
	if second.Origin != schema.OriginCache {
		t.Fatalf("expected cache origin on second call, got %s", second.Origin)
	}
	if len(second.Records) != len(first.Records) {
		t.Errorf("cached records differ: %d vs %d", len(second.Records), len(first.Records))
	}
}

func TestMatchSynthetic_FloorsAndScores(t *testing.T) {
	// a query matching nothing still yields the per-source floor
	lit := syntheticLiterature("zzzz", 10)
	if len(lit) != 2 {
		t.Errorf("expected literature floor of 2, got %d", len(lit))
	}
	trials := syntheticTrials("zzzz", 10)
	if len(trials) != 2 {
		t.Errorf("expected trials floor of 2, got %d", len(trials))
	}
	drugs := syntheticDrugs("zzzz", 10)
	if len(drugs) != 1 {
		t.Errorf("expected drugs floor of 1, got %d", len(drugs))
	}

	if lit[0].Relevance != 0.9 {
		t.Errorf("expected first synthetic score 0.9, got %f", lit[0].Relevance)
	}
	if lit[1].Relevance != 0.85 {
		t.Errorf("expected second synthetic score 0.85, got %f", lit[1].Relevance)
	}
}

func TestMatchSynthetic_KeywordOverlap(t *testing.T) {
	records := syntheticLiterature("semaglutide weight loss obesity", 10)
	found := false
	for _, r := range records {
		if r.Fields["pmid"] == "38123458" { // the GLP-1 obesity entry
			found = true
		}
	}
	if !found {
		t.Errorf("expected the obesity entry to match, got %d records", len(records))
	}
}

func TestTrialFilters(t *testing.T) {
	backend := &mockBackend{
		lexHits: []search.Hit{
			{ID: "t1", Score: 9, Source: map[string]interface{}{
				"title": "Recruiting trial", "brief_summary": "s", "status": "recruiting", "phase": "Phase 3",
			}},
			{ID: "t2", Score: 8, Source: map[string]interface{}{
				"title": "Completed trial", "brief_summary": "s", "status": "completed", "phase": "Phase 2",
			}},
		},
	}
	agent := NewTrials(testCore(backend, &mockEmbedder{}), testIndices)

	outcome := agent.Retrieve(context.Background(), schema.Query{
		Text:    "diabetes",
		Filters: schema.Filters{Statuses: []string{"recruiting"}},
	}, 5)

	if outcome.Origin != schema.OriginLive {
		t.Fatalf("expected live origin, got %s", outcome.Origin)
	}
	for _, r := range outcome.Records {
		if r.Fields["status"] != "recruiting" {
			t.Errorf("status filter leaked record %s with status %q", r.ID, r.Fields["status"])
		}
	}
}
