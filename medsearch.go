package medsearch

import (
	"context"
	"fmt"

	"github.com/medsearch-ai/medsearch/agent"
	"github.com/medsearch-ai/medsearch/cache"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/embedding"
	"github.com/medsearch-ai/medsearch/fusion"
	"github.com/medsearch-ai/medsearch/llm"
	"github.com/medsearch-ai/medsearch/orchestrator"
	"github.com/medsearch-ai/medsearch/router"
	"github.com/medsearch-ai/medsearch/schema"
	"github.com/medsearch-ai/medsearch/search"
	"github.com/medsearch-ai/medsearch/session"
	"github.com/medsearch-ai/medsearch/synthesis"
)

// Client is the assembled query system: router, specialist agents,
// session store and workflow engine behind one facade.
type Client struct {
	config   *config.Config
	engine   *orchestrator.Engine
	sessions session.Store
	cache    cache.Cache
}

// NewClient wires every component from configuration. Construction fails
// only on configuration errors; degraded runtime dependencies (search
// backend down, LLM unreachable) surface later as degraded outcomes.
func NewClient(cfg *config.Config, progress orchestrator.Sink) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", schema.ErrFatalConfig)
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache failed: %w", err)
	}

	provider := llm.NewOpenAI(cfg.LLM, cfg.Embedding)
	backend := search.NewElastic(cfg.Search)
	embedder := embedding.NewGateway(provider, store, cfg.Cache.EmbeddingTTL())
	fuser := fusion.NewEngine(backend)

	var reranker *agent.Reranker
	if cfg.Retrieval.RerankEnabled {
		reranker = agent.NewReranker(provider)
	}
	core := agent.Core{
		Fuser:     fuser,
		Embedder:  embedder,
		Cache:     store,
		Reranker:  reranker,
		Retrieval: cfg.Retrieval,
		ResultTTL: cfg.Cache.SearchResultTTL(),
	}
	agents := map[schema.SourceType]agent.Retriever{
		schema.SourcePubMed: agent.NewLiterature(core, cfg.Search.Indices),
		schema.SourceTrial:  agent.NewTrials(core, cfg.Search.Indices),
		schema.SourceDrug:   agent.NewFormulary(core, cfg.Search.Indices),
	}

	rt := router.NewComposite(router.NewAssisted(provider), router.NewHeuristic())

	sessions, err := session.New(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("create session store failed: %w", err)
	}

	synth := synthesis.NewSynthesizer(provider, synthesis.NewPayloadBuilder(cfg.LLM.MaxTokens*3))
	conflicts := synthesis.NewConflictDetector(provider)

	engine, err := orchestrator.NewEngine(rt, agents, sessions, backend, cfg.Search.Indices,
		synth, conflicts, cfg.Retrieval, progress)
	if err != nil {
		return nil, err
	}

	return &Client{config: cfg, engine: engine, sessions: sessions, cache: store}, nil
}

// Query runs one question through the full workflow.
func (c *Client) Query(ctx context.Context, query string, filters schema.Filters, history schema.History) (*schema.WorkflowState, error) {
	return c.engine.Execute(ctx, orchestrator.Request{Query: query, Filters: filters, History: history})
}

// Cancel stops an in-flight session. Returns false when the session is
// not currently executing.
func (c *Client) Cancel(sessionID string) bool {
	return c.engine.Cancel(sessionID)
}

// GetSession fetches a persisted session by id.
func (c *Client) GetSession(ctx context.Context, id string) (*schema.Session, error) {
	return c.sessions.Get(ctx, id)
}

// ListSessions returns recent sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]*schema.Session, error) {
	return c.sessions.ListRecent(ctx, limit)
}

// Close purges the shared cache and releases the session store.
func (c *Client) Close() error {
	c.cache.Purge(context.Background())
	return c.sessions.Close()
}
