package agent

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/medsearch-ai/medsearch/cache"
	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/embedding"
	"github.com/medsearch-ai/medsearch/fusion"
	"github.com/medsearch-ai/medsearch/schema"
)

// Retriever is one specialist agent. Retrieve never fails outright: every
// upstream error feeds the degradation chain and is recorded on the outcome.
type Retriever interface {
	Source() schema.SourceType
	Retrieve(ctx context.Context, q schema.Query, maxResults int) schema.AgentOutcome
}

// Core bundles the collaborators shared by all three agents.
type Core struct {
	Fuser     *fusion.Engine
	Embedder  *embedding.Gateway
	Cache     cache.Cache
	Reranker  *Reranker
	Retrieval config.RetrievalConfig
	ResultTTL time.Duration
}

// profile is the per-source retrieval configuration.
type profile struct {
	source       schema.SourceType
	index        string
	fields       []string
	lexWeight    float64
	vecWeight    float64
	rerankFields []string
	expand       func(query string) string
	shape        func(c fusion.Candidate) schema.RetrievalRecord
	post         func(records []schema.RetrievalRecord, q schema.Query) []schema.RetrievalRecord
	synthetic    func(query string, max int) []schema.RetrievalRecord
}

// Agent wraps the fusion engine with source-specific behavior and the
// live -> synthetic degradation chain.
type Agent struct {
	core Core
	prof profile
}

func newAgent(core Core, prof profile) *Agent {
	return &Agent{core: core, prof: prof}
}

func (a *Agent) Source() schema.SourceType { return a.prof.source }

// Retrieve runs the degradation chain: cached fused results, then a live
// fused search, then the built-in synthetic dataset when the backend or
// embedding step fails or the live search comes back empty.
func (a *Agent) Retrieve(ctx context.Context, q schema.Query, maxResults int) schema.AgentOutcome {
	if maxResults <= 0 {
		maxResults = a.core.Retrieval.MaxResults
	}

	key := a.resultKey(q, maxResults)
	if a.core.Cache != nil {
		if raw, ok := a.core.Cache.Get(ctx, key); ok {
			var records []schema.RetrievalRecord
			if err := json.Unmarshal(raw, &records); err == nil && len(records) > 0 {
				logger.Debugf("agent %s: cached results for %q", a.prof.source, q.Text)
				return schema.AgentOutcome{Agent: a.prof.source, Records: records, Origin: schema.OriginCache}
			}
		}
	}

	vector := q.Vector
	if len(vector) == 0 {
		var err error
		vector, err = a.core.Embedder.Embed(ctx, q.Text)
		if err != nil {
			logger.Warnf("agent %s: embedding failed, using synthetic data: %v", a.prof.source, err)
			return a.syntheticOutcome(q.Text, maxResults, err.Error())
		}
	}

	lexText := q.Text
	if a.prof.expand != nil {
		lexText = a.prof.expand(q.Text)
	}

	cands, err := a.core.Fuser.Fuse(ctx, fusion.Params{
		Index:         a.prof.index,
		Text:          lexText,
		Vector:        vector,
		Fields:        a.prof.fields,
		Filters:       q.Filters,
		Size:          maxResults,
		LexicalWeight: a.prof.lexWeight,
		VectorWeight:  a.prof.vecWeight,
		Strategy:      a.core.Retrieval.Strategy,
		RRFK:          a.core.Retrieval.RRFK,
	})
	if err != nil && len(cands) == 0 {
		logger.Warnf("agent %s: live search failed, using synthetic data: %v", a.prof.source, err)
		return a.syntheticOutcome(q.Text, maxResults, err.Error())
	}
	degraded := ""
	if err != nil {
		degraded = err.Error()
	}
	if len(cands) == 0 {
		logger.Infof("agent %s: live search empty for %q, using synthetic data", a.prof.source, q.Text)
		return a.syntheticOutcome(q.Text, maxResults, schema.ErrEmptyResult.Error())
	}

	records := make([]schema.RetrievalRecord, 0, len(cands))
	for _, c := range cands {
		records = append(records, a.prof.shape(c))
	}
	if a.prof.post != nil {
		records = a.prof.post(records, q)
	}
	if len(records) == 0 {
		logger.Infof("agent %s: all live results filtered out for %q, using synthetic data", a.prof.source, q.Text)
		return a.syntheticOutcome(q.Text, maxResults, schema.ErrEmptyResult.Error())
	}
	if a.core.Retrieval.RerankEnabled && a.core.Reranker != nil {
		records = a.core.Reranker.Rerank(ctx, q.Text, records, a.prof.rerankFields, a.core.Retrieval.RerankTopK)
	}

	// degraded single-mode results are usable but not worth pinning for an hour
	if a.core.Cache != nil && degraded == "" {
		if raw, err := json.Marshal(records); err == nil {
			a.core.Cache.SetWithTTL(ctx, key, raw, a.core.ResultTTL)
		}
	}
	logger.Infof("agent %s: %d live results for %q", a.prof.source, len(records), q.Text)
	return schema.AgentOutcome{Agent: a.prof.source, Records: records, Origin: schema.OriginLive, Err: degraded}
}

func (a *Agent) syntheticOutcome(query string, max int, reason string) schema.AgentOutcome {
	records := a.prof.synthetic(query, max)
	return schema.AgentOutcome{
		Agent:   a.prof.source,
		Records: records,
		Origin:  schema.OriginSynthetic,
		Err:     reason,
	}
}

func (a *Agent) resultKey(q schema.Query, maxResults int) string {
	payload, _ := json.Marshal(struct {
		Source  schema.SourceType `json:"source"`
		Text    string            `json:"text"`
		Filters schema.Filters    `json:"filters"`
		Max     int               `json:"max"`
	}{a.prof.source, q.Text, q.Filters, maxResults})
	sum := sha1.Sum(payload)
	return "search:" + hex.EncodeToString(sum[:])
}

// sortByRelevance orders records by relevance descending with ids breaking
// ties, keeping agent output deterministic.
func sortByRelevance(records []schema.RetrievalRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Relevance != records[j].Relevance {
			return records[i].Relevance > records[j].Relevance
		}
		return records[i].ID < records[j].ID
	})
}

// normalizeRelevance maps a raw engine score onto [0,1] with the fixed
// 1/10 scale the indices are calibrated against.
func normalizeRelevance(c fusion.Candidate) float64 {
	raw := c.LexScore
	if c.VecScore > raw {
		raw = c.VecScore
	}
	rel := raw / 10.0
	if rel > 1.0 {
		rel = 1.0
	}
	if rel < 0 {
		rel = 0
	}
	return rel
}
