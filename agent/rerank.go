package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/llm"
	"github.com/medsearch-ai/medsearch/schema"
)

// Reranker rescores a bounded subset of records with a single generation
// call. Strictly best-effort: any failure keeps the original ordering.
type Reranker struct {
	provider llm.Provider
}

// NewReranker builds a reranker over the generation backend.
func NewReranker(provider llm.Provider) *Reranker {
	return &Reranker{provider: provider}
}

type scoredItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rerank scores up to topK records against the query and reorders by the
// returned scores. Unscored records keep their current relevance.
func (r *Reranker) Rerank(ctx context.Context, query string, records []schema.RetrievalRecord, textFields []string, topK int) []schema.RetrievalRecord {
	if len(records) == 0 || r.provider == nil {
		return records
	}
	k := topK
	if k <= 0 || k > len(records) {
		k = len(records)
	}

	prompt := buildRerankPrompt(query, records[:k], textFields)
	raw, err := r.provider.GenerateText(ctx, llm.GenRequest{
		Prompt:      prompt,
		Temperature: 0.01,
		MaxTokens:   512,
		Tier:        llm.TierFast,
	})
	if err != nil {
		logger.Warnf("rerank: generation failed, keeping original order: %v", err)
		return records
	}

	scoreMap, err := parseRerankScores(raw)
	if err != nil {
		logger.Warnf("rerank: unparseable scores, keeping original order: %v", err)
		return records
	}

	out := make([]schema.RetrievalRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return rerankKey(out[i], scoreMap) > rerankKey(out[j], scoreMap)
	})
	return out
}

func rerankKey(r schema.RetrievalRecord, scores map[string]float64) float64 {
	if s, ok := scores[r.ID]; ok {
		return s
	}
	return r.Relevance
}

func buildRerankPrompt(query string, records []schema.RetrievalRecord, textFields []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", query)
	b.WriteString("You are a strict scoring function. For the given user query, score each item " +
		"for relevance between 0.0 and 1.0 (float). Return ONLY a JSON array with objects " +
		`{"id": string, "score": number}. No extra text.` + "\n\nItems to score:\n")
	for i, rec := range records {
		text := rec.Abstract
		for _, f := range textFields {
			if v := rec.Fields[f]; v != "" {
				text = v
				break
			}
		}
		fmt.Fprintf(&b, "%d. id=%s\nTitle: %s\nText: %s\n\n",
			i+1, rec.ID, truncateText(rec.Title, 120), truncateText(text, 600))
	}
	return b.String()
}

// parseRerankScores tolerates prose around the JSON array by extracting
// the outermost brackets.
func parseRerankScores(raw string) (map[string]float64, error) {
	lb := strings.Index(raw, "[")
	rb := strings.LastIndex(raw, "]")
	if lb == -1 || rb <= lb {
		return nil, fmt.Errorf("%w: no JSON array in rerank output", schema.ErrMalformedOutput)
	}
	var items []scoredItem
	if err := json.Unmarshal([]byte(raw[lb:rb+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedOutput, err)
	}
	scores := make(map[string]float64, len(items))
	for _, it := range items {
		if it.ID != "" {
			scores[it.ID] = it.Score
		}
	}
	return scores, nil
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
