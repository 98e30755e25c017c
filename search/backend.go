package search

import (
	"context"

	"github.com/medsearch-ai/medsearch/schema"
)

// Hit is one raw result from the search backend, before normalization.
type Hit struct {
	ID     string
	Score  float64
	Source map[string]interface{}
}

// Str extracts a string field from the hit source.
func (h Hit) Str(key string) string {
	if v, ok := h.Source[key].(string); ok {
		return v
	}
	return ""
}

// Strs extracts a string-list field from the hit source.
func (h Hit) Strs(key string) []string {
	raw, ok := h.Source[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Backend is the lexical+vector search engine the agents retrieve from.
// Both retrieval modes run against the same index and filter set, so they
// can be issued independently and fused afterwards.
type Backend interface {
	LexicalSearch(ctx context.Context, index, text string, fields []string, f schema.Filters, depth int) ([]Hit, error)
	VectorSearch(ctx context.Context, index string, vector []float32, f schema.Filters, depth int) ([]Hit, error)
	Count(ctx context.Context, index string) (int64, error)
}
