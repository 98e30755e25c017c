package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/medsearch-ai/medsearch/common/httpx"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/schema"
)

// Elastic talks to an Elasticsearch-compatible backend over plain HTTP.
// Endpoint example: http://es:9200
type Elastic struct {
	endpoint string
	username string
	password string
	indices  config.IndexNames
	client   *httpx.Client
}

// NewElastic builds a backend from configuration.
func NewElastic(cfg config.SearchConfig) *Elastic {
	return &Elastic{
		endpoint: cfg.Endpoint,
		username: cfg.Username,
		password: cfg.Password,
		indices:  cfg.Indices,
		client:   httpx.NewFromConfig(cfg.HTTP),
	}
}

type esSearchRequest struct {
	Size  int                    `json:"size"`
	Query map[string]interface{} `json:"query"`
}

type esHit struct {
	ID     string                 `json:"_id"`
	Score  float64                `json:"_score"`
	Source map[string]interface{} `json:"_source"`
}
type esHits struct {
	Hits []esHit `json:"hits"`
}
type esSearchResponse struct {
	Hits esHits `json:"hits"`
}
type esCountResponse struct {
	Count int64 `json:"count"`
}

// LexicalSearch runs a multi_match term query over the given boosted fields.
func (e *Elastic) LexicalSearch(ctx context.Context, index, text string, fields []string, f schema.Filters, depth int) ([]Hit, error) {
	if len(fields) == 0 {
		fields = []string{"title^2", "abstract"}
	}
	query := map[string]interface{}{
		"multi_match": map[string]interface{}{
			"query":  text,
			"fields": fields,
			"type":   "best_fields",
		},
	}
	if must := e.filterClauses(index, f); len(must) > 0 {
		query = map[string]interface{}{
			"bool": map[string]interface{}{
				"must":                 must,
				"should":               []interface{}{query},
				"minimum_should_match": 1,
			},
		}
	}
	return e.search(ctx, index, esSearchRequest{Size: depth, Query: query})
}

// VectorSearch runs cosine-similarity scoring over the dense embedding field.
func (e *Elastic) VectorSearch(ctx context.Context, index string, vector []float32, f schema.Filters, depth int) ([]Hit, error) {
	inner := map[string]interface{}{"match_all": map[string]interface{}{}}
	if must := e.filterClauses(index, f); len(must) > 0 {
		inner = map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		}
	}
	query := map[string]interface{}{
		"script_score": map[string]interface{}{
			"query": inner,
			"script": map[string]interface{}{
				"source": "cosineSimilarity(params.query_vector, 'embedding') + 1.0",
				"params": map[string]interface{}{"query_vector": vector},
			},
		},
	}
	return e.search(ctx, index, esSearchRequest{Size: depth, Query: query})
}

// Count returns the number of documents in an index.
func (e *Elastic) Count(ctx context.Context, index string) (int64, error) {
	u, err := e.buildURL(index, "_count")
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	e.auth(req)
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", schema.ErrUpstreamUnavailable, index, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: count %s: status %d", schema.ErrUpstreamUnavailable, index, resp.StatusCode)
	}
	var cr esCountResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", schema.ErrMalformedOutput, index, err)
	}
	return cr.Count, nil
}

func (e *Elastic) search(ctx context.Context, index string, body esSearchRequest) ([]Hit, error) {
	bs, _ := json.Marshal(body)
	u, err := e.buildURL(index, "_search")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	e.auth(req)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", schema.ErrUpstreamUnavailable, index, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: search %s: status %d", schema.ErrUpstreamUnavailable, index, resp.StatusCode)
	}
	var esr esSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&esr); err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", schema.ErrMalformedOutput, index, err)
	}
	out := make([]Hit, 0, len(esr.Hits.Hits))
	for _, h := range esr.Hits.Hits {
		out = append(out, Hit{ID: h.ID, Score: h.Score, Source: h.Source})
	}
	return out, nil
}

// filterClauses maps the semantic date range onto the index's date field.
func (e *Elastic) filterClauses(index string, f schema.Filters) []interface{} {
	var must []interface{}
	if f.DateFrom != "" || f.DateTo != "" {
		dateField := "publication_date"
		switch index {
		case e.indices.Trials:
			dateField = "start_date"
		case e.indices.Drugs:
			dateField = "approval_date"
		}
		rng := map[string]interface{}{}
		if f.DateFrom != "" {
			rng["gte"] = f.DateFrom
		}
		if f.DateTo != "" {
			rng["lte"] = f.DateTo
		}
		must = append(must, map[string]interface{}{
			"range": map[string]interface{}{dateField: rng},
		})
	}
	if len(f.Categories) > 0 {
		must = append(must, map[string]interface{}{
			"terms": map[string]interface{}{"keywords": f.Categories},
		})
	}
	return must
}

func (e *Elastic) buildURL(index, op string) (string, error) {
	u, err := url.Parse(e.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: bad search endpoint %q: %v", schema.ErrFatalConfig, e.endpoint, err)
	}
	u.Path = path.Join(u.Path, index, op)
	return u.String(), nil
}

func (e *Elastic) auth(req *http.Request) {
	if e.username != "" {
		req.SetBasicAuth(e.username, e.password)
	}
}
