package fusion

import (
	"github.com/medsearch-ai/medsearch/schema"
	"github.com/medsearch-ai/medsearch/search"
)

// Strategy names selectable per fusion call.
const (
	StrategyWeighted = "weighted"
	StrategyRRF      = "rrf"
)

// DefaultRRFK is the reciprocal-rank constant.
const DefaultRRFK = 60

// Params describes one fusion call.
type Params struct {
	Index         string
	Text          string
	Vector        []float32
	Fields        []string // boosted lexical fields, e.g. "title^2"
	Filters       schema.Filters
	Size          int
	LexicalWeight float64
	VectorWeight  float64
	Strategy      string
	RRFK          int
}

// Candidate is one fused result. Lexical and vector rank/score are kept so
// callers can normalize relevance independently of the fused ordering.
type Candidate struct {
	ID       string
	Hit      search.Hit
	LexScore float64
	LexRank  int // 1-based, 0 when absent from the lexical list
	VecScore float64
	VecRank  int // 1-based, 0 when absent from the vector list
	Score    float64
}

// rankEntry is one side's view of a document during fusion.
type rankEntry struct {
	hit   search.Hit
	score float64
	rank  int // 1-based
}

// rankMap indexes one retrieval mode's results by document id.
func rankMap(hits []search.Hit) map[string]rankEntry {
	m := make(map[string]rankEntry, len(hits))
	rank := 0
	for _, h := range hits {
		if h.ID == "" {
			continue
		}
		if _, seen := m[h.ID]; seen {
			continue
		}
		rank++
		m[h.ID] = rankEntry{hit: h, score: h.Score, rank: rank}
	}
	return m
}
