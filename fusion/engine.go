package fusion

import (
	"context"
	"fmt"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/search"
)

// Engine issues the lexical and vector searches for one query and fuses
// the two independently ranked lists into one.
type Engine struct {
	backend search.Backend
}

// NewEngine builds a fusion engine over a search backend.
func NewEngine(backend search.Backend) *Engine {
	return &Engine{backend: backend}
}

// Fuse runs both retrieval modes at max(2*size, 50) depth and combines
// them with the selected strategy. The lexical query text is expanded for
// known abbreviations; the vector query is never touched.
//
// When exactly one mode fails, Fuse returns the surviving list together
// with a non-nil error describing the failed mode. Callers can tell the
// degraded case from total failure by checking for candidates.
func (e *Engine) Fuse(ctx context.Context, p Params) ([]Candidate, error) {
	if p.Size <= 0 {
		p.Size = 5
	}
	depth := p.Size * 2
	if depth < 50 {
		depth = 50
	}

	lexText := ExpandAbbreviations(p.Text)

	lexHits, lexErr := e.backend.LexicalSearch(ctx, p.Index, lexText, p.Fields, p.Filters, depth)
	vecHits, vecErr := e.backend.VectorSearch(ctx, p.Index, p.Vector, p.Filters, depth)
	if lexErr != nil && vecErr != nil {
		return nil, fmt.Errorf("both retrieval modes failed: lexical: %v; vector: %w", lexErr, vecErr)
	}
	var degraded error
	if lexErr != nil {
		logger.Warnf("fusion: lexical search failed on %s, vector only: %v", p.Index, lexErr)
		degraded = fmt.Errorf("lexical search degraded on %s: %w", p.Index, lexErr)
	}
	if vecErr != nil {
		logger.Warnf("fusion: vector search failed on %s, lexical only: %v", p.Index, vecErr)
		degraded = fmt.Errorf("vector search degraded on %s: %w", p.Index, vecErr)
	}

	lex := rankMap(lexHits)
	vec := rankMap(vecHits)

	var fused []Candidate
	switch p.Strategy {
	case StrategyRRF:
		fused = fuseRRF(lex, vec, p.RRFK)
	default:
		fused = fuseWeighted(lex, vec, p.LexicalWeight, p.VectorWeight)
	}

	if len(fused) > p.Size {
		fused = fused[:p.Size]
	}
	logger.Debugf("fusion: %s strategy on %s: %d lexical + %d vector -> %d fused",
		strategyName(p.Strategy), p.Index, len(lexHits), len(vecHits), len(fused))
	return fused, degraded
}

func strategyName(s string) string {
	if s == StrategyRRF {
		return StrategyRRF
	}
	return StrategyWeighted
}
