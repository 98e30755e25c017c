package router

import (
	"context"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/schema"
)

// Router classifies a query into an intent, extracts entities and selects
// the specialist agents to invoke.
type Router interface {
	Route(ctx context.Context, query string, history schema.History) (*schema.Intent, error)
}

// selectAgents maps an intent kind onto the agent invocation list.
// General walks all three, literature first.
func selectAgents(kind schema.IntentKind) []schema.SourceType {
	switch kind {
	case schema.IntentLiterature:
		return []schema.SourceType{schema.SourcePubMed}
	case schema.IntentTrial:
		return []schema.SourceType{schema.SourceTrial}
	case schema.IntentDrug:
		return []schema.SourceType{schema.SourceDrug}
	default:
		return []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug}
	}
}

// Composite tries the primary router and falls back on failure or nil
// decision. The heuristic fallback always succeeds, so it is the system's
// availability floor.
type Composite struct {
	Primary  Router
	Fallback Router
}

// NewComposite creates a two-stage router.
func NewComposite(primary, fallback Router) *Composite {
	if fallback == nil {
		fallback = NewHeuristic()
	}
	return &Composite{Primary: primary, Fallback: fallback}
}

func (r *Composite) Route(ctx context.Context, query string, history schema.History) (*schema.Intent, error) {
	if r.Primary != nil {
		intent, err := r.Primary.Route(ctx, query, history)
		if err == nil && intent != nil {
			logger.Infof("router: primary decision intent=%s confidence=%.2f", intent.Kind, intent.Confidence)
			return intent, nil
		}
		logger.Warnf("router: primary failed (%v), using heuristic fallback", err)
	}
	return r.Fallback.Route(ctx, query, history)
}
