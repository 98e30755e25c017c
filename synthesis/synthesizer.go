package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/llm"
	"github.com/medsearch-ai/medsearch/schema"
)

// Synthesizer turns retrieved evidence into a grounded natural-language
// answer. Generation failures degrade to an extractive summary so the
// caller always gets a usable response body.
type Synthesizer struct {
	provider llm.Provider
	builder  *PayloadBuilder
}

// NewSynthesizer wires the generation backend and prompt builder.
func NewSynthesizer(provider llm.Provider, builder *PayloadBuilder) *Synthesizer {
	if builder == nil {
		builder = NewPayloadBuilder(0)
	}
	return &Synthesizer{provider: provider, builder: builder}
}

// Synthesize generates the answer from the evidence payload. Comparative
// or multi-entity queries run on the escalated tier.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, intent *schema.Intent, outcomes map[schema.SourceType]schema.AgentOutcome, assessment schema.ConfidenceAssessment, history schema.History) (string, error) {
	payload := s.builder.Build(query, outcomes, assessment, history)

	tier := llm.TierFast
	var entities map[string][]string
	if intent != nil {
		entities = intent.Entities
	}
	if ShouldEscalate(query, entities) {
		tier = llm.TierEscalated
	}

	answer, err := s.provider.GenerateText(ctx, llm.GenRequest{
		Prompt:      payload,
		Temperature: 0.3,
		Tier:        tier,
	})
	if err != nil {
		logger.Warnf("synthesis generation failed, using extractive fallback: %v", err)
		return extractiveSummary(query, outcomes), fmt.Errorf("synthesis degraded: %w", err)
	}
	return answer, nil
}

// extractiveSummary lists top titles per source when generation is down.
func extractiveSummary(query string, outcomes map[schema.SourceType]schema.AgentOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "An answer could not be generated for %q, but the following evidence was retrieved:\n\n", query)
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		outcome, ok := outcomes[src]
		if !ok || outcome.Empty() {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", sectionTitle(src, outcome.Origin))
		limit := len(outcome.Records)
		if limit > 3 {
			limit = 3
		}
		for _, rec := range outcome.Records[:limit] {
			fmt.Fprintf(&b, "- %s\n", rec.Title)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
