package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/llm"
	"github.com/medsearch-ai/medsearch/schema"
)

// ConflictDetector asks the generation backend whether the retrieved
// evidence contradicts itself. The signal is advisory: any failure in the
// call or the parse reports "no conflicts" and the pipeline continues.
type ConflictDetector struct {
	provider llm.Provider
}

// NewConflictDetector builds a detector over the generation backend.
func NewConflictDetector(provider llm.Provider) *ConflictDetector {
	return &ConflictDetector{provider: provider}
}

type conflictVerdict struct {
	Conflicts bool   `json:"conflicts"`
	Summary   string `json:"summary"`
}

// Detect inspects up to three records per source for contradictory
// findings. Returns (false, "") when the provider is absent, errors, or
// produces unparseable output.
func (d *ConflictDetector) Detect(ctx context.Context, query string, outcomes map[schema.SourceType]schema.AgentOutcome) (bool, string) {
	if d == nil || d.provider == nil {
		return false, ""
	}
	prompt := buildConflictPrompt(query, outcomes)
	if prompt == "" {
		return false, ""
	}

	raw, err := d.provider.GenerateText(ctx, llm.GenRequest{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   300,
		Tier:        llm.TierFast,
	})
	if err != nil {
		logger.Warnf("conflict detection failed, assuming none: %v", err)
		return false, ""
	}

	verdict, err := parseConflictVerdict(raw)
	if err != nil {
		logger.Warnf("conflict verdict unparseable, assuming none: %v", err)
		return false, ""
	}
	if !verdict.Conflicts {
		return false, ""
	}
	return true, verdict.Summary
}

func buildConflictPrompt(query string, outcomes map[schema.SourceType]schema.AgentOutcome) string {
	var b strings.Builder
	var items int
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		outcome, ok := outcomes[src]
		if !ok || outcome.Empty() {
			continue
		}
		limit := len(outcome.Records)
		if limit > 3 {
			limit = 3
		}
		fmt.Fprintf(&b, "Source: %s\n", src)
		for _, rec := range outcome.Records[:limit] {
			items++
			fmt.Fprintf(&b, "- %s: %s\n", rec.Title, clip(rec.Abstract, 300))
		}
		b.WriteString("\n")
	}
	if items < 2 {
		return ""
	}

	return fmt.Sprintf(`Review the following evidence retrieved for the medical query %q.
Determine whether any of the findings contradict each other in a way a
clinician should be warned about (opposing efficacy conclusions, conflicting
safety signals, incompatible dosing guidance).

%s
Respond with ONLY a JSON object:
{"conflicts": true|false, "summary": "one-sentence description of the conflict, or empty string"}`,
		query, b.String())
}

func parseConflictVerdict(raw string) (*conflictVerdict, error) {
	lb := strings.Index(raw, "{")
	rb := strings.LastIndex(raw, "}")
	if lb == -1 || rb <= lb {
		return nil, fmt.Errorf("%w: no JSON object in conflict output", schema.ErrMalformedOutput)
	}
	var verdict conflictVerdict
	if err := json.Unmarshal([]byte(raw[lb:rb+1]), &verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedOutput, err)
	}
	return &verdict, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
