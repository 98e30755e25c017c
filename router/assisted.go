package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/medsearch-ai/medsearch/llm"
	"github.com/medsearch-ai/medsearch/schema"
)

// Assisted classifies with a structured-output generation call. It also
// rewrites elliptical follow-ups into standalone queries using the last
// exchange from the conversation history. Errors and unparseable output
// surface to the composite router, which falls back to the heuristic.
type Assisted struct {
	provider llm.Provider
}

// NewAssisted creates the AI-assisted router.
func NewAssisted(provider llm.Provider) *Assisted {
	return &Assisted{provider: provider}
}

type analysisPayload struct {
	Intent        string              `json:"intent"`
	Entities      map[string][]string `json:"entities"`
	ExpandedQuery string              `json:"expanded_query"`
	Confidence    float64             `json:"confidence"`
}

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

func (a *Assisted) Route(ctx context.Context, query string, history schema.History) (*schema.Intent, error) {
	raw, err := a.provider.GenerateText(ctx, llm.GenRequest{
		Prompt:      buildAnalysisPrompt(query, history),
		Temperature: 0.1,
		MaxTokens:   500,
		Tier:        llm.TierFast,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}

	kind := intentFromLabel(payload.Intent)
	rewritten := payload.ExpandedQuery
	if rewritten == "" {
		rewritten = query
	}
	confidence := payload.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}
	return &schema.Intent{
		Kind:           kind,
		Confidence:     confidence,
		Entities:       payload.Entities,
		SelectedAgents: selectAgents(kind),
		RewrittenQuery: rewritten,
	}, nil
}

func buildAnalysisPrompt(query string, history schema.History) string {
	var b strings.Builder
	if user, assistant, ok := history.LastExchange(); ok {
		fmt.Fprintf(&b, "CONVERSATION CONTEXT:\nPrevious Question: %q\n", user.Content)
		if assistant.Content != "" {
			fmt.Fprintf(&b, "Previous Answer Summary: %q\n", truncate(assistant.Content, 300))
		}
		b.WriteString("\nThe current query may be a follow-up. If it uses pronouns or elliptical " +
			"phrasing without clear antecedents, interpret it in the context above.\n\n")
	}

	fmt.Fprintf(&b, `Analyze the following medical query and extract:
1. Intent: classify as one of [literature, trial, drug, general]
2. Entities: diseases, drugs, procedures, symptoms
3. Expanded query: if this is a follow-up, expand it to be standalone using context

Query: %q

Respond in JSON format:
{
    "intent": "literature|trial|drug|general",
    "entities": {"diseases": [], "drugs": [], "procedures": [], "symptoms": []},
    "expanded_query": "standalone version of the query, or the original if not a follow-up",
    "confidence": 0.95
}`, query)
	return b.String()
}

// parseAnalysis tolerates markdown fences and prose around the JSON object.
func parseAnalysis(raw string) (*analysisPayload, error) {
	jsonStr := raw
	if m := codeFenceRe.FindStringSubmatch(raw); len(m) == 2 {
		jsonStr = m[1]
	} else {
		lb := strings.Index(raw, "{")
		rb := strings.LastIndex(raw, "}")
		if lb == -1 || rb <= lb {
			return nil, fmt.Errorf("%w: no JSON object in analysis output", schema.ErrMalformedOutput)
		}
		jsonStr = raw[lb : rb+1]
	}
	var payload analysisPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedOutput, err)
	}
	return &payload, nil
}

func intentFromLabel(label string) schema.IntentKind {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "literature", "research":
		return schema.IntentLiterature
	case "trial", "clinical_trial", "trials":
		return schema.IntentTrial
	case "drug", "drug_info":
		return schema.IntentDrug
	default:
		return schema.IntentGeneral
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
