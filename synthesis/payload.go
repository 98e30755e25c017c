package synthesis

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/schema"
)

const (
	defaultPayloadBudget = 6000
	encodingName         = "cl100k_base"
)

// PayloadBuilder assembles the synthesis prompt from retrieved evidence,
// bounded by a token budget so the downstream generation call never
// overflows its context window.
type PayloadBuilder struct {
	budget  int
	encoder *tiktoken.Tiktoken
}

// NewPayloadBuilder creates a builder with the given token budget
// (defaulted when non-positive). The tokenizer is loaded once; if it
// cannot be, token counts fall back to a bytes/4 estimate.
func NewPayloadBuilder(budget int) *PayloadBuilder {
	if budget <= 0 {
		budget = defaultPayloadBudget
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		logger.Warnf("tokenizer %s unavailable, using byte estimate: %v", encodingName, err)
		enc = nil
	}
	return &PayloadBuilder{budget: budget, encoder: enc}
}

func (p *PayloadBuilder) countTokens(text string) int {
	if p.encoder != nil {
		return len(p.encoder.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// Build produces the evidence-grounded synthesis prompt. Evidence items
// are numbered globally so the answer can cite them as [1], [2], etc.
// Sections are appended source by source until the budget is exhausted;
// at least one evidence item is always included when any exists.
func (p *PayloadBuilder) Build(query string, outcomes map[schema.SourceType]schema.AgentOutcome, assessment schema.ConfidenceAssessment, history schema.History) string {
	var b strings.Builder
	b.WriteString("You are a medical information assistant. Answer the question using ONLY the " +
		"numbered evidence below. Cite evidence items as [n]. If the evidence is insufficient, " +
		"say so explicitly. Do not give personal medical advice.\n\n")

	if user, assistant, ok := history.LastExchange(); ok {
		fmt.Fprintf(&b, "Previous question: %s\n", user.Content)
		if assistant.Content != "" {
			fmt.Fprintf(&b, "Previous answer: %s\n", clip(assistant.Content, 400))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", query)

	used := p.countTokens(b.String())
	item := 0
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		outcome, ok := outcomes[src]
		if !ok || outcome.Empty() {
			continue
		}
		header := fmt.Sprintf("=== %s ===\n", sectionTitle(src, outcome.Origin))
		headerWritten := false
		for _, rec := range outcome.Records {
			entry := formatEvidence(item+1, src, rec)
			cost := p.countTokens(entry)
			if !headerWritten {
				cost += p.countTokens(header)
			}
			if used+cost > p.budget && item > 0 {
				break
			}
			if !headerWritten {
				b.WriteString(header)
				headerWritten = true
			}
			b.WriteString(entry)
			used += cost
			item++
		}
		if headerWritten {
			b.WriteString("\n")
		}
	}

	b.WriteString(confidenceGuidance(assessment))
	return b.String()
}

func sectionTitle(src schema.SourceType, origin schema.DataOrigin) string {
	var title string
	switch src {
	case schema.SourcePubMed:
		title = "PUBLISHED LITERATURE"
	case schema.SourceTrial:
		title = "CLINICAL TRIALS"
	case schema.SourceDrug:
		title = "DRUG LABELS"
	default:
		title = strings.ToUpper(string(src))
	}
	if origin == schema.OriginSynthetic {
		title += " (representative examples, live index unavailable)"
	}
	return title
}

func formatEvidence(n int, src schema.SourceType, rec schema.RetrievalRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", n, rec.Title)
	if rec.Date != "" {
		fmt.Fprintf(&b, " (%s)", rec.Date)
	}
	b.WriteString("\n")
	switch src {
	case schema.SourceTrial:
		if phase := rec.Fields["phase"]; phase != "" {
			fmt.Fprintf(&b, "Phase: %s  Status: %s\n", phase, rec.Fields["status"])
		}
		fmt.Fprintf(&b, "%s\n", clip(rec.Abstract, 400))
	case schema.SourceDrug:
		if generic := rec.Fields["generic_name"]; generic != "" {
			fmt.Fprintf(&b, "Generic: %s\n", generic)
		}
		fmt.Fprintf(&b, "%s\n", clip(rec.Abstract, 400))
	default:
		fmt.Fprintf(&b, "%s\n", clip(rec.Abstract, 500))
	}
	b.WriteString("\n")
	return b.String()
}

func confidenceGuidance(a schema.ConfidenceAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evidence confidence: %s (score %.2f).\n", a.Band, a.Score)
	switch a.Band {
	case schema.BandLow:
		b.WriteString("The evidence base is thin. Hedge conclusions and recommend consulting a clinician.\n")
	case schema.BandMedium:
		b.WriteString("Moderate evidence. Note remaining uncertainty where relevant.\n")
	}
	if a.Conflicts {
		fmt.Fprintf(&b, "WARNING, sources conflict: %s Surface this disagreement in the answer.\n", a.ConflictSummary)
	}
	return b.String()
}

// NoEvidencePayload is the terminal message when every agent came back
// empty. Corpus sizes show whether the indices themselves are empty or
// the query simply missed.
func NoEvidencePayload(query string, counts map[schema.SourceType]int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No evidence was found for the query %q.\n\nIndex status:\n", query)
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		if n, ok := counts[src]; ok {
			fmt.Fprintf(&b, "- %s: %d documents\n", src, n)
		} else {
			fmt.Fprintf(&b, "- %s: unavailable\n", src)
		}
	}
	b.WriteString("\nTry rephrasing the question or broadening the search terms.")
	return b.String()
}
