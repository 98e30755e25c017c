package llm

import "context"

// EmbedMode distinguishes retrieval-query embeddings from document
// embeddings on backends that treat them differently. Document mode is
// only used by ingestion tooling.
type EmbedMode string

const (
	EmbedQuery    EmbedMode = "query"
	EmbedDocument EmbedMode = "document"
)

// Tier selects the generation model tier.
type Tier string

const (
	TierFast      Tier = "fast"
	TierEscalated Tier = "escalated"
)

// GenRequest is one text-generation call.
type GenRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
	Tier        Tier
}

// Provider is the generation backend consumed by the engine.
type Provider interface {
	GenerateText(ctx context.Context, req GenRequest) (string, error)
	Embed(ctx context.Context, text string, mode EmbedMode) ([]float32, error)
}
