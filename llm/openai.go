package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/schema"
)

// OpenAIProvider implements Provider against an OpenAI-compatible API.
type OpenAIProvider struct {
	client         openai.Client
	model          string
	escalatedModel string
	embedModel     string
	dimensions     int
	temperature    float64
	maxTokens      int
}

// NewOpenAI builds a provider from configuration.
func NewOpenAI(llmCfg config.LLMConfig, embCfg config.EmbeddingConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(llmCfg.APIKey)}
	if llmCfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(llmCfg.BaseURL))
	}
	return &OpenAIProvider{
		client:         openai.NewClient(opts...),
		model:          llmCfg.Model,
		escalatedModel: llmCfg.EscalatedModel,
		embedModel:     embCfg.Model,
		dimensions:     embCfg.Dimensions,
		temperature:    llmCfg.Temperature,
		maxTokens:      llmCfg.MaxTokens,
	}
}

// GenerateText runs one chat completion. Tier selects the model.
func (p *OpenAIProvider) GenerateText(ctx context.Context, req GenRequest) (string, error) {
	model := p.model
	if req.Tier == TierEscalated && p.escalatedModel != "" {
		model = p.escalatedModel
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: completion with %s: %v", schema.ErrTimeout, model, err)
		}
		return "", fmt.Errorf("%w: completion with %s: %v", schema.ErrUpstreamUnavailable, model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", schema.ErrMalformedOutput)
	}
	logger.Debugf("llm: completion via %s (%d prompt chars)", model, len(req.Prompt))
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for one text. The mode is advisory;
// OpenAI-compatible backends use a single embedding space for queries and
// documents.
func (p *OpenAIProvider) Embed(ctx context.Context, text string, _ EmbedMode) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(p.embedModel),
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Dimensions: openai.Int(int64(p.dimensions)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding: %v", schema.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: embedding: %v", schema.ErrUpstreamUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: embedding returned no data", schema.ErrMalformedOutput)
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
