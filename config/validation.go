package config

import (
	"fmt"
	"strings"

	"github.com/medsearch-ai/medsearch/schema"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Unwrap classifies every validation failure as fatal configuration, so
// errors.Is(err, schema.ErrFatalConfig) holds for callers applying the
// error taxonomy.
func (errs ValidationErrors) Unwrap() error {
	return schema.ErrFatalConfig
}

// Validate validates the complete configuration. A non-nil error means the
// engine cannot start; nothing here is recoverable mid-session.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateSearch()...)
	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateCache()...)
	errs = append(errs, c.validateRetrieval()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateSearch() ValidationErrors {
	var errs ValidationErrors

	if c.Search.Endpoint == "" {
		errs = append(errs, ValidationError{
			Field:   "search.endpoint",
			Message: "search backend endpoint is required",
		})
	}
	if c.Search.Indices.Literature == "" {
		errs = append(errs, ValidationError{
			Field:   "search.indices.literature",
			Message: "literature index name is required",
		})
	}
	if c.Search.Indices.Trials == "" {
		errs = append(errs, ValidationError{
			Field:   "search.indices.trials",
			Message: "trials index name is required",
		})
	}
	if c.Search.Indices.Drugs == "" {
		errs = append(errs, ValidationError{
			Field:   "search.indices.drugs",
			Message: "drugs index name is required",
		})
	}

	return errs
}

func (c *Config) validateLLM() ValidationErrors {
	var errs ValidationErrors

	if c.LLM.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "llm.model",
			Message: "generation model is required",
		})
	}
	if c.Embedding.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "embedding.model",
			Message: "embedding model is required",
		})
	}
	if c.Embedding.Dimensions < 128 || c.Embedding.Dimensions > 4096 {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions %d is outside typical range [128, 4096]", c.Embedding.Dimensions),
		})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "llm.temperature",
			Message: fmt.Sprintf("llm.temperature must be in [0, 2], got %.2f", c.LLM.Temperature),
		})
	}

	return errs
}

func (c *Config) validateCache() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.Cache.Provider) {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, ValidationError{
				Field:   "cache.redis_addr",
				Message: "redis address is required for redis cache provider",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "cache.provider",
			Message: fmt.Sprintf("unknown cache provider %q (want memory or redis)", c.Cache.Provider),
		})
	}

	switch strings.ToLower(c.Session.Provider) {
	case "memory":
	case "sqlite":
		if c.Session.Path == "" {
			errs = append(errs, ValidationError{
				Field:   "session.path",
				Message: "database path is required for sqlite session provider",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "session.provider",
			Message: fmt.Sprintf("unknown session provider %q (want memory or sqlite)", c.Session.Provider),
		})
	}

	return errs
}

func (c *Config) validateRetrieval() ValidationErrors {
	var errs ValidationErrors

	if c.Retrieval.MaxResults > 100 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.max_results",
			Message: fmt.Sprintf("retrieval.max_results %d is too large (max recommended: 100)", c.Retrieval.MaxResults),
		})
	}
	switch strings.ToLower(c.Retrieval.Strategy) {
	case "weighted", "rrf":
	default:
		errs = append(errs, ValidationError{
			Field:   "retrieval.strategy",
			Message: fmt.Sprintf("unknown fusion strategy %q (want weighted or rrf)", c.Retrieval.Strategy),
		})
	}
	if c.Retrieval.RRFK < 0 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.rrf_k",
			Message: fmt.Sprintf("retrieval.rrf_k must be non-negative, got %d", c.Retrieval.RRFK),
		})
	}

	return errs
}
