package driven

import "github.com/custodia-labs/bookwise/internal/core/domain"

// AIConfigValidator checks provider settings before the settings commands save them.
type AIConfigValidator interface {
	// ValidateEmbedding fails when the embedding provider cannot embed, lacks
	// a required API key, or does not answer a ping.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM fails when the summary provider's language model is
	// misconfigured or unreachable. Rule-based summaries always pass.
	ValidateLLM(settings *domain.LLMSettings) error
}
