// Package ai provides factory functions for creating AI service adapters.
// The provider for each capability is chosen once, here, at construction time.
package ai

import (
	"context"
	"fmt"
	"time"

	localembed "github.com/custodia-labs/bookwise/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/bookwise/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/bookwise/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/bookwise/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/bookwise/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/bookwise/internal/adapters/driven/llm/openai"
	llmsummariser "github.com/custodia-labs/bookwise/internal/adapters/driven/summariser/llm"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/summariser/rulebased"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to provider errors shown to users.
const fixHint = "Run 'bookwise settings' to fix"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	Embedding  driven.EmbeddingService
	LLM        driven.LLMService // Nil when summaries are rule-based.
	Summariser driven.ChapterSummariser
	Warnings   []string // Non-fatal issues that caused fallback.
	FellBack   bool     // True if the summariser fell back to rule-based.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		r.Embedding.Close()
	}
	if r.LLM != nil {
		r.LLM.Close()
	}
}

// Init builds the embedding service and chapter summariser for the settings.
// An embedding failure is fatal.
// An unreachable LLM degrades to the rule-based summariser with a warning.
func Init(settings *domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	logger.Section("AI Services")

	embedding, err := NewEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w. %s", err, fixHint)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := embedding.Ping(ctx); err != nil {
		embedding.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	logger.Info("embedding: %s (%d dimensions)", embedding.ModelName(), embedding.Dimensions())

	result := &InitResult{Embedding: embedding}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("summariser: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	}

	if llm != nil {
		result.LLM = llm
		result.Summariser = llmsummariser.New(llm, settings.LLM.Provider, prompts)
	} else {
		result.Summariser = rulebased.New()
	}
	logger.Info("summariser: %s", result.Summariser.Provider())

	return result, nil
}

// NewEmbeddingService creates the embedding service for the settings without
// checking connectivity. Providers that cannot embed fail with
// domain.ErrUnsupportedProvider.
func NewEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrEmbeddingUnavailable)
	}
	if !settings.Provider.CanEmbed() {
		return nil, fmt.Errorf("%w: %s does not support embeddings, use local, ollama or openai",
			domain.ErrUnsupportedProvider, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrEmbeddingUnavailable, settings.Provider)
	}
	return CreateEmbeddingService(settings)
}

// NewChapterSummariser creates the summariser for the settings without
// checking connectivity. Providers without a language model summarise by rule.
func NewChapterSummariser(settings *domain.LLMSettings, prompts driven.PromptStore) (driven.ChapterSummariser, error) {
	llm, err := CreateLLMService(settings)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		return rulebased.New(), nil
	}
	return llmsummariser.New(llm, settings.Provider, prompts), nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(domain.EmbeddingDimensions()[settings.Model]), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		if settings.APIKey == "" {
			return nil, nil
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic, domain.AIProviderRuleBased:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use local, ollama or openai",
			domain.ErrUnsupportedProvider, settings.Provider)

	default:
		return nil, nil
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider does not use a language model.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}
