package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoragePath        = "storage.path"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyChunkSize          = "chunker.size"
	keyChunkOverlap       = "chunker.overlap"
	keySimilarity         = "synthesis.similarity_threshold"
	keyMaxPointsPerSource = "synthesis.max_points_per_source"
	keyMaxTotalPoints     = "synthesis.max_total_points"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvStoragePath       = "BOOKWISE_STORAGE_PATH"
	EnvEmbeddingProvider = "BOOKWISE_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "BOOKWISE_EMBEDDING_MODEL"
	EnvLLMProvider       = "BOOKWISE_LLM_PROVIDER"
	EnvLLMModel          = "BOOKWISE_LLM_MODEL"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	EnvOllamaHost        = "OLLAMA_HOST"
)

// DefaultOllamaURL is used for Ollama when no base URL is configured.
const DefaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore        driven.ConfigStore
	aiValidator        driven.AIConfigValidator
	defaultStoragePath string
	getenv             func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetDefaultStoragePath sets the library root used when none is configured.
func (s *SettingsService) SetDefaultStoragePath(path string) {
	s.defaultStoragePath = path
}

// Get retrieves current application settings, with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store alone.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := s.GetDefaults()

	return &domain.AppSettings{
		Storage: domain.StorageSettings{
			Path: s.getString(keyStoragePath, defaults.Storage.Path),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Synthesis: domain.SynthesisSettings{
			SimilarityThreshold: s.getFloat(keySimilarity, defaults.Synthesis.SimilarityThreshold),
			MaxPointsPerSource:  s.getInt(keyMaxPointsPerSource, defaults.Synthesis.MaxPointsPerSource),
			MaxTotalPoints:      s.getInt(keyMaxTotalPoints, defaults.Synthesis.MaxTotalPoints),
		},
	}
}

// applyEnv overlays environment variables. API keys and the Ollama host
// only fill values that are not configured.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v := s.getenv(EnvStoragePath); v != "" {
		settings.Storage.Path = v
	}
	if p := domain.AIProvider(s.getenv(EnvEmbeddingProvider)); p.CanEmbed() {
		settings.Embedding.Provider = p
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[p]
	}
	if v := s.getenv(EnvEmbeddingModel); v != "" {
		settings.Embedding.Model = v
	}
	if p := domain.AIProvider(s.getenv(EnvLLMProvider)); p.IsValid() {
		settings.LLM.Provider = p
		settings.LLM.Model = domain.DefaultLLMModels()[p]
	}
	if v := s.getenv(EnvLLMModel); v != "" {
		settings.LLM.Model = v
	}

	settings.Embedding.APIKey = firstNonEmpty(settings.Embedding.APIKey, s.envAPIKey(settings.Embedding.Provider))
	settings.LLM.APIKey = firstNonEmpty(settings.LLM.APIKey, s.envAPIKey(settings.LLM.Provider))

	if host := s.getenv(EnvOllamaHost); host != "" {
		if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = host
		}
		if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = host
		}
	}
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStoragePath, settings.Storage.Path},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keySimilarity, settings.Synthesis.SimilarityThreshold},
		{keyMaxPointsPerSource, settings.Synthesis.MaxPointsPerSource},
		{keyMaxTotalPoints, settings.Synthesis.MaxTotalPoints},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when set, and cleared when the provider no longer needs one.
	if err := s.saveAPIKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	return s.saveAPIKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey)
}

func (s *SettingsService) saveAPIKey(key string, provider domain.AIProvider, apiKey string) error {
	if !provider.RequiresAPIKey() {
		if _, exists := s.configStore.Get(key); exists {
			if err := s.configStore.Delete(key); err != nil {
				return fmt.Errorf("clear %s: %w", key, err)
			}
		}
		return nil
	}
	if apiKey == "" {
		return nil
	}
	if err := s.configStore.Set(key, apiKey); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetStoragePath changes the library root.
func (s *SettingsService) SetStoragePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: storage path is empty", domain.ErrInvalidInput)
	}
	settings := s.stored()
	settings.Storage.Path = path
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !provider.CanEmbed() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrUnsupportedProvider, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	settings.Embedding.BaseURL = resolveBaseURL(provider, baseURL, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the chapter-summary provider.
// The local provider has no language model and maps to rule-based.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider == domain.AIProviderLocal {
		provider = domain.AIProviderRuleBased
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider

	switch {
	case !provider.UsesLLM():
		settings.LLM.Model = ""
	case model != "":
		settings.LLM.Model = model
	default:
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	settings.LLM.BaseURL = resolveBaseURL(provider, baseURL, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// resolveBaseURL keeps an explicit URL, defaults Ollama to localhost and
// clears the URL for providers that do not take one.
func resolveBaseURL(provider domain.AIProvider, requested, current string) string {
	switch provider {
	case domain.AIProviderOllama:
		return firstNonEmpty(requested, current, DefaultOllamaURL)
	case domain.AIProviderOpenAI:
		// OpenAI-compatible servers need a custom URL; the public API does not.
		return requested
	default:
		return ""
	}
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is not set", domain.ErrInvalidInput)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider.UsesLLM() && !settings.LLM.IsConfigured() {
		return fmt.Errorf("summary provider %q is not configured", settings.LLM.Provider)
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, settings.Chunking.Size)
	}
	if settings.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidInput, settings.Chunking.Overlap)
	}
	if t := settings.Synthesis.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: similarity threshold must be in (0, 1], got %g", domain.ErrInvalidInput, t)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	defaults.Storage.Path = s.defaultStoragePath
	return defaults
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
