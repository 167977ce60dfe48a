package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// pinger is the part of a provider client that validation needs.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ConfigValidator checks provider settings before they are saved by building
// the client they describe and pinging it once.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithValidationTimeout bounds each provider ping.
func WithValidationTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator that waits up to pingTimeout per provider.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding reports whether the embedding provider can be reached.
// Unset settings and the offline local embedder always pass.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || settings.Provider == "" || settings.Provider == domain.AIProviderLocal {
		return nil
	}
	if !settings.Provider.CanEmbed() {
		return fmt.Errorf("%w: %s cannot embed", domain.ErrUnsupportedProvider, settings.Provider)
	}
	if !settings.IsConfigured() {
		return fmt.Errorf("%s embedding requires an API key", settings.Provider)
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	return v.probe(settings.Provider, svc)
}

// ValidateLLM reports whether the summary provider's language model can be reached.
// Rule-based summaries need no model and always pass.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.Provider.UsesLLM() {
		return nil
	}
	if !settings.IsConfigured() {
		return fmt.Errorf("%s requires an API key", settings.Provider)
	}

	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	return v.probe(settings.Provider, svc)
}

func (v *ConfigValidator) probe(provider domain.AIProvider, svc pinger) error {
	defer svc.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", provider, err)
	}
	return nil
}
