package driving

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// credentials applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings. API keys are never written.
	Save(settings *domain.AppSettings) error

	// Set updates a single configuration key.
	Set(key string, value string) error

	// SetLLMProvider configures the generation provider and model.
	SetLLMProvider(provider domain.AIProvider, model string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks that every required credential and value is set.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured generation provider.
	ValidateLLMConfig(ctx context.Context) error
}
