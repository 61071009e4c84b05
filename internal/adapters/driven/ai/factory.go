package ai

import (
	"fmt"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Factory creates AI services from settings. Unconfigured settings yield a
// nil service without error; the runtime registry treats nil as "absent".
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateAnalysisService creates a generative analysis provider from settings.
// Simulation mode needs no credentials and is the default when no mode is set.
func (f *Factory) CreateAnalysisService(settings *domain.AnalysisSettings) (driven.AnalysisService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	if settings.Mode != domain.AnalysisModeLive {
		return NewSimulationAnalysis(), nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return NewGeminiAnalysis(settings.APIKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
