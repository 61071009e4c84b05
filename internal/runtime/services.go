package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Services holds references to dynamically configurable services.
// AI services (embedding, analysis) can be swapped at runtime.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	embeddingService driven.EmbeddingService
	analysisService  driven.AnalysisService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// AnalysisService returns the current analysis provider (may be nil)
func (s *Services) AnalysisService() driven.AnalysisService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysisService
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetAnalysisService updates the analysis provider.
// Closes the old service if present. Updates config flags.
func (s *Services) SetAnalysisService(svc driven.AnalysisService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analysisService != nil {
		_ = s.analysisService.Close()
	}

	s.analysisService = svc
	s.config.SetAnalysisAvailable(svc != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.analysisService != nil {
		_ = s.analysisService.Close()
		s.analysisService = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetAnalysisAvailable(false)

	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting the embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetAnalysis validates connectivity before setting the analysis provider
func (s *Services) ValidateAndSetAnalysis(ctx context.Context, svc driven.AnalysisService) error {
	if svc == nil {
		s.SetAnalysisService(nil)
		return nil
	}

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetAnalysisService(svc)
	return nil
}
