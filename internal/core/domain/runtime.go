package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// This is determined at startup and can be updated dynamically for AI services.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	QueueBackend string // "redis" or "postgres"

	// Dynamic capability flags (updated when AI services change)
	embeddingAvailable bool
	analysisAvailable  bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(queueBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		QueueBackend: queueBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// AnalysisAvailable returns whether the analysis service is available
func (c *RuntimeConfig) AnalysisAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.analysisAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetAnalysisAvailable updates the analysis availability flag
func (c *RuntimeConfig) SetAnalysisAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analysisAvailable = available
}

// CanIndex returns true if documents can be embedded and indexed
func (c *RuntimeConfig) CanIndex() bool {
	return c.EmbeddingAvailable()
}

// CanAnalyse returns true if runs can invoke the generative provider
func (c *RuntimeConfig) CanAnalyse() bool {
	return c.AnalysisAvailable()
}
