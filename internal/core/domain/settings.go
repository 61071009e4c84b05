package domain

// AIProvider identifies an external AI provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderGemini AIProvider = "gemini"
)

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGemini:
		return true
	}
	return false
}

// AnalysisMode selects how the generative collaborator runs
type AnalysisMode string

const (
	// AnalysisModeSimulation returns deterministic canned claims, no network
	AnalysisModeSimulation AnalysisMode = "simulation"
	// AnalysisModeLive calls the configured provider
	AnalysisModeLive AnalysisMode = "live"
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// AnalysisSettings configures the generative analysis provider
type AnalysisSettings struct {
	Mode     AnalysisMode `json:"mode"`
	Provider AIProvider   `json:"provider"`
	Model    string       `json:"model"`
	APIKey   string       `json:"-"` // Never serialize to JSON
	BaseURL  string       `json:"base_url,omitempty"`
}

// IsConfigured returns true if analysis settings are properly configured.
// Simulation mode needs no provider credentials.
func (a *AnalysisSettings) IsConfigured() bool {
	if a.Mode == AnalysisModeSimulation {
		return true
	}
	if a.Provider == "" {
		return false
	}
	if a.Provider.RequiresAPIKey() && a.APIKey == "" {
		return false
	}
	return true
}
