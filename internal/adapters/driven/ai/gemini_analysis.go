package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Ensure GeminiAnalysis implements AnalysisService
var _ driven.AnalysisService = (*GeminiAnalysis)(nil)

const (
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// Published per-token prices, used for the run cost estimate
	geminiInputCostPerToken  = 0.075 / 1_000_000
	geminiOutputCostPerToken = 0.30 / 1_000_000
)

// GeminiAnalysis implements AnalysisService against the Gemini REST API
type GeminiAnalysis struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiAnalysis creates a live Gemini-backed analysis provider
func NewGeminiAnalysis(apiKey, model, baseURL string) (driven.AnalysisService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	return &GeminiAnalysis{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Request/response shapes for the generateContent endpoint

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// AnalyseDocument asks Gemini for a structured claim about one document.
// JSON output mode is requested; a response that still fails the claim
// schema is returned as a draft with only Raw populated.
func (g *GeminiAnalysis) AnalyseDocument(ctx context.Context, req driven.AnalysisRequest) (*domain.ClaimDraft, domain.Usage, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: systemPrompt}}},
			{Role: "user", Parts: []geminiPart{{Text: buildPrompt(req)}}},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.1,
		},
	}

	resp, err := g.generateContent(ctx, body)
	if err != nil {
		return nil, domain.Usage{}, err
	}

	usage := domain.Usage{
		TokensIn:  resp.UsageMetadata.PromptTokenCount,
		TokensOut: resp.UsageMetadata.CandidatesTokenCount,
	}
	usage.Cost = float64(usage.TokensIn)*geminiInputCostPerToken +
		float64(usage.TokensOut)*geminiOutputCostPerToken

	raw := extractText(resp)
	if raw == "" {
		return nil, usage, fmt.Errorf("%w: Gemini returned an empty response", domain.ErrServiceUnavailable)
	}

	return parseClaim(raw), usage, nil
}

// Mode returns "live"
func (g *GeminiAnalysis) Mode() string {
	return string(domain.AnalysisModeLive)
}

// Model returns the model name being used
func (g *GeminiAnalysis) Model() string {
	return g.model
}

// Ping verifies the provider is reachable with the configured credentials
func (g *GeminiAnalysis) Ping(ctx context.Context) error {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: "ping"}}},
		},
		GenerationConfig: geminiGenerationConfig{Temperature: 0},
	}
	_, err := g.generateContent(ctx, body)
	return err
}

// Close releases resources held by the provider
func (g *GeminiAnalysis) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

func (g *GeminiAnalysis) generateContent(ctx context.Context, reqBody geminiRequest) (*geminiResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if genResp.Error != nil {
		return nil, fmt.Errorf("Gemini API error: %s (status: %s, code: %d)",
			genResp.Error.Message, genResp.Error.Status, genResp.Error.Code)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API returned status %d", resp.StatusCode)
	}

	return &genResp, nil
}

// extractText pulls the first candidate's text out of the response
func extractText(resp *geminiResponse) string {
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}
