package mocks

import (
	"context"
	"strings"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// MockAnalysisService is a mock implementation of AnalysisService for testing
type MockAnalysisService struct {
	// NextErr, when set, is returned once by the next AnalyseDocument call
	NextErr error

	// MalformedNext makes the next call return a Raw-only draft
	MalformedNext bool

	// Claim overrides the canned claim when set
	Claim *domain.Claim

	// Usage returned alongside every successful call
	Usage domain.Usage

	// Requests records every request seen, for assertions
	Requests []driven.AnalysisRequest
}

// NewMockAnalysisService creates a new MockAnalysisService
func NewMockAnalysisService() *MockAnalysisService {
	return &MockAnalysisService{}
}

func (m *MockAnalysisService) AnalyseDocument(ctx context.Context, req driven.AnalysisRequest) (*domain.ClaimDraft, domain.Usage, error) {
	m.Requests = append(m.Requests, req)

	if m.NextErr != nil {
		err := m.NextErr
		m.NextErr = nil
		return nil, domain.Usage{}, err
	}
	if m.MalformedNext {
		m.MalformedNext = false
		return &domain.ClaimDraft{Raw: "not json at all"}, domain.Usage{}, nil
	}

	claim := m.cannedClaim(req.DocumentText)
	return &domain.ClaimDraft{Claim: &claim}, m.Usage, nil
}

func (m *MockAnalysisService) cannedClaim(docText string) domain.Claim {
	if m.Claim != nil {
		return *m.Claim
	}
	synopsis := strings.Join(strings.Fields(docText), " ")
	if len(synopsis) < domain.MinSynopsisLen {
		synopsis = "The article surveys a research area and highlights open problems worth further study."
	} else if len(synopsis) > 400 {
		synopsis = synopsis[:400]
	}
	return domain.Claim{
		Gap:         "The literature on applied AI ignores dual-track training programs in the region.",
		Opportunity: "Run comparative empirical studies across regional dual-track programs.",
		Category:    domain.CategoryThematic,
		Synopsis:    synopsis,
	}
}

func (m *MockAnalysisService) Mode() string  { return "simulation" }
func (m *MockAnalysisService) Model() string { return "mock-analysis-model" }

func (m *MockAnalysisService) Ping(ctx context.Context) error { return nil }
func (m *MockAnalysisService) Close() error                   { return nil }
