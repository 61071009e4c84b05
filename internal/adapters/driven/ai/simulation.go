package ai

import (
	"context"
	"strings"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Ensure SimulationAnalysis implements AnalysisService
var _ driven.AnalysisService = (*SimulationAnalysis)(nil)

// Synopsis length in the simulated claim, in words
const simulationSynopsisWords = 120

// SimulationAnalysis is a deterministic offline analysis provider. It returns
// a canned claim with a synopsis excerpted from the analysed text, so the
// whole pipeline can run without credentials or network access.
type SimulationAnalysis struct{}

// NewSimulationAnalysis creates the simulation provider
func NewSimulationAnalysis() driven.AnalysisService {
	return &SimulationAnalysis{}
}

// AnalyseDocument returns the first canned claim with a synopsis made from
// the first words of the document text. Usage is always zero.
func (s *SimulationAnalysis) AnalyseDocument(_ context.Context, req driven.AnalysisRequest) (*domain.ClaimDraft, domain.Usage, error) {
	demo := fewShots[0]

	synopsis := firstWords(req.DocumentText, simulationSynopsisWords)
	if synopsis == "" {
		synopsis = demo.Gap
	}

	claim, err := domain.NewClaim(demo.Gap, demo.Opportunity, demo.Category, synopsis)
	if err != nil {
		// Synopsis below the minimum length counts as malformed output,
		// the same way a live provider's short answer would.
		return &domain.ClaimDraft{Raw: synopsis}, domain.Usage{}, nil
	}

	return &domain.ClaimDraft{Claim: &claim}, domain.Usage{}, nil
}

// Mode returns "simulation"
func (s *SimulationAnalysis) Mode() string {
	return string(domain.AnalysisModeSimulation)
}

// Model returns the placeholder model name
func (s *SimulationAnalysis) Model() string {
	return "simulation"
}

// Ping always succeeds
func (s *SimulationAnalysis) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op
func (s *SimulationAnalysis) Close() error {
	return nil
}

// firstWords returns the first n whitespace-separated words of s
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
