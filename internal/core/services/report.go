package services

import (
	"context"
	"math"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driving"
	"github.com/custodia-labs/lacuna-core/internal/textmetrics"
)

// Ensure reportService implements ReportService
var _ driving.ReportService = (*reportService)(nil)

// reportService implements the ReportService interface.
// ROUGE-1 is recomputed from stored summaries at report time; only lexical
// density is persisted per summary.
type reportService struct {
	gapStore driven.GapStore
}

// NewReportService creates a new ReportService
func NewReportService(gapStore driven.GapStore) driving.ReportService {
	return &reportService{gapStore: gapStore}
}

// ProjectIndicators aggregates a project's gap results and summaries into
// the dashboard metrics. A project with no results yields all zeros.
func (s *reportService) ProjectIndicators(ctx context.Context, projectID string) (*domain.ProjectIndicators, error) {
	results, err := s.gapStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ind := &domain.ProjectIndicators{}
	if len(results) == 0 {
		return ind, nil
	}

	var simSum, entSum, entNormSum, scoreSum float64
	for _, r := range results {
		simSum += r.SimilarityAvg
		entSum += r.EntropyBits
		entNormSum += r.EntropyNorm
		scoreSum += r.ValidationScore

		switch r.Verdict {
		case domain.VerdictAccepted:
			ind.Accepted++
		case domain.VerdictRejected:
			ind.Rejected++
		case domain.VerdictPending:
			ind.Pending++
		}
	}
	n := float64(len(results))
	ind.Total = len(results)
	ind.AvgSimilarity = simSum / n
	ind.AvgEntropyBits = entSum / n
	ind.AvgEntropyNorm = entNormSum / n
	ind.AvgValidationScore = scoreSum / n
	ind.AcceptedPct = float64(ind.Accepted) / n

	summaries, err := s.gapStore.ListSummariesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var precSum, recSum, f1Sum, lexSum float64
	scored := 0
	for _, sum := range summaries {
		if sum.ReferenceSummary == "" || sum.GeneratedSummary == "" {
			continue
		}
		p, r, f1 := textmetrics.Rouge1(sum.ReferenceSummary, sum.GeneratedSummary)
		precSum += p
		recSum += r
		f1Sum += f1
		lexSum += sum.LexicalDensity
		scored++
	}
	if scored > 0 {
		ind.AvgRouge1Precision = precSum / float64(scored)
		ind.AvgRouge1Recall = recSum / float64(scored)
		ind.AvgRouge1F1 = f1Sum / float64(scored)
		ind.AvgLexicalDensity = lexSum / float64(scored)
	}

	ind.Dimensions = computeDimensions(ind)
	return ind, nil
}

// computeDimensions derives the 0-100 dashboard dimensions from the
// aggregate metrics. Composite dimensions average only their non-zero
// components so a missing signal does not drag the score to the floor.
func computeDimensions(ind *domain.ProjectIndicators) domain.ReportDimensions {
	var d domain.ReportDimensions

	d.GapIdentification = toPct(ind.AvgSimilarity, false)

	var synthesis []float64
	if ind.AvgRouge1F1 > 0 {
		synthesis = append(synthesis, toPct(ind.AvgRouge1F1, false))
	}
	if ind.AvgEntropyNorm > 0 {
		synthesis = append(synthesis, toPct(ind.AvgEntropyNorm, true))
	}
	if ind.AvgLexicalDensity > 0 {
		synthesis = append(synthesis, toPct(ind.AvgLexicalDensity, false))
	}
	d.SynthesisClarity = avg(synthesis)

	var validation []float64
	if ind.AvgValidationScore > 0 {
		validation = append(validation, toPct(ind.AvgValidationScore, false))
	}
	if ind.AcceptedPct > 0 {
		validation = append(validation, toPct(ind.AcceptedPct, false))
	}
	d.AutomaticValidation = avg(validation)

	d.OverallQuality = avg([]float64{d.GapIdentification, d.SynthesisClarity, d.AutomaticValidation})

	d.GapIdentification = round1(d.GapIdentification)
	d.SynthesisClarity = round1(d.SynthesisClarity)
	d.AutomaticValidation = round1(d.AutomaticValidation)
	d.OverallQuality = round1(d.OverallQuality)
	return d
}

// toPct maps a 0..1 value onto 0..100, optionally inverting the scale
// (higher entropy means lower clarity).
func toPct(x float64, invert bool) float64 {
	if invert {
		x = 1.0 - x
	}
	return math.Max(0.0, math.Min(100.0, x*100.0))
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
