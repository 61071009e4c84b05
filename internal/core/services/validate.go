package services

import (
	"context"
	"sort"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
	"github.com/custodia-labs/lacuna-core/internal/runtime"
	"github.com/custodia-labs/lacuna-core/internal/textmetrics"
)

// Validator scoring parameters
const (
	// DefaultValidationTopK is how many of the best-scoring passages the
	// similarity metrics are computed over
	DefaultValidationTopK = 8

	// HitThreshold is the similarity above which a passage counts as a hit
	HitThreshold = 0.5

	// DuplicateThreshold is the Jaccard similarity at or above which a
	// claim is considered a duplicate of a prior result
	DuplicateThreshold = 0.80
)

// Validator scores a claim against its document: embedding similarity over
// the document's passages, lexical duplication against prior results, and
// entropy of the claim text. Its output feeds domain.Decide.
type Validator struct {
	passageStore driven.PassageStore
	gapStore     driven.GapStore
	services     *runtime.Services
	topK         int
}

// NewValidator creates a Validator with the default top-k window
func NewValidator(
	passageStore driven.PassageStore,
	gapStore driven.GapStore,
	services *runtime.Services,
) *Validator {
	return &Validator{
		passageStore: passageStore,
		gapStore:     gapStore,
		services:     services,
		topK:         DefaultValidationTopK,
	}
}

// Validate computes the full metric set for a claim against its document.
// The similarity pass compares the claim embedding to every passage of the
// document, not just retrieved ones. A document with no passages or no
// positive similarities yields zero similarity metrics, which downstream
// rules reject as insufficient rather than erroring here.
func (v *Validator) Validate(ctx context.Context, documentID, claimText string) (domain.ValidationMetrics, error) {
	var m domain.ValidationMetrics

	simAvg, hits, score, err := v.similarity(ctx, documentID, claimText)
	if err != nil {
		return m, err
	}
	m.SimilarityAvg = simAvg
	m.Hits = hits
	m.ValidationScore = score

	dupID, isDup, err := v.findDuplicate(ctx, documentID, claimText)
	if err != nil {
		return m, err
	}
	m.IsDuplicate = isDup
	m.DuplicateOfID = dupID

	m.EntropyBits, m.EntropyNorm = textmetrics.ShannonEntropy(claimText)

	return m, nil
}

// similarity embeds the claim and scores it against all document passages.
// Only positive similarities participate; the metrics are computed over the
// top-k slice of those, sorted descending.
func (v *Validator) similarity(ctx context.Context, documentID, claimText string) (simAvg float64, hits int, score float64, err error) {
	embeddingService := v.services.EmbeddingService()
	if embeddingService == nil {
		return 0, 0, 0, domain.ErrServiceUnavailable
	}

	claimEmbedding, err := embeddingService.EmbedQuery(ctx, claimText)
	if err != nil {
		return 0, 0, 0, err
	}

	passages, err := v.passageStore.GetByDocument(ctx, documentID)
	if err != nil {
		return 0, 0, 0, err
	}

	positive := make([]float64, 0, len(passages))
	for _, p := range passages {
		if s := textmetrics.Cosine(claimEmbedding, p.Embedding); s > 0 {
			positive = append(positive, s)
		}
	}
	if len(positive) == 0 {
		return 0, 0, 0, nil
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(positive)))
	top := positive
	if len(top) > v.topK {
		top = top[:v.topK]
	}

	var sum float64
	for _, s := range top {
		sum += s
		if s >= HitThreshold {
			hits++
		}
	}
	simAvg = sum / float64(len(top))
	score = (simAvg + float64(hits)/float64(len(top))) / 2
	return simAvg, hits, score, nil
}

// findDuplicate compares the claim against every prior gap result of the
// same document and reports the best match when it clears the threshold.
// Results from other documents never participate.
func (v *Validator) findDuplicate(ctx context.Context, documentID, claimText string) (matchID string, isDuplicate bool, err error) {
	prior, err := v.gapStore.ListByDocument(ctx, documentID)
	if err != nil {
		return "", false, err
	}

	best := 0.0
	for _, result := range prior {
		if s := textmetrics.Jaccard(claimText, result.Gap); s > best {
			best = s
			matchID = result.ID
		}
	}
	if best >= DuplicateThreshold {
		return matchID, true, nil
	}
	return "", false, nil
}
