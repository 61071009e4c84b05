package domain

import (
	"fmt"
	"time"
)

// GapCategory classifies the kind of research gap a claim describes
type GapCategory string

const (
	CategoryMethodological GapCategory = "methodological"
	CategoryThematic       GapCategory = "thematic"
	CategoryTheoretical    GapCategory = "theoretical"
	CategoryTechnological  GapCategory = "technological"
	CategoryOther          GapCategory = "other"
)

// Valid reports whether the category is one of the known values
func (c GapCategory) Valid() bool {
	switch c {
	case CategoryMethodological, CategoryThematic, CategoryTheoretical,
		CategoryTechnological, CategoryOther:
		return true
	}
	return false
}

// Verdict is the decision engine's classification of a claim
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictRejected Verdict = "rejected"
	VerdictPending  Verdict = "pending"
)

// Claim is a validated, well-formed analysis result from the generative
// provider. Construct via NewClaim so the length constraints hold.
type Claim struct {
	Gap         string      `json:"gap"`
	Opportunity string      `json:"opportunity"`
	Category    GapCategory `json:"category"`
	Synopsis    string      `json:"synopsis"`
}

// Minimum lengths for a well-formed claim. Shorter output from the provider
// is treated as malformed.
const (
	MinGapLen         = 20
	MinOpportunityLen = 20
	MinSynopsisLen    = 40
)

// NewClaim validates provider output and constructs a Claim.
// Unknown categories collapse to CategoryOther; length violations are
// rejected with ErrMalformedClaim.
func NewClaim(gap, opportunity string, category GapCategory, synopsis string) (Claim, error) {
	if len(gap) < MinGapLen || len(opportunity) < MinOpportunityLen || len(synopsis) < MinSynopsisLen {
		return Claim{}, fmt.Errorf("%w: gap=%d opportunity=%d synopsis=%d chars",
			ErrMalformedClaim, len(gap), len(opportunity), len(synopsis))
	}
	if !category.Valid() {
		category = CategoryOther
	}
	return Claim{Gap: gap, Opportunity: opportunity, Category: category, Synopsis: synopsis}, nil
}

// ClaimDraft is the tagged outcome of parsing a provider response: either a
// well-formed Claim or the raw text that failed to parse. Exactly one side
// is populated.
type ClaimDraft struct {
	Claim *Claim `json:"claim,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// Usage carries token accounting from a provider call, when available
type Usage struct {
	TokensIn  int64   `json:"tokens_in"`
	TokensOut int64   `json:"tokens_out"`
	Cost      float64 `json:"cost"`
}

// ValidationMetrics are the validator outputs consulted by the decision engine
type ValidationMetrics struct {
	SimilarityAvg   float64 `json:"similarity_avg"`
	Hits            int     `json:"hits"`
	ValidationScore float64 `json:"validation_score"`
	EntropyBits     float64 `json:"entropy_bits"`
	EntropyNorm     float64 `json:"entropy_norm"`
	IsDuplicate     bool    `json:"is_duplicate"`
	DuplicateOfID   string  `json:"duplicate_of_id,omitempty"`
}

// Decision thresholds, evaluated in Decide
const (
	MinSimilarityAvg = 0.25
	MaxEntropyNorm   = 0.70
	MinAcceptScore   = 0.60
)

// Decide applies the validation rule set in strict priority order and
// returns the verdict with a human-readable reason. Duplication and
// low relevance disqualify before the composite score is consulted.
func Decide(m ValidationMetrics) (Verdict, string) {
	switch {
	case m.IsDuplicate:
		return VerdictRejected, "Duplicate of another gap from the same document."
	case m.SimilarityAvg < MinSimilarityAvg:
		return VerdictRejected, fmt.Sprintf(
			"Insufficient similarity (similarity_avg=%.2f < %.2f).", m.SimilarityAvg, MinSimilarityAvg)
	case m.EntropyNorm > MaxEntropyNorm:
		return VerdictRejected, fmt.Sprintf(
			"High textual disorder (entropy_norm=%.2f > %.2f).", m.EntropyNorm, MaxEntropyNorm)
	case m.ValidationScore >= MinAcceptScore:
		return VerdictAccepted, fmt.Sprintf(
			"Passes quality threshold (validation_score=%.2f >= %.2f).", m.ValidationScore, MinAcceptScore)
	default:
		return VerdictPending, "Inconclusive metrics; requires manual review."
	}
}

// GapResult is one verdict record per successfully analyzed run item.
// Records are created once and never updated; re-analysis produces a new
// record and old ones remain for audit and duplicate detection.
type GapResult struct {
	ID              string      `json:"id"`
	RunItemID       string      `json:"run_item_id"`
	Gap             string      `json:"gap"`
	Opportunity     string      `json:"opportunity"`
	Category        GapCategory `json:"category"`
	SimilarityAvg   float64     `json:"similarity_avg"`
	Hits            int         `json:"hits"`
	EntropyBits     float64     `json:"entropy_bits"`
	EntropyNorm     float64     `json:"entropy_norm"`
	ValidationScore float64     `json:"validation_score"`
	IsDuplicate     bool        `json:"is_duplicate"`
	DuplicateOfID   string      `json:"duplicate_of_id,omitempty"`
	Verdict         Verdict     `json:"verdict"`
	Reason          string      `json:"reason"`
	CreatedAt       time.Time   `json:"created_at"`
}

// SummaryResult pairs the provider synopsis with a reference excerpt for
// report-time ROUGE scoring. Stored only when both sides are long enough
// to compare meaningfully.
type SummaryResult struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"document_id"`
	GeneratedSummary string    `json:"generated_summary"`
	ReferenceSummary string    `json:"reference_summary"`
	LexicalDensity   float64   `json:"lexical_density"`
	CreatedAt        time.Time `json:"created_at"`
}
