package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestDecide_RulePriority(t *testing.T) {
	tests := []struct {
		name    string
		metrics ValidationMetrics
		want    Verdict
	}{
		{
			name: "duplicate wins despite passing metrics",
			metrics: ValidationMetrics{
				SimilarityAvg: 0.9, EntropyNorm: 0.1, ValidationScore: 0.9, IsDuplicate: true,
			},
			want: VerdictRejected,
		},
		{
			name: "similarity floor triggers before high score",
			metrics: ValidationMetrics{
				SimilarityAvg: 0.10, EntropyNorm: 0.20, ValidationScore: 0.90,
			},
			want: VerdictRejected,
		},
		{
			name: "high entropy rejects",
			metrics: ValidationMetrics{
				SimilarityAvg: 0.40, EntropyNorm: 0.85, ValidationScore: 0.90,
			},
			want: VerdictRejected,
		},
		{
			name: "passes similarity and entropy gates with good score",
			metrics: ValidationMetrics{
				SimilarityAvg: 0.30, EntropyNorm: 0.20, ValidationScore: 0.65,
			},
			want: VerdictAccepted,
		},
		{
			name: "inconclusive metrics stay pending",
			metrics: ValidationMetrics{
				SimilarityAvg: 0.30, EntropyNorm: 0.20, ValidationScore: 0.40,
			},
			want: VerdictPending,
		},
		{
			name:    "zero everything rejects on similarity",
			metrics: ValidationMetrics{},
			want:    VerdictRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, reason := Decide(tt.metrics)
			if verdict != tt.want {
				t.Errorf("Decide() = %s, want %s (reason: %s)", verdict, tt.want, reason)
			}
			if reason == "" {
				t.Error("Decide() returned empty reason")
			}
		})
	}
}

func TestDecide_Pure(t *testing.T) {
	m := ValidationMetrics{SimilarityAvg: 0.30, EntropyNorm: 0.20, ValidationScore: 0.65}
	v1, r1 := Decide(m)
	v2, r2 := Decide(m)
	if v1 != v2 || r1 != r2 {
		t.Errorf("Decide is not deterministic: (%s,%q) vs (%s,%q)", v1, r1, v2, r2)
	}
}

func TestNewClaim(t *testing.T) {
	gap := strings.Repeat("g", MinGapLen)
	opp := strings.Repeat("o", MinOpportunityLen)
	syn := strings.Repeat("s", MinSynopsisLen)

	claim, err := NewClaim(gap, opp, CategoryThematic, syn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim.Category != CategoryThematic {
		t.Errorf("expected thematic, got %s", claim.Category)
	}

	// Unknown category collapses to other
	claim, err = NewClaim(gap, opp, GapCategory("nonsense"), syn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim.Category != CategoryOther {
		t.Errorf("expected other, got %s", claim.Category)
	}

	// Length violations are malformed
	if _, err := NewClaim("short", opp, CategoryOther, syn); !errors.Is(err, ErrMalformedClaim) {
		t.Errorf("expected ErrMalformedClaim for short gap, got %v", err)
	}
	if _, err := NewClaim(gap, "short", CategoryOther, syn); !errors.Is(err, ErrMalformedClaim) {
		t.Errorf("expected ErrMalformedClaim for short opportunity, got %v", err)
	}
	if _, err := NewClaim(gap, opp, CategoryOther, "short"); !errors.Is(err, ErrMalformedClaim) {
		t.Errorf("expected ErrMalformedClaim for short synopsis, got %v", err)
	}
}
