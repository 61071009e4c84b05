package textmetrics

import (
	"math"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercases and collapses", "Hello   WORLD\t now", "hello world now"},
		{
			"strips reference section",
			"Main body text.\n References \nSmith, J. (2020). Some paper.",
			"main body text.",
		},
		{
			"rejoins hyphen breaks",
			"inves-\ntigación continua",
			"investigación continua",
		},
		{
			"removes urls and emails",
			"see https://example.org/x and mail me@example.com today",
			"see and mail today",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestShannonEntropy(t *testing.T) {
	bits, norm := ShannonEntropy("")
	if bits != 0.0 || norm != 0.0 {
		t.Errorf("empty text: got (%f, %f), want (0, 0)", bits, norm)
	}

	// Single repeated character has zero entropy
	bits, norm = ShannonEntropy("aaaaaaa")
	if bits != 0.0 || norm != 0.0 {
		t.Errorf("uniform text: got (%f, %f), want (0, 0)", bits, norm)
	}

	// Two equiprobable characters = exactly 1 bit
	bits, _ = ShannonEntropy("abababab")
	if math.Abs(bits-1.0) > 1e-9 {
		t.Errorf("ab text: got %f bits, want 1.0", bits)
	}

	// Normalized entropy stays in [0,1] for arbitrary input
	inputs := []string{
		"the quick brown fox jumps over the lazy dog",
		strings.Repeat("xyz123!@# ", 50),
		"¿Cuál es la brecha metodológica más citada?",
	}
	for _, in := range inputs {
		if _, n := ShannonEntropy(in); n < 0.0 || n > 1.0 {
			t.Errorf("normalized entropy out of range for %q: %f", in, n)
		}
	}
}

func TestJaccard(t *testing.T) {
	if got := Jaccard("", ""); got != 0.0 {
		t.Errorf("empty vs empty = %f, want 0", got)
	}
	if got := Jaccard("a b c", "a b c"); got != 1.0 {
		t.Errorf("identical = %f, want 1", got)
	}
	// Symmetry
	a, b := "machine learning gaps", "deep learning gaps exist"
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Error("jaccard is not symmetric")
	}
	// Case-insensitive tokenisation
	if got := Jaccard("Alpha Beta", "alpha beta"); got != 1.0 {
		t.Errorf("case-insensitive = %f, want 1", got)
	}
	// {a,b} vs {b,c}: intersection 1, union 3
	if got := Jaccard("a b", "b c"); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("partial overlap = %f, want 1/3", got)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine(nil, []float32{1, 2}); got != 0.0 {
		t.Errorf("nil vector = %f, want 0", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 2}); got != 0.0 {
		t.Errorf("zero-norm vector = %f, want 0", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors = %f, want 1", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors = %f, want 0", got)
	}
}

func TestLexicalDensity(t *testing.T) {
	if got := LexicalDensity(""); got != 0.0 {
		t.Errorf("empty = %f, want 0", got)
	}
	if got := LexicalDensity("the of and in"); got != 0.0 {
		t.Errorf("all stopwords = %f, want 0", got)
	}
	if got := LexicalDensity("entropy validation retrieval"); got != 1.0 {
		t.Errorf("all content words = %f, want 1", got)
	}
	if got := LexicalDensity("the entropy of validation"); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("half content = %f, want 0.5", got)
	}
}

func TestRouge1(t *testing.T) {
	p, r, f1 := Rouge1("", "anything at all")
	if p != 0 || r != 0 || f1 != 0 {
		t.Errorf("empty ref: got (%f,%f,%f), want zeros", p, r, f1)
	}

	p, r, f1 = Rouge1("alpha beta gamma", "alpha beta gamma")
	if p != 1.0 || r != 1.0 || f1 != 1.0 {
		t.Errorf("identical: got (%f,%f,%f), want ones", p, r, f1)
	}

	// hyp covers half the reference exactly
	p, r, _ = Rouge1("alpha beta gamma delta", "alpha beta")
	if p != 1.0 {
		t.Errorf("precision = %f, want 1", p)
	}
	if math.Abs(r-0.5) > 1e-9 {
		t.Errorf("recall = %f, want 0.5", r)
	}
}
