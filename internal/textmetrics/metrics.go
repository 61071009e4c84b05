package textmetrics

import (
	"math"
	"strings"
)

// entropyCeilingBits is the one-byte ceiling used to normalise Shannon
// entropy into a stable 0..1 scale.
const entropyCeilingBits = 8.0

// Cosine returns the cosine similarity of two vectors. Zero-norm or empty
// vectors score 0. Mismatched lengths compare over the shorter prefix.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		na += float64(x) * float64(x)
	}
	for _, y := range b {
		nb += float64(y) * float64(y)
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Jaccard returns the token-set Jaccard similarity of two strings under
// lower-cased whitespace tokenisation. Empty vs empty compares as 0, not 1.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// ShannonEntropy computes the character-frequency Shannon entropy of the
// cleaned text, in bits, together with the value normalised by the one-byte
// ceiling and clamped to 1. Empty cleaned text yields (0, 0).
func ShannonEntropy(text string) (bits, normalized float64) {
	cleaned := Normalize(text)
	if cleaned == "" {
		return 0.0, 0.0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range cleaned {
		counts[r]++
		total++
	}

	n := float64(total)
	for _, c := range counts {
		p := float64(c) / n
		bits -= p * math.Log2(p)
	}

	normalized = math.Min(bits/entropyCeilingBits, 1.0)
	return bits, normalized
}

// stopwords for lexical density, Spanish plus English, approximate.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"el", "la", "los", "las", "un", "una", "unos", "unas",
		"de", "del", "al", "a", "en", "y", "o", "u", "que", "con", "por", "para",
		"se", "es", "son", "fue", "ser", "como", "su", "sus", "lo", "ya", "no", "sí",
		"the", "an", "and", "of", "in", "on", "for", "to", "is", "are", "was", "were",
		"this", "that", "these", "those", "it", "its", "at", "from", "by", "as", "be", "been",
	} {
		stopwords[w] = struct{}{}
	}
}

// LexicalDensity approximates the proportion of content words (non-stopwords)
// over total words of the cleaned text. Returns a value in [0,1].
func LexicalDensity(text string) float64 {
	tokens := strings.Fields(Normalize(text))
	if len(tokens) == 0 {
		return 0.0
	}
	content := 0
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; !stop {
			content++
		}
	}
	return float64(content) / float64(len(tokens))
}

var rougePunct = strings.NewReplacer(
	",", " ", ".", " ", ";", " ", ":", " ", "!", " ", "?", " ",
	"(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ",
	`"`, " ", "'", " ", "«", " ", "»", " ", "/", " ", `\`, " ",
)

func rougeTokens(text string) []string {
	return strings.Fields(rougePunct.Replace(Normalize(text)))
}

// Rouge1 computes ROUGE-1 precision, recall and F1 over unigrams between a
// reference text and a hypothesis. Either side empty yields all zeros.
func Rouge1(ref, hyp string) (precision, recall, f1 float64) {
	refToks := rougeTokens(ref)
	hypToks := rougeTokens(hyp)
	if len(refToks) == 0 || len(hypToks) == 0 {
		return 0.0, 0.0, 0.0
	}

	refCounts := make(map[string]int)
	for _, tok := range refToks {
		refCounts[tok]++
	}
	hypCounts := make(map[string]int)
	for _, tok := range hypToks {
		hypCounts[tok]++
	}

	overlap := 0
	for tok, hc := range hypCounts {
		rc := refCounts[tok]
		if hc < rc {
			overlap += hc
		} else {
			overlap += rc
		}
	}

	precision = float64(overlap) / float64(len(hypToks))
	recall = float64(overlap) / float64(len(refToks))
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}
