// Package chunker splits normalized document text into boundary-snapped
// passages for indexing.
package chunker

import (
	"iter"
	"regexp"
	"strings"
)

// Defaults for passage windows.
const (
	DefaultMaxChars = 1200
	DefaultOverlap  = 200

	// minSentenceCut is how far into a window a sentence boundary must fall
	// to be used as the cut point; earlier periods would produce stub
	// passages (figure captions, abbreviations at window start).
	minSentenceCut = 300
)

var wsRe = regexp.MustCompile(`\s+`)

// Config configures passage splitting.
type Config struct {
	// MaxChars is the maximum characters per passage
	MaxChars int

	// Overlap is how far before each cut the next window may start.
	// The next window is clamped to never begin before the cut, which
	// guarantees termination for any input, including overlap >= MaxChars.
	Overlap int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChars: DefaultMaxChars,
		Overlap:  DefaultOverlap,
	}
}

// Split returns the passages of text in document order as a lazy sequence.
// Whitespace is collapsed first. Each window takes up to MaxChars characters
// and cuts at the last sentence-ending period past the first minSentenceCut
// characters, or at the hard boundary if none exists. Passages are trimmed
// and never empty; empty input yields an empty sequence. The sequence is
// finite and intended for a single range.
func Split(text string, cfg Config) iter.Seq[string] {
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	overlap := cfg.Overlap

	collapsed := strings.TrimSpace(wsRe.ReplaceAllString(text, " "))

	return func(yield func(string) bool) {
		n := len(collapsed)
		start := 0
		for start < n {
			end := start + maxChars
			if end > n {
				end = n
			}

			cut := strings.LastIndex(collapsed[start:end], ".")
			if cut == -1 || cut <= minSentenceCut {
				cut = end
			} else {
				cut += start
			}

			if passage := strings.TrimSpace(collapsed[start:cut]); passage != "" {
				if !yield(passage) {
					return
				}
			}

			start = max(cut-overlap, cut)
		}
	}
}

// SplitAll collects the full passage sequence into a slice.
func SplitAll(text string, cfg Config) []string {
	var passages []string
	for passage := range Split(text, cfg) {
		passages = append(passages, passage)
	}
	return passages
}
