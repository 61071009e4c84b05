// Package textmetrics provides the text normalisation and the pure lexical
// and information-theoretic measures used by gap validation. Every metric in
// this package operates on Normalize output, never on raw extracted text.
package textmetrics

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// Cut everything from a references/bibliography heading onward so the
	// citation block does not skew the metrics.
	refSplitRe = regexp.MustCompile(`(?is)\n\s*(references|bibliography|referencias)\b.*`)

	// Rejoin words broken across lines with a trailing hyphen.
	hyphenBreakRe = regexp.MustCompile(`-\s*\n\s*`)

	urlRe   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailRe = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.\w+\b`)
	wsRe    = regexp.MustCompile(`\s+`)
)

// Normalize canonicalises text for metric computation: NFKC, reference
// section stripped, hyphen line-breaks rejoined, URLs and emails removed,
// whitespace collapsed, lower-cased. Total function: empty in, empty out.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := norm.NFKC.String(text)

	t = refSplitRe.ReplaceAllString(t, "")
	t = hyphenBreakRe.ReplaceAllString(t, "")

	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\n", " ")

	t = urlRe.ReplaceAllString(t, " ")
	t = emailRe.ReplaceAllString(t, " ")

	t = wsRe.ReplaceAllString(t, " ")
	return strings.ToLower(strings.TrimSpace(t))
}
