package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Prompt assembly limits. Retrieval fragments are capped per fragment and in
// total; the analysed text is capped hard so one oversized PDF cannot blow
// the context window.
const (
	maxFragmentChars  = 1500
	maxRetrievalChars = 12000
	maxDocumentChars  = 120000
)

const systemPrompt = `You are an assistant for bibliographic analysis. ` +
	`Return ONLY valid JSON with EXACT fields: gap, opportunity, category, synopsis. ` +
	`Valid categories: methodological, thematic, theoretical, technological, other. ` +
	`Pick the category by the predominant focus of the problem, NOT by a superficial mention of "method". ` +
	`Quick criteria:
- methodological: flaws in design/measurement/protocol/sampling/reproducibility/validation.
- thematic: the topic/case/population/domain is under-covered or poorly delimited.
- theoretical: missing conceptual frameworks/models/constructs/hypotheses.
- technological: lack of tools/systems/architectures/implementation or performance.
- other: if none apply.
The "synopsis" field must be a paragraph of 5 to 8 lines summarising the article's central content in plain language.
Do not include explanations outside the JSON. Do not return lists or arrays, only a single JSON object.`

// fewShots anchor the classification with one example per category
var fewShots = []domain.Claim{
	{
		Gap:         "The literature on AI in technical education ignores dual-training programmes in Latin America.",
		Opportunity: "Run empirical studies on dual programmes in the region with cross-country comparison.",
		Category:    domain.CategoryThematic,
	},
	{
		Gap:         "Studies report inconsistent metrics with no reproducible cross-validation protocol.",
		Opportunity: "Propose a standardised protocol with k-fold validation and unified metric reporting.",
		Category:    domain.CategoryMethodological,
	},
	{
		Gap:         "No integrated conceptual model connects motivation, cognitive load and performance.",
		Opportunity: "Formulate and test a theoretical framework with measurable hypotheses.",
		Category:    domain.CategoryTheoretical,
	},
	{
		Gap:         "There is no scalable platform to orchestrate RAG pipelines with monitoring and performance profiles.",
		Opportunity: "Build and evaluate a modular system with telemetry and load testing.",
		Category:    domain.CategoryTechnological,
	},
}

// retrievalBlock renders the retrieved passages into a bounded prompt section
func retrievalBlock(fragments []string) string {
	var acc []string
	total := 0
	for _, f := range fragments {
		frag := strings.TrimSpace(f)
		if frag == "" {
			continue
		}
		if len(frag) > maxFragmentChars {
			frag = frag[:maxFragmentChars]
		}
		if total+len(frag) > maxRetrievalChars {
			break
		}
		acc = append(acc, frag)
		total += len(frag)
	}
	if len(acc) == 0 {
		return "Retrieved context (RAG): [no fragments available]"
	}
	return "Retrieved context (RAG):\n" + strings.Join(acc, "\n---\n")
}

// buildPrompt assembles the user prompt for one document analysis
func buildPrompt(req driven.AnalysisRequest) string {
	text := req.DocumentText
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	shots, _ := json.MarshalIndent(fewShots, "", "  ")

	return fmt.Sprintf(`Project context:
- Topic: %s
- Methodology: %s
- Sector: %s
- Objective: %s

%s

Analyse the ARTICLE and return:
- gap: at most 10 lines, concrete and defensible.
- opportunity: an applicable proposal.
- category: one of [methodological, thematic, theoretical, technological, other].
- synopsis: a paragraph of 5 to 8 lines summarising the article's main content.

EXAMPLES OF CORRECT OUTPUT:
%s

ARTICLE:
%s
`,
		req.Context.Topic,
		req.Context.Methodology,
		req.Context.Sector,
		req.Context.Objective,
		retrievalBlock(req.RetrievalContext),
		shots,
		text,
	)
}

// rawClaim mirrors the JSON shape the model is told to produce
type rawClaim struct {
	Gap         string `json:"gap"`
	Opportunity string `json:"opportunity"`
	Category    string `json:"category"`
	Synopsis    string `json:"synopsis"`
}

// parseClaim turns raw model output into a tagged ClaimDraft. A response
// that fails the schema or the length constraints comes back with only Raw
// populated; the caller decides what a malformed draft means.
func parseClaim(raw string) *domain.ClaimDraft {
	text := stripCodeFence(raw)

	var rc rawClaim
	if err := json.Unmarshal([]byte(text), &rc); err != nil {
		// The model sometimes wraps the object in a list
		var list []rawClaim
		if err := json.Unmarshal([]byte(text), &list); err != nil || len(list) == 0 {
			return &domain.ClaimDraft{Raw: raw}
		}
		rc = list[0]
	}

	gap := strings.TrimSpace(rc.Gap)
	opportunity := strings.TrimSpace(rc.Opportunity)
	synopsis := strings.TrimSpace(rc.Synopsis)
	category := domain.GapCategory(strings.TrimSpace(strings.ToLower(rc.Category)))

	category = rebalanceCategory(gap, category)

	claim, err := domain.NewClaim(gap, opportunity, category, synopsis)
	if err != nil {
		return &domain.ClaimDraft{Raw: raw}
	}
	return &domain.ClaimDraft{Claim: &claim}
}

// stripCodeFence removes a surrounding markdown code fence if present
func stripCodeFence(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Keyword evidence per category, matched against the lower-cased gap text
var categoryKeywords = map[domain.GapCategory][]string{
	domain.CategoryMethodological: {
		"method", "methodology", "sampling", "protocol", "validity",
		"reproducib", "precision", "recall", "f1", "experiment",
		"experimental design", "validation",
	},
	domain.CategoryThematic: {
		"topic", "thematic", "domain", "context", "case", "population",
		"industry", "sector", "latin america", "education", "health",
		"agriculture", "smart city", "specific dataset",
	},
	domain.CategoryTheoretical: {
		"theory", "theoretical", "conceptual framework", "conceptual model",
		"construct", "hypothes",
	},
	domain.CategoryTechnological: {
		"tool", "platform", "system", "architecture", "implementation",
		"performance", "scalability", "latency",
	},
}

// rebalanceCategory corrects obvious classification bias in the model output.
// Keyword evidence in the gap text overrides the reported category only when
// it is strictly stronger than the evidence for the reported one.
func rebalanceCategory(gap string, reported domain.GapCategory) domain.GapCategory {
	t := strings.ToLower(gap)

	scores := make(map[domain.GapCategory]int, len(categoryKeywords))
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(t, kw) {
				scores[category]++
			}
		}
	}

	best := reported
	bestScore := -1
	for _, category := range []domain.GapCategory{
		domain.CategoryMethodological, domain.CategoryThematic,
		domain.CategoryTheoretical, domain.CategoryTechnological,
	} {
		if scores[category] > bestScore {
			best, bestScore = category, scores[category]
		}
	}

	if bestScore > scores[reported] {
		return best
	}
	if !reported.Valid() {
		return domain.CategoryOther
	}
	return reported
}
