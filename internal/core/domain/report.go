package domain

// ProjectIndicators aggregates a project's gap results into the dashboard
// metrics. All averages are over results that carry the metric; counts are
// absolute.
type ProjectIndicators struct {
	AvgSimilarity      float64 `json:"avg_similarity"`
	AvgEntropyBits     float64 `json:"avg_entropy_bits"`
	AvgEntropyNorm     float64 `json:"avg_entropy_norm"`
	AvgValidationScore float64 `json:"avg_validation_score"`

	Accepted    int     `json:"accepted"`
	Rejected    int     `json:"rejected"`
	Pending     int     `json:"pending"`
	Total       int     `json:"total"`
	AcceptedPct float64 `json:"accepted_pct"` // 0..1

	AvgRouge1Precision float64 `json:"avg_rouge1_precision"`
	AvgRouge1Recall    float64 `json:"avg_rouge1_recall"`
	AvgRouge1F1        float64 `json:"avg_rouge1_f1"`
	AvgLexicalDensity  float64 `json:"avg_lexical_density"`

	Dimensions ReportDimensions `json:"dimensions"`
}

// ReportDimensions are the 0-100 normalized quality dimensions shown on the
// project dashboard.
type ReportDimensions struct {
	GapIdentification   float64 `json:"gap_identification"`
	SynthesisClarity    float64 `json:"synthesis_clarity"`
	AutomaticValidation float64 `json:"automatic_validation"`
	OverallQuality      float64 `json:"overall_quality"`
}
