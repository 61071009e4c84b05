package domain

import "time"

// Document represents a research article registered in a project
type Document struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Authors   string    `json:"authors,omitempty"`
	Year      int       `json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IndexedAt time.Time `json:"indexed_at,omitempty"`
}

// Passage is an indexed, embeddable slice of a document's text.
// Passages are write-once: re-indexing a document produces a fresh set.
type Passage struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Position   int       `json:"position"` // Order within the document, unique per document
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredPassage is a retrieval result with its cosine similarity score
type ScoredPassage struct {
	PassageID string  `json:"passage_id"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

// Project groups documents and carries the analysis context handed to the
// generative provider.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Topic       string    `json:"topic"`
	Methodology string    `json:"methodology"`
	Sector      string    `json:"sector"`
	Objective   string    `json:"objective"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnalysisContext is the project context passed to the analysis provider
type AnalysisContext struct {
	Topic       string `json:"topic"`
	Methodology string `json:"methodology"`
	Sector      string `json:"sector"`
	Objective   string `json:"objective"`
}

// AnalysisContext extracts the provider-facing context from a project
func (p *Project) AnalysisContext() AnalysisContext {
	return AnalysisContext{
		Topic:       p.Topic,
		Methodology: p.Methodology,
		Sector:      p.Sector,
		Objective:   p.Objective,
	}
}
