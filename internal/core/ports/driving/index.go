package driving

import "context"

// IndexService turns a document's extracted text into retrievable passages
type IndexService interface {
	// Index chunks, embeds and stores the document's latest text.
	// Returns the number of passages stored; 0 means "not indexed"
	// (no source text or no embeddable chunks), not an error.
	Index(ctx context.Context, documentID string) (int, error)
}
