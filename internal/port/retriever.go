package port

import "labkb/internal/domain"

// Retriever finds the passages most relevant to a query.
type Retriever interface {
	// Retrieve returns up to topK results ordered by descending
	// similarity, at most one per parent document. An empty result is a
	// valid outcome, not an error.
	Retrieve(query string, topK int) ([]domain.RetrievalResult, error)
}
