package port

import "labkb/internal/domain"

// Chunker splits a document into retrieval-sized segments. Every character
// of the source content appears in exactly one chunk.
type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk
}
