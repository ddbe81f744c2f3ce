package port

// Embedder generates vector embeddings for text.
//
// Unavailability (network failure, missing credentials) is reported as an
// error wrapping domain.ErrEmbeddingUnavailable so callers can degrade to
// lexical retrieval instead of failing the query.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
