package port

// VectorIndex is an in-memory nearest-neighbor index over chunk vectors.
// All vectors in one index come from the same embedding model; the dimension
// is fixed for the index's lifetime.
type VectorIndex interface {
	// AddChunk inserts or replaces a chunk vector.
	AddChunk(chunkID string, vector []float32) error

	// Search returns up to topK hits ordered by descending similarity.
	// Hits below the index's similarity threshold are omitted.
	Search(query []float32, topK int) ([]VectorHit, error)

	// Rebuild replaces the whole index content.
	Rebuild(vectors map[string][]float32) error

	// Len returns the number of indexed vectors.
	Len() int
}

// VectorHit is one nearest-neighbor match. Similarity is cosine similarity
// clamped to [0,1].
type VectorHit struct {
	ChunkID    string
	Similarity float64
}
