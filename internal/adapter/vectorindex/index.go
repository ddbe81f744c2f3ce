package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"labkb/internal/port"
)

// Index is a brute-force in-memory nearest-neighbor index. The score
// reported for a hit is cosine similarity clamped to [0,1]; hits under the
// threshold are dropped. All vectors must share one dimension, which is
// fixed when the index is created; vectors from different embedding models
// must never share an index.
type Index struct {
	mu        sync.RWMutex
	dimension int
	threshold float64
	vectors   map[string][]float32
}

func NewIndex(dimension int, threshold float64) *Index {
	return &Index{
		dimension: dimension,
		threshold: threshold,
		vectors:   make(map[string][]float32),
	}
}

// AddChunk inserts or replaces a chunk vector.
func (ix *Index) AddChunk(chunkID string, vector []float32) error {
	if len(vector) != ix.dimension {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", ix.dimension, len(vector))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors[chunkID] = vector
	return nil
}

// Search returns up to topK hits above the similarity threshold, ordered by
// descending similarity with chunk id as the tie-break so repeated searches
// are deterministic.
func (ix *Index) Search(query []float32, topK int) ([]port.VectorHit, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", ix.dimension, len(query))
	}
	if topK <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]port.VectorHit, 0, len(ix.vectors))
	for id, vec := range ix.vectors {
		sim := cosineSimilarity(query, vec)
		if sim < 0 {
			sim = 0
		}
		if sim <= ix.threshold {
			continue
		}
		hits = append(hits, port.VectorHit{ChunkID: id, Similarity: sim})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Rebuild replaces the whole index content in one step.
func (ix *Index) Rebuild(vectors map[string][]float32) error {
	for id, vec := range vectors {
		if len(vec) != ix.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", id, ix.dimension, len(vec))
		}
	}

	fresh := make(map[string][]float32, len(vectors))
	for id, vec := range vectors {
		fresh[id] = vec
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = fresh
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
