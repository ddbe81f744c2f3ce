package vectorindex

import (
	"math"
	"testing"
)

func TestSearchOrdering(t *testing.T) {
	ix := NewIndex(3, 0.3)

	ix.AddChunk("a", []float32{1, 0, 0})
	ix.AddChunk("b", []float32{0.9, 0.1, 0})
	ix.AddChunk("c", []float32{0, 1, 0})
	ix.AddChunk("d", []float32{0, 0, 1})

	hits, err := ix.Search([]float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}

	// c and d are orthogonal to the query (similarity 0, under threshold).
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %d", len(hits))
	}
	if hits[0].ChunkID != "a" || hits[1].ChunkID != "b" {
		t.Errorf("wrong order: %v", hits)
	}
	if hits[0].Similarity < hits[1].Similarity {
		t.Error("hits not sorted by descending similarity")
	}
	if math.Abs(hits[0].Similarity-1.0) > 1e-9 {
		t.Errorf("identical vectors should score 1.0, got %f", hits[0].Similarity)
	}
}

func TestSearchTopK(t *testing.T) {
	ix := NewIndex(2, 0.0)

	ix.AddChunk("a", []float32{1, 0})
	ix.AddChunk("b", []float32{0.9, 0.1})
	ix.AddChunk("c", []float32{0.8, 0.2})

	hits, err := ix.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("expected topK=2 truncation, got %d hits", len(hits))
	}
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	ix := NewIndex(2, 0.0)

	// Identical vectors tie exactly; order must still be stable.
	ix.AddChunk("z", []float32{1, 1})
	ix.AddChunk("a", []float32{1, 1})
	ix.AddChunk("m", []float32{1, 1})

	for i := 0; i < 5; i++ {
		hits, err := ix.Search([]float32{1, 1}, 10)
		if err != nil {
			t.Fatal(err)
		}
		if hits[0].ChunkID != "a" || hits[1].ChunkID != "m" || hits[2].ChunkID != "z" {
			t.Fatalf("iteration %d: unstable tie-break: %v", i, hits)
		}
	}
}

func TestDimensionMismatch(t *testing.T) {
	ix := NewIndex(3, 0.3)

	if err := ix.AddChunk("a", []float32{1, 0}); err == nil {
		t.Error("expected dimension error on AddChunk")
	}
	if _, err := ix.Search([]float32{1, 0}, 5); err == nil {
		t.Error("expected dimension error on Search")
	}
	if err := ix.Rebuild(map[string][]float32{"a": {1, 0}}); err == nil {
		t.Error("expected dimension error on Rebuild")
	}
}

func TestRebuildReplaces(t *testing.T) {
	ix := NewIndex(2, 0.0)

	ix.AddChunk("old", []float32{1, 0})
	if err := ix.Rebuild(map[string][]float32{
		"new1": {1, 0},
		"new2": {0, 1},
	}); err != nil {
		t.Fatal(err)
	}

	if ix.Len() != 2 {
		t.Errorf("expected 2 vectors after rebuild, got %d", ix.Len())
	}
	hits, _ := ix.Search([]float32{1, 0}, 10)
	for _, hit := range hits {
		if hit.ChunkID == "old" {
			t.Error("rebuild kept stale vector")
		}
	}
}

func TestNegativeSimilarityClamped(t *testing.T) {
	ix := NewIndex(2, 0.0)

	ix.AddChunk("opposite", []float32{-1, 0})
	hits, err := ix.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	// Clamped to 0, which does not exceed the threshold of 0.
	if len(hits) != 0 {
		t.Errorf("expected opposite vector filtered, got %v", hits)
	}
}
