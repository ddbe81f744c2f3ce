package retriever

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"labkb/internal/adapter/docstore"
	"labkb/internal/domain"
)

type fakeSemantic struct {
	results []domain.RetrievalResult
	err     error
}

func (f *fakeSemantic) Search(query string, topK int, docID string) ([]domain.RetrievalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func newStore(t *testing.T, docs ...domain.Document) *docstore.BoltStore {
	t.Helper()
	st, err := docstore.NewBoltStore(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	for _, doc := range docs {
		doc.UpdatedAt = time.Unix(1700000000, 0)
		if err := st.Put(doc); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func vectorHit(docID, chunkID string, sim float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		DocID:      docID,
		ChunkID:    chunkID,
		Title:      "T-" + docID,
		Content:    "chunk content",
		Similarity: sim,
		Method:     domain.MethodVector,
	}
}

func TestMergeKeepsBestPerDocument(t *testing.T) {
	st := newStore(t,
		domain.Document{ID: "d1", Title: "Docker Guide", Content: "docker basics"},
	)
	sem := &fakeSemantic{results: []domain.RetrievalResult{
		vectorHit("d1", "d1_chunk_1", 0.9),
		vectorHit("d1", "d1_chunk_0", 0.7), // same parent, lower score
		vectorHit("d2", "d2_chunk_0", 0.6),
	}}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())
	results, err := r.Retrieve("docker", 5)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected one result per document, got %d", len(results))
	}
	if results[0].ChunkID != "d1_chunk_1" || results[0].Similarity != 0.9 {
		t.Errorf("best chunk per document not kept: %+v", results[0])
	}
	if results[1].DocID != "d2" {
		t.Errorf("expected d2 second, got %+v", results[1])
	}
}

func TestKeywordHitsFillGaps(t *testing.T) {
	st := newStore(t,
		domain.Document{ID: "d1", Title: "Docker Guide", Content: "all about containers"},
		domain.Document{ID: "d2", Title: "Notes", Content: "docker networking details"},
	)
	// Vector tier only found d1.
	sem := &fakeSemantic{results: []domain.RetrievalResult{
		vectorHit("d1", "d1_chunk_0", 0.8),
	}}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())
	results, err := r.Retrieve("docker", 5)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].DocID != "d1" || results[0].Method != domain.MethodVector {
		t.Errorf("vector hit should outrank keyword hit: %+v", results[0])
	}
	if results[1].DocID != "d2" || results[1].Method != domain.MethodKeyword {
		t.Errorf("expected keyword hit for d2: %+v", results[1])
	}
	if s := results[1].Similarity; s <= 0 || s >= 1 {
		t.Errorf("keyword similarity must be in (0,1), got %f", s)
	}
}

func TestTitleMatchOutranksContentMatch(t *testing.T) {
	st := newStore(t,
		domain.Document{ID: "d1", Title: "Kubernetes Intro", Content: "orchestration"},
		domain.Document{ID: "d2", Title: "Misc", Content: "kubernetes in passing"},
	)
	sem := &fakeSemantic{err: domain.ErrEmbeddingUnavailable}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())
	results, err := r.Retrieve("kubernetes", 5)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].DocID != "d1" {
		t.Errorf("title match should rank above content match: %+v", results)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Errorf("title-weighted score not higher: %f vs %f",
			results[0].Similarity, results[1].Similarity)
	}
}

func TestDegradesWhenEmbeddingUnavailable(t *testing.T) {
	st := newStore(t,
		domain.Document{ID: "d1", Title: "RAG Basics", Content: "retrieval augmented generation"},
	)
	sem := &fakeSemantic{err: domain.ErrEmbeddingUnavailable}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())
	results, err := r.Retrieve("retrieval", 5)
	if err != nil {
		t.Fatalf("degradation must not surface an error, got %v", err)
	}
	if len(results) != 1 || results[0].Method != domain.MethodKeyword {
		t.Errorf("expected keyword-only results, got %+v", results)
	}
}

func TestEmptyStoreEmptyResult(t *testing.T) {
	st := newStore(t)
	sem := &fakeSemantic{}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())
	results, err := r.Retrieve("anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result set, got %+v", results)
	}
}

func TestTopKTruncation(t *testing.T) {
	docs := []domain.Document{
		{ID: "a", Title: "match one", Content: "match"},
		{ID: "b", Title: "match two", Content: "match"},
		{ID: "c", Title: "match three", Content: "match"},
	}
	st := newStore(t, docs...)
	sem := &fakeSemantic{err: domain.ErrEmbeddingUnavailable}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())
	results, err := r.Retrieve("match", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected truncation to 2, got %d", len(results))
	}
}

func TestRetrievalDeterminism(t *testing.T) {
	st := newStore(t,
		domain.Document{ID: "b", Title: "same words", Content: "same body"},
		domain.Document{ID: "a", Title: "same words", Content: "same body"},
		domain.Document{ID: "c", Title: "same words", Content: "same body"},
	)
	sem := &fakeSemantic{err: domain.ErrEmbeddingUnavailable}

	r := NewHybridRetriever(sem, st, 0.55, 0.35, zap.NewNop())

	first, err := r.Retrieve("same", 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve("same", 5)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("retrieval not deterministic:\nfirst %+v\nagain %+v", first, again)
		}
	}
	// All scores tie, so order falls back to document id.
	if first[0].DocID != "a" || first[1].DocID != "b" || first[2].DocID != "c" {
		t.Errorf("tie-break by doc id violated: %+v", first)
	}
}
