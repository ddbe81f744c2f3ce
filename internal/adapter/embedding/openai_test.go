package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingsHandler(t *testing.T, dimension int, requests *[]int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*requests = append(*requests, len(req.Input))

		resp := embeddingResponse{Data: make([]embeddingData, len(req.Input))}
		for i := range req.Input {
			resp.Data[i] = embeddingData{Embedding: make([]float32, dimension), Index: i}
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestEmbedBatching(t *testing.T) {
	t.Setenv("LABKB_TEST_EMBED_KEY", "test-key")

	var requests []int
	srv := httptest.NewServer(embeddingsHandler(t, 8, &requests))
	defer srv.Close()

	e, err := NewCompatibleEmbedder("LABKB_TEST_EMBED_KEY", "test-model", srv.URL, 8, 2)
	if err != nil {
		t.Fatalf("NewCompatibleEmbedder: %v", err)
	}

	vectors, err := e.Embed([]string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 5 {
		t.Fatalf("vectors = %d, want 5", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 8 {
			t.Errorf("vectors[%d] dimension = %d, want 8", i, len(v))
		}
	}

	want := []int{2, 2, 1}
	if len(requests) != len(want) {
		t.Fatalf("batches = %v, want %v", requests, want)
	}
	for i := range want {
		if requests[i] != want[i] {
			t.Errorf("batch %d size = %d, want %d", i, requests[i], want[i])
		}
	}
}

func TestBatchSizeDefault(t *testing.T) {
	t.Setenv("LABKB_TEST_EMBED_KEY", "test-key")

	e, err := NewCompatibleEmbedder("LABKB_TEST_EMBED_KEY", "test-model", "http://127.0.0.1:0", 8, 0)
	if err != nil {
		t.Fatalf("NewCompatibleEmbedder: %v", err)
	}
	if e.batchSize != 100 {
		t.Errorf("batchSize = %d, want 100", e.batchSize)
	}

	o, err := NewOllamaEmbedder("nomic-embed-text", "", -1)
	if err != nil {
		t.Fatalf("NewOllamaEmbedder: %v", err)
	}
	if o.batchSize != 100 {
		t.Errorf("ollama batchSize = %d, want 100", o.batchSize)
	}
}
