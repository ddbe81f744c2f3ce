package embedding

import "labkb/internal/domain"

// MockEmbedder produces deterministic pseudo-embeddings derived from the
// text's characters. Used by tests and offline setups.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, e.dimension)
		pos := 0
		for _, r := range texts[i] {
			embeddings[i][pos%e.dimension] += float32(r) / 1000.0
			pos++
		}
	}
	return embeddings, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}

// UnavailableEmbedder always fails with domain.ErrEmbeddingUnavailable.
// Used to exercise lexical-only degradation in tests.
type UnavailableEmbedder struct {
	dimension int
}

func NewUnavailableEmbedder(dimension int) *UnavailableEmbedder {
	return &UnavailableEmbedder{dimension: dimension}
}

func (e *UnavailableEmbedder) Embed(texts []string) ([][]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func (e *UnavailableEmbedder) Dimension() int {
	return e.dimension
}

func (e *UnavailableEmbedder) ModelName() string {
	return "unavailable"
}
