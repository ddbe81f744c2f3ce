package vectorindex

import (
	"sync"

	"go.uber.org/zap"

	"labkb/internal/domain"
	"labkb/internal/port"
)

// VectorMemo is the on-disk memoization of the embedded vector set, keyed by
// a fingerprint of the document set. The document store provides it.
type VectorMemo interface {
	Fingerprint() (string, error)
	SaveVectors(fingerprint, model string, vectors map[string][]float32) error
	LoadVectors(fingerprint, model string) (map[string][]float32, bool)
}

// DocumentLister is the slice of the document store the manager needs to
// build an index.
type DocumentLister interface {
	List() ([]domain.Document, error)
}

// Manager owns the lazily-built semantic index: the chunk set derived from
// the document store plus one vector per chunk. Nothing is embedded until
// the first search that needs vectors; concurrent first searches build
// exactly once. A document mutation invalidates the build, and the next
// search rebuilds against the new document set.
type Manager struct {
	docs     DocumentLister
	memo     VectorMemo
	chunker  port.Chunker
	embedder port.Embedder
	logger   *zap.Logger

	threshold float64

	mu     sync.Mutex
	index  *Index
	chunks map[string]domain.Chunk
	built  bool
}

func NewManager(
	docs DocumentLister,
	memo VectorMemo,
	chunker port.Chunker,
	embedder port.Embedder,
	threshold float64,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		docs:      docs,
		memo:      memo,
		chunker:   chunker,
		embedder:  embedder,
		logger:    logger,
		threshold: threshold,
	}
}

// Invalidate marks the index stale. Called after any document mutation.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = false
}

// Search embeds the query and returns the nearest chunks as retrieval
// results tagged with the vector method. When docID is non-empty, results
// are restricted to that document's chunks. Embedding-provider failures
// surface as domain.ErrEmbeddingUnavailable for the caller to degrade on.
func (m *Manager) Search(query string, topK int, docID string) ([]domain.RetrievalResult, error) {
	if m.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	index, chunks, err := m.ensureBuilt()
	if err != nil {
		return nil, err
	}

	vectors, err := m.embedder.Embed([]string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.ErrEmbeddingUnavailable
	}

	// Over-fetch when restricting to one document so the filter still
	// leaves topK candidates.
	fetchK := topK
	if docID != "" {
		fetchK = index.Len()
	}

	hits, err := index.Search(vectors[0], fetchK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := chunks[hit.ChunkID]
		if !ok {
			continue
		}
		if docID != "" && chunk.DocID != docID {
			continue
		}
		results = append(results, domain.RetrievalResult{
			DocID:      chunk.DocID,
			ChunkID:    chunk.ID,
			Title:      chunk.Title,
			Content:    chunk.Content,
			Similarity: hit.Similarity,
			Method:     domain.MethodVector,
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// ensureBuilt builds the index on first use. The build embeds every chunk
// of every document unless the on-disk memo already holds vectors for the
// exact document set and embedding model.
func (m *Manager) ensureBuilt() (*Index, map[string]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.built {
		return m.index, m.chunks, nil
	}

	docs, err := m.docs.List()
	if err != nil {
		return nil, nil, err
	}

	chunks := make(map[string]domain.Chunk)
	var ordered []domain.Chunk
	for _, doc := range docs {
		for _, chunk := range m.chunker.Chunk(doc) {
			chunks[chunk.ID] = chunk
			ordered = append(ordered, chunk)
		}
	}

	vectors, err := m.vectorsFor(ordered)
	if err != nil {
		return nil, nil, err
	}

	index := NewIndex(m.embedder.Dimension(), m.threshold)
	if err := index.Rebuild(vectors); err != nil {
		return nil, nil, err
	}

	m.index = index
	m.chunks = chunks
	m.built = true

	m.logger.Info("semantic index built",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(ordered)),
		zap.String("model", m.embedder.ModelName()))

	return m.index, m.chunks, nil
}

// vectorsFor returns one vector per chunk, trying the memo first and
// re-embedding on any miss. The memo is transparently overwritten after a
// fresh embedding pass; a failure to save is logged and ignored.
func (m *Manager) vectorsFor(chunks []domain.Chunk) (map[string][]float32, error) {
	fingerprint, err := m.memo.Fingerprint()
	if err == nil {
		if cached, ok := m.memo.LoadVectors(fingerprint, m.embedder.ModelName()); ok && len(cached) == len(chunks) {
			m.logger.Debug("loaded vectors from memo", zap.Int("chunks", len(cached)))
			return cached, nil
		}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embedded, err := m.embedder.Embed(texts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(chunks) {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vectors := make(map[string][]float32, len(chunks))
	for i, chunk := range chunks {
		vectors[chunk.ID] = embedded[i]
	}

	if fingerprint != "" {
		if err := m.memo.SaveVectors(fingerprint, m.embedder.ModelName(), vectors); err != nil {
			m.logger.Warn("failed to memoize vectors", zap.Error(err))
		}
	}
	return vectors, nil
}
