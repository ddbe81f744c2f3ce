package retriever

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"labkb/internal/domain"
	"labkb/internal/port"
)

// SemanticSearcher is the vector tier of hybrid retrieval.
type SemanticSearcher interface {
	Search(query string, topK int, docID string) ([]domain.RetrievalResult, error)
}

// HybridRetriever merges vector-similarity hits with lexical hits from the
// document store, keeps the best hit per parent document, and ranks by
// similarity. The vector tier is optional at runtime: if the embedding
// provider is unreachable the retriever silently serves keyword results
// alone.
type HybridRetriever struct {
	semantic SemanticSearcher
	store    port.DocumentStore
	logger   *zap.Logger

	titleWeight   float64 // keyword similarity contribution of a title match
	contentWeight float64 // keyword similarity contribution of a content match
}

func NewHybridRetriever(
	semantic SemanticSearcher,
	store port.DocumentStore,
	titleWeight, contentWeight float64,
	logger *zap.Logger,
) *HybridRetriever {
	if titleWeight <= 0 {
		titleWeight = 0.55
	}
	if contentWeight <= 0 {
		contentWeight = 0.35
	}
	// Keyword scores must land strictly inside (0,1) so lexical hits
	// interleave with vector hits instead of pinning the top.
	if titleWeight+contentWeight >= 1 {
		titleWeight, contentWeight = 0.55, 0.35
	}

	return &HybridRetriever{
		semantic:      semantic,
		store:         store,
		logger:        logger,
		titleWeight:   titleWeight,
		contentWeight: contentWeight,
	}
}

// Retrieve returns up to topK results, at most one per document, ordered by
// descending similarity with document id as the deterministic tie-break.
func (r *HybridRetriever) Retrieve(query string, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = 5
	}

	best := make(map[string]domain.RetrievalResult)

	vector, err := r.semantic.Search(query, topK, "")
	switch {
	case err == nil:
		for _, res := range vector {
			if cur, ok := best[res.DocID]; !ok || res.Similarity > cur.Similarity {
				best[res.DocID] = res
			}
		}
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		r.logger.Warn("embedding unavailable, using keyword retrieval only", zap.Error(err))
	default:
		return nil, err
	}

	docs, err := r.store.SearchKeyword(query)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if _, ok := best[doc.ID]; ok {
			continue // document already represented by a vector hit
		}
		best[doc.ID] = domain.RetrievalResult{
			DocID:      doc.ID,
			ChunkID:    doc.ID, // document-level hit, no chunk granularity
			Title:      doc.Title,
			Content:    doc.Content,
			Similarity: r.keywordScore(query, doc),
			Method:     domain.MethodKeyword,
			Metadata:   doc.Metadata,
		}
	}

	merged := make([]domain.RetrievalResult, 0, len(best))
	for _, res := range best {
		merged = append(merged, res)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].DocID < merged[j].DocID
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

// keywordScore derives a similarity in (0,1) for a lexical hit, weighting a
// title match above a content match so title hits outrank body hits.
func (r *HybridRetriever) keywordScore(query string, doc domain.Document) float64 {
	needle := strings.ToLower(strings.TrimSpace(query))

	score := 0.0
	if strings.Contains(strings.ToLower(doc.Title), needle) {
		score += r.titleWeight
	}
	if strings.Contains(strings.ToLower(doc.Content), needle) {
		score += r.contentWeight
	}
	if score == 0 {
		// The store matched on a field we re-checked differently;
		// keep the hit with a floor score rather than dropping it.
		score = r.contentWeight / 2
	}
	return score
}
