package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"labkb/internal/domain"
	"labkb/internal/port"
)

const noInformationAnswer = "I could not find relevant information in the knowledge base for this question."

// DocumentSearcher is semantic search restricted to one document. An empty
// docID searches the whole index.
type DocumentSearcher interface {
	Search(query string, topK int, docID string) ([]domain.RetrievalResult, error)
}

// ResponseCache memoizes full responses per (query, provider).
type ResponseCache interface {
	Get(query, provider string) (domain.Response, bool)
	Put(query, provider string, resp domain.Response)
}

// AnswerUseCase runs the full question-answering pipeline: retrieve
// grounding passages, generate an answer constrained to them, and fall back
// to extraction when generation fails. Every outcome is a domain.Response;
// the pipeline itself never returns an error to the caller.
type AnswerUseCase struct {
	retriever port.Retriever
	docSearch DocumentSearcher
	store     port.DocumentStore
	chunker   port.Chunker
	generator port.Generator
	cache     ResponseCache
	topK      int
	logger    *zap.Logger
}

func NewAnswerUseCase(
	retriever port.Retriever,
	docSearch DocumentSearcher,
	store port.DocumentStore,
	chunker port.Chunker,
	generator port.Generator,
	cache ResponseCache,
	topK int,
	logger *zap.Logger,
) *AnswerUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &AnswerUseCase{
		retriever: retriever,
		docSearch: docSearch,
		store:     store,
		chunker:   chunker,
		generator: generator,
		cache:     cache,
		topK:      topK,
		logger:    logger,
	}
}

// Providers lists the configured generation provider names.
func (u *AnswerUseCase) Providers() []string {
	return u.generator.Providers()
}

// Answer resolves a question against the knowledge base. When docID is
// non-empty, grounding is restricted to that document. Whole-base answers
// are cached per (query, provider); document-restricted answers are not,
// since the document may change between calls.
func (u *AnswerUseCase) Answer(ctx context.Context, query, provider, docID string) domain.Response {
	if strings.TrimSpace(query) == "" {
		return domain.FailureResponse(fmt.Sprintf("%v: query must not be empty", domain.ErrInvalidQuery))
	}

	if docID == "" {
		if cached, ok := u.cache.Get(query, provider); ok {
			u.logger.Debug("cache hit", zap.String("provider", provider))
			return cached
		}
	}

	results, resp, failed := u.ground(query, docID)
	if failed {
		return resp
	}

	if len(results) == 0 {
		resp = domain.SuccessResponse(domain.Answer{
			Answer:  noInformationAnswer,
			Sources: []domain.Source{},
			Model:   "template",
		})
		if docID == "" {
			u.cache.Put(query, provider, resp)
		}
		return resp
	}

	answer, model := u.generate(ctx, query, provider, results)
	resp = domain.SuccessResponse(domain.Answer{
		Answer:  answer,
		Sources: sourcesOf(results),
		Model:   model,
	})
	if docID == "" {
		u.cache.Put(query, provider, resp)
	}
	return resp
}

// ground collects the passages the answer will be constrained to. The
// third return is true when grounding failed and resp carries the failure.
func (u *AnswerUseCase) ground(query, docID string) ([]domain.RetrievalResult, domain.Response, bool) {
	if docID == "" {
		results, err := u.retriever.Retrieve(query, u.topK)
		if err != nil {
			u.logger.Error("retrieval failed", zap.Error(err))
			return nil, domain.FailureResponse(fmt.Sprintf("retrieval failed: %v", err)), true
		}
		return results, domain.Response{}, false
	}

	doc, err := u.store.Get(docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.FailureResponse(fmt.Sprintf("document %s not found", docID)), true
		}
		u.logger.Error("document lookup failed", zap.String("id", docID), zap.Error(err))
		return nil, domain.FailureResponse(fmt.Sprintf("retrieval failed: %v", err)), true
	}

	results, err := u.docSearch.Search(query, u.topK, docID)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			u.logger.Error("document search failed", zap.String("id", docID), zap.Error(err))
			return nil, domain.FailureResponse(fmt.Sprintf("retrieval failed: %v", err)), true
		}
		// No embeddings: ground on the document's own chunks, ranked by
		// keyword overlap with the query.
		u.logger.Warn("embeddings unavailable, using document chunks directly",
			zap.String("id", docID))
		results = u.chunkResults(doc, query)
	}
	return results, domain.Response{}, false
}

// chunkResults turns a document's chunks into retrieval results ordered by
// query-term overlap.
func (u *AnswerUseCase) chunkResults(doc domain.Document, query string) []domain.RetrievalResult {
	chunks := u.chunker.Chunk(doc)
	results := make([]domain.RetrievalResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, domain.RetrievalResult{
			DocID:      chunk.DocID,
			ChunkID:    chunk.ID,
			Title:      chunk.Title,
			Content:    chunk.Content,
			Similarity: overlapScore(query, chunk.Content),
			Method:     domain.MethodKeyword,
			Metadata:   doc.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > u.topK {
		results = results[:u.topK]
	}
	return results
}

// generate asks the provider for an answer grounded in the retrieved
// passages. When generation fails after retries, it extracts the most
// relevant passage text instead, so the caller still gets a grounded
// answer.
func (u *AnswerUseCase) generate(ctx context.Context, query, provider string, results []domain.RetrievalResult) (answer, model string) {
	system := buildSystemPrompt()
	user := buildUserPrompt(query, results)

	text, err := u.generator.Generate(ctx, system, user, provider)
	if err == nil {
		return strings.TrimSpace(text), "RAG+" + provider
	}

	u.logger.Warn("generation failed, extracting from passages",
		zap.String("provider", provider),
		zap.Error(err))
	return extractAnswer(query, results), "fallback_" + provider
}

func buildSystemPrompt() string {
	return strings.Join([]string{
		"You are a knowledge base assistant.",
		"Answer using only the numbered excerpts provided by the user.",
		"If the excerpts do not contain enough information to answer, say so plainly instead of guessing.",
		"Do not use knowledge from outside the excerpts.",
	}, " ")
}

func buildUserPrompt(query string, results []domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("Excerpts from the knowledge base:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, r.Title, r.Content)
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}

// extractAnswer picks the paragraphs with the highest query-term overlap
// across the retrieved passages. With no overlap anywhere, the opening of
// the top passage is returned so the answer is never empty.
func extractAnswer(query string, results []domain.RetrievalResult) string {
	type scored struct {
		text  string
		score float64
	}
	var paragraphs []scored
	for _, r := range results {
		for _, para := range strings.Split(r.Content, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			paragraphs = append(paragraphs, scored{text: para, score: overlapScore(query, para)})
		}
	}
	if len(paragraphs) == 0 {
		return noInformationAnswer
	}

	sort.SliceStable(paragraphs, func(i, j int) bool {
		return paragraphs[i].score > paragraphs[j].score
	})
	if paragraphs[0].score == 0 {
		return paragraphs[0].text
	}

	var picked []string
	for _, p := range paragraphs {
		if p.score == 0 || len(picked) == 2 {
			break
		}
		picked = append(picked, p.text)
	}
	return strings.Join(picked, "\n\n")
}

// overlapScore is the fraction of query terms present in the text,
// case-insensitive.
func overlapScore(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// sourcesOf lists the distinct parent documents of the results, preserving
// result order.
func sourcesOf(results []domain.RetrievalResult) []domain.Source {
	seen := make(map[string]bool, len(results))
	sources := make([]domain.Source, 0, len(results))
	for _, r := range results {
		if seen[r.DocID] {
			continue
		}
		seen[r.DocID] = true
		sources = append(sources, domain.Source{Title: r.Title, ID: r.DocID})
	}
	return sources
}
