package chunker

import (
	"fmt"
	"strings"

	"labkb/internal/domain"
)

// TextChunker splits documents on paragraph boundaries, falling back to
// sentence boundaries for oversize paragraphs and to fixed windows for
// oversize sentences. Sizes are measured in runes so multi-byte text is
// never cut mid-character.
type TextChunker struct {
	maxSize int
	overlap int
}

func NewTextChunker(maxSize, overlap int) *TextChunker {
	if maxSize <= 0 {
		maxSize = 512
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}
	return &TextChunker{maxSize: maxSize, overlap: overlap}
}

// Chunk derives the retrieval chunks for a document. Chunk IDs are
// "{docID}_chunk_{n}" with n in source order.
func (c *TextChunker) Chunk(doc domain.Document) []domain.Chunk {
	texts := c.Split(doc.Title, doc.Content)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:      fmt.Sprintf("%s_chunk_%d", doc.ID, i),
			DocID:   doc.ID,
			Title:   doc.Title,
			Content: text,
			Ordinal: i,
		})
	}
	return chunks
}

// Split returns the chunk texts for a title plus content. The title is
// prepended so every chunk of a short document carries it; long documents
// split on "\n\n" paragraph boundaries first.
func (c *TextChunker) Split(title, content string) []string {
	if content == "" {
		return []string{title}
	}

	full := title + "\n\n" + content
	if runeLen(full) <= c.maxSize {
		return []string{full}
	}

	var chunks []string
	var buf []string
	bufSize := 0

	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n\n"))
			buf = nil
			bufSize = 0
		}
	}

	for _, para := range strings.Split(full, "\n\n") {
		paraSize := runeLen(para)

		if paraSize > c.maxSize {
			flush()
			chunks = append(chunks, c.splitParagraph(para)...)
			continue
		}

		cost := paraSize
		if len(buf) > 0 {
			cost += 2 // the "\n\n" joiner counts against the limit
		}
		if bufSize+cost > c.maxSize {
			flush()
			cost = paraSize
		}
		buf = append(buf, para)
		bufSize += cost
	}
	flush()

	return chunks
}

// splitParagraph applies the accumulate-and-flush rule at sentence
// granularity, hard-splitting any single sentence that still exceeds the
// limit.
func (c *TextChunker) splitParagraph(para string) []string {
	var chunks []string
	var buf []string
	bufSize := 0

	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, " "))
			buf = nil
			bufSize = 0
		}
	}

	for _, sentence := range splitSentences(para) {
		size := runeLen(sentence)

		if size > c.maxSize {
			flush()
			chunks = append(chunks, c.hardSplit(sentence)...)
			continue
		}

		cost := size
		if len(buf) > 0 {
			cost++ // the " " joiner counts against the limit
		}
		if bufSize+cost > c.maxSize {
			flush()
			cost = size
		}
		buf = append(buf, sentence)
		bufSize += cost
	}
	flush()

	return chunks
}

// hardSplit windows an indivisible sentence into pieces of at most maxSize
// runes, stepping by maxSize-overlap so adjacent windows share context.
func (c *TextChunker) hardSplit(sentence string) []string {
	runes := []rune(sentence)
	step := c.maxSize - c.overlap

	var parts []string
	for i := 0; i < len(runes); i += step {
		end := i + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return parts
}

// splitSentences splits on sentence-ending punctuation followed by a space.
// The punctuation stays with its sentence; the separating space is dropped
// and reintroduced when sentences are rejoined.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && runes[i+1] == ' ' {
			sentences = append(sentences, string(runes[start:i+1]))
			start = i + 2
			i++
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
