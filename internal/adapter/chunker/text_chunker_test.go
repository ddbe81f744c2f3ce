package chunker

import (
	"strings"
	"testing"

	"labkb/internal/domain"
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\t':
			return -1
		}
		return r
	}, s)
}

func TestShortDocumentSingleChunk(t *testing.T) {
	c := NewTextChunker(512, 50)

	texts := c.Split("RAG Basics", "RAG combines retrieval with generation.")
	if len(texts) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "RAG Basics") {
		t.Error("title missing from single chunk")
	}
	if !strings.Contains(texts[0], "retrieval with generation") {
		t.Error("content missing from single chunk")
	}
}

func TestEmptyContentYieldsTitle(t *testing.T) {
	c := NewTextChunker(512, 50)

	texts := c.Split("Just a Title", "")
	if len(texts) != 1 || texts[0] != "Just a Title" {
		t.Errorf("expected title-only chunk, got %v", texts)
	}
}

func TestParagraphSplitting(t *testing.T) {
	c := NewTextChunker(100, 10)

	paras := []string{
		strings.Repeat("alpha ", 10), // 60 chars
		strings.Repeat("beta ", 10),  // 50 chars
		strings.Repeat("gamma ", 10), // 60 chars
	}
	content := strings.Join(paras, "\n\n")

	texts := c.Split("T", content)
	if len(texts) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(texts))
	}
	for i, text := range texts {
		if n := len([]rune(text)); n > 100 {
			t.Errorf("chunk %d exceeds max size: %d runes", i, n)
		}
	}
}

func TestChunkCoverage(t *testing.T) {
	c := NewTextChunker(80, 10)

	content := "First paragraph with some words.\n\n" +
		"Second paragraph, a little longer than the first one here.\n\n" +
		"Third one. It has two sentences inside it for splitting.\n\n" +
		"Fourth closes the document."

	texts := c.Split("Coverage", content)

	var joined strings.Builder
	for _, text := range texts {
		joined.WriteString(text)
		joined.WriteString("\n")
	}

	want := stripSpace("Coverage\n\n" + content)
	got := stripSpace(joined.String())
	if got != want {
		t.Errorf("chunk concatenation lost characters:\nwant %q\ngot  %q", want, got)
	}
}

func TestOversizeParagraphSentenceSplit(t *testing.T) {
	c := NewTextChunker(60, 5)

	// One paragraph, several sentences, no sentence above the limit.
	para := "The first sentence is here. Another sentence follows it. " +
		"A third sentence keeps going. The fourth wraps it all up."

	texts := c.Split("T", para)
	if len(texts) < 2 {
		t.Fatalf("expected sentence-level split, got %d chunks", len(texts))
	}
	for i, text := range texts {
		if n := len([]rune(text)); n > 60 {
			t.Errorf("chunk %d exceeds max size: %d runes", i, n)
		}
	}

	want := stripSpace("T " + para)
	got := stripSpace(strings.Join(texts, " "))
	if got != want {
		t.Errorf("sentence split lost characters:\nwant %q\ngot  %q", want, got)
	}
}

func TestIndivisibleSentenceHardSplit(t *testing.T) {
	c := NewTextChunker(50, 10)

	sentence := strings.Repeat("x", 130) // no sentence boundary at all
	texts := c.Split("T", sentence)

	for i, text := range texts {
		if n := len([]rune(text)); n > 50 {
			t.Errorf("window %d exceeds max size: %d runes", i, n)
		}
	}

	// Windows step by maxSize-overlap, so consecutive windows repeat the
	// overlap region.
	var hard []string
	for _, text := range texts {
		if strings.HasPrefix(text, "x") {
			hard = append(hard, text)
		}
	}
	if len(hard) < 3 {
		t.Fatalf("expected at least 3 windows for 130 chars at step 40, got %d", len(hard))
	}
	if !strings.HasSuffix(hard[0], strings.Repeat("x", 10)) {
		t.Error("window content mismatch")
	}
}

func TestThreeThousandCharDocument(t *testing.T) {
	c := NewTextChunker(1000, 50)

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 3))
		sb.WriteString("\n\n")
	}
	content := strings.TrimSuffix(sb.String(), "\n\n") // ~2900+ chars

	texts := c.Split("Long Document", content)
	if len(texts) < 3 {
		t.Errorf("expected at least 3 chunks, got %d", len(texts))
	}
	for i, text := range texts {
		if n := len([]rune(text)); n > 1000 {
			t.Errorf("chunk %d exceeds 1000 runes: %d", i, n)
		}
	}
}

func TestMultiByteSafe(t *testing.T) {
	c := NewTextChunker(20, 4)

	content := strings.Repeat("深度学习模型训练", 10) // 80 runes, 240 bytes, no boundaries
	texts := c.Split("中文", content)

	for i, text := range texts {
		if !strings.ContainsRune("深度学习模型训练中文", []rune(text)[0]) {
			t.Errorf("chunk %d starts mid-character: %q", i, text)
		}
		if n := len([]rune(text)); n > 20 {
			t.Errorf("chunk %d exceeds 20 runes: %d", i, n)
		}
	}
}

func TestChunkIDs(t *testing.T) {
	c := NewTextChunker(40, 5)

	doc := domain.Document{
		ID:      "d42",
		Title:   "Title",
		Content: "First paragraph right here.\n\nSecond paragraph over there.\n\nThird paragraph beyond.",
	}

	chunks := c.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		want := "d42_chunk_" + string(rune('0'+i))
		if ch.ID != want {
			t.Errorf("chunk %d: expected id %s, got %s", i, want, ch.ID)
		}
		if ch.DocID != "d42" || ch.Ordinal != i || ch.Title != "Title" {
			t.Errorf("chunk %d metadata wrong: %+v", i, ch)
		}
	}
}
