package vectorstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocuments_SmallDocumentSingleChunk(t *testing.T) {
	splitter := NewSplitter(1000, 200)

	chunks := splitter.SplitDocuments([]Document{
		{Source: "users", Content: "Table: users\nColumns:\n  - id (integer)"},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "users", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Contains(t, chunks[0].Content, "Table: users")
}

func TestSplitDocuments_RespectsChunkSize(t *testing.T) {
	splitter := NewSplitter(100, 20)

	paragraphs := make([]string, 20)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("word ", 10)
	}
	doc := Document{Source: "big", Content: strings.Join(paragraphs, "\n\n")}

	chunks := splitter.SplitDocuments([]Document{doc})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 100, "chunk exceeds size bound: %q", c.Content)
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
	}
}

func TestSplitDocuments_Deterministic(t *testing.T) {
	splitter := NewSplitter(80, 16)
	docs := []Document{
		{Source: "a", Content: strings.Repeat("alpha beta gamma delta ", 30)},
		{Source: "b", Content: strings.Repeat("one\ntwo\nthree\n", 40)},
	}

	first := splitter.SplitDocuments(docs)
	second := splitter.SplitDocuments(docs)

	assert.Equal(t, first, second)
}

func TestSplitDocuments_PositionsAreGlobalAndOrdered(t *testing.T) {
	splitter := NewSplitter(50, 10)
	docs := []Document{
		{Source: "a", Content: strings.Repeat("x ", 100)},
		{Source: "b", Content: strings.Repeat("y ", 100)},
	}

	chunks := splitter.SplitDocuments(docs)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
	}
}

func TestSplitDocuments_UnsplittableTextHardSplit(t *testing.T) {
	splitter := NewSplitter(32, 8)
	doc := Document{Source: "blob", Content: strings.Repeat("a", 100)}

	chunks := splitter.SplitDocuments([]Document{doc})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 32)
	}
}

func TestSplitDocuments_NoOverlapOnlyChunks(t *testing.T) {
	// Overlap nearly as large as the chunk size: when a carried overlap plus
	// the next word cannot fit, the overlap must be trimmed, not emitted as
	// its own chunk repeating the previous chunk's tail.
	splitter := NewSplitter(10, 8)
	doc := Document{Source: "tight", Content: "aaaa bbbb ccccccc"}

	chunks := splitter.SplitDocuments([]Document{doc})

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	assert.Equal(t, []string{"aaaa bbbb", "ccccccc"}, contents)
}

func TestSplitDocuments_OverlapTrimmedToFit(t *testing.T) {
	splitter := NewSplitter(10, 8)
	doc := Document{Source: "tight", Content: "aa bb cc ddddd"}

	chunks := splitter.SplitDocuments([]Document{doc})

	require.Len(t, chunks, 2)
	assert.Equal(t, "aa bb cc", chunks[0].Content)
	// Part of the overlap survives in front of the new piece.
	assert.Equal(t, "cc ddddd", chunks[1].Content)
}

func TestSplitDocuments_SkipsEmptyDocuments(t *testing.T) {
	splitter := NewSplitter(100, 20)

	chunks := splitter.SplitDocuments([]Document{
		{Source: "empty", Content: "   \n\n  "},
		{Source: "real", Content: "Table: orders"},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "real", chunks[0].Source)
}
