// Package vectorstore maintains a persisted embedding index over schema
// documents and answers similarity searches against it.
package vectorstore

// Document is a unit of schema text before splitting. Source identifies where
// it came from (a table name, "relationships", or "samples:<table>").
type Document struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Chunk is a splitter output with its embedding once the index is built.
// Position preserves the chunk's order within the full document stream; ties
// in similarity are broken by it so retrieval stays deterministic.
type Chunk struct {
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	Embedding []float32 `json:"embedding,omitempty"`
}
