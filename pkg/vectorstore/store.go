package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/llm"
)

const (
	indexFileName = "index.json"

	// contextHeader and contextSeparator shape the retrieved context block
	// that gets embedded in generation prompts.
	contextHeader    = "Relevant Database Schema Information:"
	contextSeparator = "\n\n---\n\n"
)

// Store is a persisted embedding index over schema chunks. All methods are
// safe for concurrent use.
type Store struct {
	embedder llm.Embedder
	splitter *Splitter
	path     string
	logger   *zap.Logger

	mu     sync.RWMutex
	chunks []Chunk

	loaderMu sync.Mutex
	loader   func(context.Context) ([]Document, error)
}

type indexFile struct {
	CreatedAt time.Time `json:"created_at"`
	Chunks    []Chunk   `json:"chunks"`
}

func NewStore(embedder llm.Embedder, splitter *Splitter, path string, logger *zap.Logger) *Store {
	return &Store{
		embedder: embedder,
		splitter: splitter,
		path:     path,
		logger:   logger.Named("vectorstore"),
	}
}

// Build populates the index. Unless force is set, a previously persisted
// non-empty index is loaded instead of re-embedding, so repeated startups do
// not spend embedding calls on an unchanged schema. The loaded index may be
// stale if the schema changed since it was written; force discards it.
func (s *Store) Build(ctx context.Context, docs []Document, force bool) error {
	if !force {
		if loaded, err := s.loadIndex(); err != nil {
			s.logger.Warn("could not load persisted index, rebuilding", zap.Error(err))
		} else if len(loaded) > 0 {
			s.mu.Lock()
			s.chunks = loaded
			s.mu.Unlock()
			s.logger.Info("loaded persisted index",
				zap.Int("chunks", len(loaded)),
				zap.String("path", s.path))
			return nil
		}
	}

	chunks := s.splitter.SplitDocuments(docs)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.Content
	}

	start := time.Now()
	embeddings, err := s.embedder.CreateEmbeddings(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d embeddings for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()

	if err := s.persistIndex(chunks); err != nil {
		// The in-memory index is usable; persistence failure only costs a
		// rebuild on the next startup.
		s.logger.Warn("could not persist index", zap.Error(err))
	}

	s.logger.Info("built index",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// SetDocumentLoader installs a fallback used by Search when the index is
// empty: documents are loaded and the index built on first use instead of
// failing with ErrIndexNotBuilt. The call is synchronous and blocks the
// triggering search.
func (s *Store) SetDocumentLoader(loader func(context.Context) ([]Document, error)) {
	s.loaderMu.Lock()
	s.loader = loader
	s.loaderMu.Unlock()
}

func (s *Store) lazyBuild(ctx context.Context) error {
	s.loaderMu.Lock()
	defer s.loaderMu.Unlock()

	// A concurrent search may have built the index while we waited.
	if s.Count() > 0 {
		return nil
	}
	if s.loader == nil {
		return apperrors.ErrIndexNotBuilt
	}

	s.logger.Info("index empty, building on first search")
	docs, err := s.loader(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	return s.Build(ctx, docs, false)
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Search embeds the query and returns the k most similar chunks, most
// similar first. Equal similarities are ordered by chunk position. An empty
// index is built through the installed document loader first, if any.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	s.mu.RLock()
	chunks := s.chunks
	s.mu.RUnlock()

	if len(chunks) == 0 {
		if err := s.lazyBuild(ctx); err != nil {
			return nil, err
		}
		s.mu.RLock()
		chunks = s.chunks
		s.mu.RUnlock()
		if len(chunks) == 0 {
			return nil, apperrors.ErrIndexNotBuilt
		}
	}

	queryEmbedding, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		chunk Chunk
		score float64
	}
	results := make([]scored, len(chunks))
	for i, c := range chunks {
		results[i] = scored{chunk: c, score: CosineSimilarity(queryEmbedding, c.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunk.Position < results[j].chunk.Position
	})

	if k > len(results) {
		k = len(results)
	}
	top := make([]Chunk, k)
	for i := 0; i < k; i++ {
		top[i] = results[i].chunk
	}
	return top, nil
}

// GetContext retrieves the top-k chunks for the query and renders them as a
// single context block for prompt assembly.
func (s *Store) GetContext(ctx context.Context, query string, k int) (string, error) {
	chunks, err := s.Search(ctx, query, k)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return contextHeader + "\n\n" + strings.Join(parts, contextSeparator), nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.path, indexFileName)
}

func (s *Store) loadIndex() ([]Chunk, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse index file: %w", err)
	}

	// An index without embeddings cannot serve searches; treat it as absent
	// rather than mixing un-embedded chunks into retrieval.
	for _, c := range file.Chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("index file contains chunk without embedding")
		}
	}
	return file.Chunks, nil
}

func (s *Store) persistIndex(chunks []Chunk) error {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	data, err := json.Marshal(indexFile{CreatedAt: time.Now().UTC(), Chunks: chunks})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	if err := os.Rename(tmp, s.indexPath()); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}
