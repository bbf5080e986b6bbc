// Package chromem implements the memory.Backend capability interface over
// chromem-go, a pure Go embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/atomhq/atom-go-sdk/logging"
	"github.com/atomhq/atom-go-sdk/memory"
)

// Store wraps a single chromem collection. Embeddings are computed through
// the provided Embedder; chromem's own embedding hook stays unused.
//
// chromem has no direct get-by-id, so the store keeps an id-indexed mirror
// of documents alongside the collection. The mirror also supplies the
// collection size for clamping query limits.
type Store struct {
	collection *chromem.Collection
	embedder   memory.Embedder
	log        logging.Logger

	mu   sync.RWMutex
	docs map[string]memory.Document
}

// New creates a chromem-backed store with the given collection name.
func New(collectionName string, embedder memory.Embedder, log logging.Logger) (*Store, error) {
	if collectionName == "" {
		collectionName = "long_term_memory"
	}
	if log == nil {
		log = logging.Default()
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{
		collection: col,
		embedder:   embedder,
		log:        log,
		docs:       make(map[string]memory.Document),
	}, nil
}

// AddTexts stores texts with their metadata under the given ids.
func (s *Store) AddTexts(ctx context.Context, texts []string, metadatas []map[string]string, ids []string) ([]string, error) {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return nil, fmt.Errorf("add texts: mismatched lengths (%d texts, %d metadatas, %d ids)",
			len(texts), len(metadatas), len(ids))
	}

	stored := make([]string, 0, len(texts))
	for i, text := range texts {
		embedding, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return stored, fmt.Errorf("embed text: %w", err)
		}

		doc := chromem.Document{
			ID:        ids[i],
			Content:   text,
			Embedding: embedding,
			Metadata:  metadatas[i],
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return stored, fmt.Errorf("add document: %w", err)
		}

		s.mu.Lock()
		s.docs[ids[i]] = memory.Document{ID: ids[i], Text: text, Metadata: cloneMetadata(metadatas[i])}
		s.mu.Unlock()

		stored = append(stored, ids[i])
		s.log.Debug("document stored", "id", ids[i])
	}
	return stored, nil
}

// Get retrieves documents by id from the mirror. Unknown ids are absent
// from the result.
func (s *Store) Get(ctx context.Context, ids []string) ([]memory.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]memory.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Delete removes documents by id from the collection and the mirror.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	s.mu.Lock()
	for _, id := range ids {
		delete(s.docs, id)
	}
	s.mu.Unlock()
	return nil
}

// SimilaritySearchWithScore embeds the query and returns up to k documents
// ordered by ascending distance. chromem reports cosine similarity, so
// distance = 1 - similarity.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]memory.ScoredDocument, error) {
	s.mu.RLock()
	size := len(s.docs)
	s.mu.RUnlock()
	if size == 0 {
		return nil, nil
	}
	// chromem requires nResults <= collection size
	if k > size {
		k = size
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	scored := make([]memory.ScoredDocument, 0, len(results))
	for _, result := range results {
		scored = append(scored, memory.ScoredDocument{
			Document: memory.Document{
				ID:       result.ID,
				Text:     result.Content,
				Metadata: result.Metadata,
			},
			Distance: float64(1 - result.Similarity),
		})
	}
	return scored, nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
