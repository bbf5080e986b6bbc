package memory

import (
	"context"
	"fmt"

	"github.com/atomhq/atom-go-sdk/logging"
)

// SearchResult is a similarity search hit. Score is in [0,1], higher = more
// similar.
type SearchResult struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float64
}

// Record rebuilds the typed record view of this hit.
func (s SearchResult) Record() Record {
	return recordFromDocument(Document{ID: s.ID, Text: s.Text, Metadata: s.Metadata})
}

// LongTermStore is the durable keyed-text store with similarity search.
// It validates every write and emulates update as delete-then-reinsert
// under the same id when the backend has no native update.
type LongTermStore struct {
	backend Backend
	log     logging.Logger
}

// NewLongTermStore wraps a backend. A nil logger defaults to slog.
func NewLongTermStore(backend Backend, log logging.Logger) *LongTermStore {
	if log == nil {
		log = logging.Default()
	}
	return &LongTermStore{backend: backend, log: log}
}

// Add persists a record after validation. Empty text is a no-op, not an
// error. A validation failure rejects the write and returns the reason;
// callers on the pipeline log and continue, so they must not assume
// success.
func (s *LongTermStore) Add(ctx context.Context, rec Record) (string, error) {
	if rec.Text == "" {
		s.log.Debug("memory add skipped: empty text")
		return "", nil
	}
	if err := rec.Validate(); err != nil {
		s.log.Warn("memory add rejected", "reason", err.Error())
		return "", err
	}
	rec.fill()

	ids, err := s.backend.AddTexts(ctx,
		[]string{rec.Text},
		[]map[string]string{rec.metadata()},
		[]string{rec.ID},
	)
	if err != nil {
		s.log.Error("memory add failed", "error", err.Error())
		return "", fmt.Errorf("add record: %w", err)
	}
	if len(ids) > 0 {
		rec.ID = ids[0]
	}
	s.log.Info("memory stored", "id", rec.ID, "type", rec.Type, "text", rec.Text)
	return rec.ID, nil
}

// Update replaces the text of an existing record, preserving its id and
// created_at and merging the provided metadata over the stored metadata.
// Emulated as delete-then-reinsert under the same id. An unknown id is a
// no-op reported as failure.
func (s *LongTermStore) Update(ctx context.Context, id, newText string, metadataMerge map[string]string) error {
	if id == "" {
		return fmt.Errorf("update: %w", ErrNotFound)
	}
	docs, err := s.backend.Get(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("update lookup: %w", err)
	}
	if len(docs) == 0 {
		s.log.Warn("memory update skipped: id not found", "id", id)
		return fmt.Errorf("update %q: %w", id, ErrNotFound)
	}
	existing := docs[0]

	merged := make(map[string]string, len(existing.Metadata)+len(metadataMerge))
	for k, v := range existing.Metadata {
		merged[k] = v
	}
	for k, v := range metadataMerge {
		if k == "created_at" {
			continue // set once at creation, never mutated
		}
		merged[k] = v
	}

	if newText == "" {
		newText = existing.Text
	}

	if err := s.backend.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("update delete: %w", err)
	}
	if _, err := s.backend.AddTexts(ctx, []string{newText}, []map[string]string{merged}, []string{id}); err != nil {
		return fmt.Errorf("update reinsert: %w", err)
	}
	s.log.Info("memory replaced", "id", id, "text", newText)
	return nil
}

// Search returns up to topK records ordered by descending similarity.
// Distances convert to similarity via 1/(1+distance), clamped to 0 when
// conversion is impossible.
func (s *LongTermStore) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if query == "" || topK < 1 {
		return nil, nil
	}
	scored, err := s.backend.SimilaritySearchWithScore(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	results := make([]SearchResult, 0, len(scored))
	for _, doc := range scored {
		results = append(results, SearchResult{
			ID:       doc.ID,
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Score:    distanceToSimilarity(doc.Distance),
		})
	}
	return results, nil
}

// SimilaritySearchFiltered is Search with a minimum score and an optional
// type filter. An empty typeFilter matches every type.
func (s *LongTermStore) SimilaritySearchFiltered(ctx context.Context, query string, topK int, minScore float64, typeFilter string) ([]SearchResult, error) {
	results, err := s.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		if typeFilter != "" && r.Metadata["type"] != typeFilter {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// distanceToSimilarity maps a distance (lower = closer) into [0,1].
func distanceToSimilarity(distance float64) float64 {
	if distance < 0 || distance != distance { // negative or NaN
		return 0
	}
	return 1 / (1 + distance)
}
