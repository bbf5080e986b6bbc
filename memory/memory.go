package memory

import "context"

// Document is a stored text with its flat metadata.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// ScoredDocument is a search hit with its raw distance (lower = closer).
type ScoredDocument struct {
	Document
	Distance float64
}

// Backend is the vector storage capability interface. Any vector-indexed
// text store satisfies it; the SDK ships a chromem-go implementation and
// tests use an in-memory double.
//
// Backends are assumed safe for concurrent add/search from multiple
// callers. No transactional guarantee spans a search-then-mutate sequence.
type Backend interface {
	// AddTexts stores texts with their metadata under the given ids and
	// returns the ids actually used.
	AddTexts(ctx context.Context, texts []string, metadatas []map[string]string, ids []string) ([]string, error)

	// Get retrieves documents by id. Unknown ids are simply absent from the
	// result.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by id.
	Delete(ctx context.Context, ids []string) error

	// SimilaritySearchWithScore returns up to k documents ordered by
	// ascending distance to the query.
	SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]ScoredDocument, error)
}

// Embedder converts text to vector embeddings. It is an implementation
// detail of Backend implementations that need one (e.g. chromem).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
