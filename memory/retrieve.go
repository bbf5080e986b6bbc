package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/atomhq/atom-go-sdk/logging"
)

// Read-path formatting limits: a retrieved memory block stays small enough
// to drop into a prompt without crowding out the conversation.
const (
	maxBullets     = 4
	maxBulletChars = 140
	maxBlockChars  = 400
)

// retrievalHeader prefixes every formatted memory block.
const retrievalHeader = "Relevant long-term memory:\n"

var (
	sourceBlobRe = regexp.MustCompile(`(?s)\(source=\{.*?\}\)`)
	braceBlobRe  = regexp.MustCompile(`(?s)\{.*?\}`)
	bracketRe    = regexp.MustCompile(`\[.*?\]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// RetrieverConfig tunes the synchronous read path.
type RetrieverConfig struct {
	// TopK bounds the similarity search (default 4).
	TopK int

	// MinScore drops weak matches (default 0.35).
	MinScore float64

	// CacheTTL is how long a formatted block is served from cache
	// (default 30s). Zero disables caching.
	CacheTTL time.Duration
}

// Retriever is the synchronous memory read path queried by conversation
// tools. It is entirely decoupled from the write pipeline: it never mutates
// the store, and a small TTL cache absorbs repeated queries within a turn.
type Retriever struct {
	store *LongTermStore
	cfg   RetrieverConfig
	cache *ristretto.Cache
	log   logging.Logger
}

// NewRetriever creates a Retriever over the store.
func NewRetriever(store *LongTermStore, cfg RetrieverConfig, log logging.Logger) (*Retriever, error) {
	if cfg.TopK < 1 {
		cfg.TopK = 4
	}
	if cfg.MinScore == 0 {
		cfg.MinScore = 0.35
	}
	if log == nil {
		log = logging.Default()
	}

	r := &Retriever{store: store, cfg: cfg, log: log}
	if cfg.CacheTTL > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,
			MaxCost:     1 << 20,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("retrieval cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Retrieve returns a compressed memory block relevant to the query, or an
// empty string when nothing clears the score floor. Read failures degrade
// to empty output.
func (r *Retriever) Retrieve(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(query); ok {
			if block, ok := cached.(string); ok {
				return block
			}
		}
	}

	results, err := r.store.SimilaritySearchFiltered(ctx, query, r.cfg.TopK, r.cfg.MinScore, "")
	if err != nil {
		r.log.Warn("memory retrieval failed", "error", err.Error())
		return ""
	}

	block := formatMemoryBlock(results)
	if r.cache != nil && block != "" {
		r.cache.SetWithTTL(query, block, int64(len(block)), r.cfg.CacheTTL)
	}
	return block
}

// formatMemoryBlock cleans and compresses search hits into a bounded
// bulleted block, deduplicating case-insensitively.
func formatMemoryBlock(results []SearchResult) string {
	seen := make(map[string]bool)
	var lines []string
	for _, res := range results {
		text := cleanMemoryText(res.Text)
		if text == "" {
			continue
		}
		if len(text) > maxBulletChars {
			text = text[:maxBulletChars] + "…"
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		lines = append(lines, "• "+text)
		if len(lines) == maxBullets {
			break
		}
	}
	if len(lines) == 0 {
		return ""
	}

	block := retrievalHeader + strings.Join(lines, "\n")
	if len(block) > maxBlockChars {
		block = block[:maxBlockChars] + "…"
	}
	return block
}

// cleanMemoryText strips metadata noise that can leak into stored text.
func cleanMemoryText(text string) string {
	text = sourceBlobRe.ReplaceAllString(text, "")
	text = braceBlobRe.ReplaceAllString(text, "")
	text = bracketRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
