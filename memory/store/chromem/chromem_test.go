package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomhq/atom-go-sdk/logging"
	"github.com/atomhq/atom-go-sdk/memory/embedder/mock"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("test_memory", mock.New(64), logging.NoOpLogger{})
	require.NoError(t, err)
	return s
}

func add(t *testing.T, s *Store, id, text string) {
	t.Helper()
	_, err := s.AddTexts(context.Background(),
		[]string{text},
		[]map[string]string{{"type": "fact"}},
		[]string{id},
	)
	require.NoError(t, err)
}

func TestAddAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ids, err := s.AddTexts(ctx,
		[]string{"likes espresso"},
		[]map[string]string{{"type": "preference", "importance": "3"}},
		[]string{"id-1"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, ids)
	assert.Equal(t, 1, s.Count())

	docs, err := s.Get(ctx, []string{"id-1", "missing"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "likes espresso", docs[0].Text)
	assert.Equal(t, "preference", docs[0].Metadata["type"])
}

func TestAddTextsMismatchedLengths(t *testing.T) {
	s := newStore(t)

	_, err := s.AddTexts(context.Background(), []string{"a", "b"}, []map[string]string{{}}, []string{"x"})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	add(t, s, "id-1", "first")
	add(t, s, "id-2", "second")

	require.NoError(t, s.Delete(ctx, []string{"id-1"}))
	assert.Equal(t, 1, s.Count())

	docs, err := s.Get(ctx, []string{"id-1"})
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.NoError(t, s.Delete(ctx, nil), "empty delete is a no-op")
}

func TestSimilaritySearchRanksExactMatchFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	add(t, s, "id-a", "the user enjoys long mountain hikes")
	add(t, s, "id-b", "completely unrelated database trivia")

	results, err := s.SimilaritySearchWithScore(ctx, "the user enjoys long mountain hikes", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "id-a", results[0].ID, "identical text is the nearest neighbor")
	assert.InDelta(t, 0, results[0].Distance, 1e-5)
	assert.Less(t, results[0].Distance, results[1].Distance)
}

func TestSimilaritySearchClampsK(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	add(t, s, "id-1", "only entry")

	results, err := s.SimilaritySearchWithScore(ctx, "query", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSimilaritySearchEmptyStore(t *testing.T) {
	s := newStore(t)

	results, err := s.SimilaritySearchWithScore(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReinsertUnderSameID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	add(t, s, "id-1", "old text")
	require.NoError(t, s.Delete(ctx, []string{"id-1"}))
	add(t, s, "id-1", "new text")

	docs, err := s.Get(ctx, []string{"id-1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new text", docs[0].Text)
	assert.Equal(t, 1, s.Count())
}
