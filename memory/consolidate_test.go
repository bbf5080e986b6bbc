package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomhq/atom-go-sdk/logging"
)

func newConsolidatorFixture(t *testing.T, judge Judge) (*Consolidator, *fakeBackend, *LongTermStore) {
	t.Helper()
	backend := newFakeBackend()
	store := NewLongTermStore(backend, logging.NoOpLogger{})
	c := NewConsolidator(store, judge, 0, 0, logging.NoOpLogger{})
	return c, backend, store
}

func TestConsolidateAddNew(t *testing.T) {
	judge := &scriptedJudge{replies: []string{`{"action": "add_new"}`}}
	c, backend, _ := newConsolidatorFixture(t, judge)

	c.Consolidate(context.Background(), validRecord("plays the violin"))

	assert.Equal(t, 1, backend.count())
	assert.Contains(t, backend.texts(), "plays the violin")
}

func TestConsolidateKeepExisting(t *testing.T) {
	judge := &scriptedJudge{replies: []string{`{"action": "keep_existing"}`}}
	c, backend, store := newConsolidatorFixture(t, judge)

	_, err := store.Add(context.Background(), validRecord("plays the violin"))
	require.NoError(t, err)

	c.Consolidate(context.Background(), validRecord("plays violin"))

	assert.Equal(t, 1, backend.count(), "keep_existing must not write")
}

func TestConsolidateReplaceBest(t *testing.T) {
	judge := &scriptedJudge{replies: []string{`{"action": "replace_best", "updated_text": "plays violin in a quartet"}`}}
	c, backend, store := newConsolidatorFixture(t, judge)
	ctx := context.Background()

	idWeak, err := store.Add(ctx, validRecord("plays an instrument"))
	require.NoError(t, err)
	idBest, err := store.Add(ctx, validRecord("plays the violin"))
	require.NoError(t, err)
	backend.distances[idWeak] = 0.9
	backend.distances[idBest] = 0.1

	candidate := Record{Text: "plays violin seriously", Type: TypeSkill, Importance: 4, Confidence: 0.9}
	c.Consolidate(ctx, candidate)

	assert.Equal(t, 2, backend.count(), "replace keeps the record count")

	docs, err := backend.Get(ctx, []string{idBest})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "plays violin in a quartet", docs[0].Text)
	assert.Equal(t, TypeSkill, docs[0].Metadata["type"], "candidate metadata merges over the neighbor")
	assert.Equal(t, int64(0), c.FallbackAdds())
}

func TestConsolidateReplaceBestEmptyUpdatedTextUsesCandidate(t *testing.T) {
	judge := &scriptedJudge{replies: []string{`{"action": "replace_best"}`}}
	c, backend, store := newConsolidatorFixture(t, judge)
	ctx := context.Background()

	id, err := store.Add(ctx, validRecord("old phrasing"))
	require.NoError(t, err)

	c.Consolidate(ctx, validRecord("new phrasing"))

	docs, _ := backend.Get(ctx, []string{id})
	require.Len(t, docs, 1)
	assert.Equal(t, "new phrasing", docs[0].Text)
}

func TestConsolidateReplaceBestWithoutNeighborsFallsBackToAdd(t *testing.T) {
	judge := &scriptedJudge{replies: []string{`{"action": "replace_best", "updated_text": "improved"}`}}
	c, backend, _ := newConsolidatorFixture(t, judge)

	c.Consolidate(context.Background(), validRecord("orphan candidate"))

	assert.Equal(t, 1, backend.count(), "unresolvable replace target degrades to add")
	assert.Contains(t, backend.texts(), "orphan candidate")
	assert.Equal(t, int64(1), c.FallbackAdds())
}

func TestConsolidateJudgeFailureDefaultsToAdd(t *testing.T) {
	judge := &scriptedJudge{err: errors.New("judge down")}
	c, backend, _ := newConsolidatorFixture(t, judge)

	c.Consolidate(context.Background(), validRecord("still stored"))

	assert.Equal(t, 1, backend.count(), "prefer over-storing to silent loss")
}

func TestConsolidateUnparseableReplyDefaultsToAdd(t *testing.T) {
	judge := &scriptedJudge{replies: []string{"hmm, tough call"}}
	c, backend, _ := newConsolidatorFixture(t, judge)

	c.Consolidate(context.Background(), validRecord("still stored"))

	assert.Equal(t, 1, backend.count())
}

func TestConsolidateSearchFailureStoresDirectly(t *testing.T) {
	judge := &scriptedJudge{replies: []string{`{"action": "add_new"}`}}
	c, backend, _ := newConsolidatorFixture(t, judge)
	backend.searchErr = errors.New("index corrupt")

	c.Consolidate(context.Background(), validRecord("survives search failure"))

	backend.searchErr = nil
	assert.Equal(t, 1, backend.count())
}
