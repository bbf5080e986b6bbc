package memory

import (
	"context"
	"sync"
)

// fakeBackend is an in-memory Backend for tests. Similarity search returns
// documents in insertion order with per-id distances (default 0.5).
type fakeBackend struct {
	mu        sync.Mutex
	docs      map[string]Document
	order     []string
	distances map[string]float64

	addErr    error
	searchErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:      make(map[string]Document),
		distances: make(map[string]float64),
	}
}

func (f *fakeBackend) AddTexts(ctx context.Context, texts []string, metadatas []map[string]string, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	for i, id := range ids {
		if _, exists := f.docs[id]; !exists {
			f.order = append(f.order, id)
		}
		f.docs[id] = Document{ID: id, Text: texts[i], Metadata: metadatas[i]}
	}
	return ids, nil
}

func (f *fakeBackend) Get(ctx context.Context, ids []string) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Document
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeBackend) Delete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.docs, id)
		for i, o := range f.order {
			if o == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *fakeBackend) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []ScoredDocument
	for _, id := range f.order {
		if len(out) == k {
			break
		}
		dist, ok := f.distances[id]
		if !ok {
			dist = 0.5
		}
		out = append(out, ScoredDocument{Document: f.docs[id], Distance: dist})
	}
	return out, nil
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeBackend) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.docs[id].Text)
	}
	return out
}

// scriptedJudge replays canned replies in order, recording prompts. The last
// reply repeats once the script runs out. A non-nil block channel gates every
// call, letting tests control when background judge jobs complete.
type scriptedJudge struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
	block   chan struct{}
}

func (j *scriptedJudge) Invoke(ctx context.Context, prompt string) (string, error) {
	j.mu.Lock()
	j.prompts = append(j.prompts, prompt)
	block := j.block
	j.mu.Unlock()

	if block != nil {
		<-block
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return "", j.err
	}
	if len(j.replies) == 0 {
		return "", nil
	}
	reply := j.replies[0]
	if len(j.replies) > 1 {
		j.replies = j.replies[1:]
	}
	return reply, nil
}

func (j *scriptedJudge) callCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.prompts)
}
