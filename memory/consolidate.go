package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/atomhq/atom-go-sdk/logging"
)

// Consolidation actions the judge may choose.
const (
	actionKeepExisting = "keep_existing"
	actionAddNew       = "add_new"
	actionReplaceBest  = "replace_best"
)

const consolidationPrompt = `You are a long-term memory consolidation engine.

Here is a NEW candidate memory:
%s

Here are EXISTING similar memories:
%s

Decide ONE of the following actions:
- "keep_existing"  -> do nothing
- "add_new"        -> store this as an additional memory
- "replace_best"   -> replace the most relevant existing memory with an improved one

Rules:
- Prefer replacing if the new memory is higher importance or clearer.
- Prefer skipping if the new memory is weaker or redundant.
- Prefer adding if it is meaningfully different.

If replace_best:
Return a new compressed memory summary text.

Reply ONLY valid JSON like:
{
  "action": "...",
  "updated_text": "..."
}`

// consolidationDecision mirrors the judge's JSON reply.
type consolidationDecision struct {
	Action      string `json:"action"`
	UpdatedText string `json:"updated_text"`
}

// neighborView is the compact form of an existing record shown to the judge.
type neighborView struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Importance int     `json:"importance"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
}

// Consolidator merges a validated candidate record with its nearest
// existing records, preventing duplicate or contradictory memories. Its
// side effects are confined to the store; no conversational state is
// touched.
type Consolidator struct {
	store   *LongTermStore
	judge   Judge
	topK    int
	timeout time.Duration
	log     logging.Logger

	fallbackAdds atomic.Int64
}

// NewConsolidator creates a Consolidator. topK defaults to 5, timeout to
// two minutes.
func NewConsolidator(store *LongTermStore, judge Judge, topK int, timeout time.Duration, log logging.Logger) *Consolidator {
	if topK < 1 {
		topK = 5
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if log == nil {
		log = logging.Default()
	}
	return &Consolidator{store: store, judge: judge, topK: topK, timeout: timeout, log: log}
}

// FallbackAdds returns how many replace_best decisions degraded into adds
// because no neighbor id was resolvable. A steadily growing count means the
// store is duplicating instead of consolidating.
func (c *Consolidator) FallbackAdds() int64 {
	return c.fallbackAdds.Load()
}

// Consolidate decides the fate of a candidate record and applies it.
// The judge's verdict is advisory: a parse failure defaults to add_new
// rather than discarding the candidate (prefer over-storing to silent
// loss), and an unresolvable replace target falls back to add_new.
func (c *Consolidator) Consolidate(ctx context.Context, candidate Record) {
	neighbors, err := c.store.Search(ctx, candidate.Text, c.topK)
	if err != nil {
		c.log.Warn("consolidation neighbor search failed, storing candidate directly", "error", err.Error())
		neighbors = nil
	}

	decision := c.decide(ctx, candidate, neighbors)

	switch decision.Action {
	case actionKeepExisting:
		c.log.Debug("consolidation kept existing memory", "candidate", candidate.Text)

	case actionReplaceBest:
		best, ok := bestNeighbor(neighbors)
		if ok && best.ID != "" {
			updated := decision.UpdatedText
			if updated == "" {
				updated = candidate.Text
			}
			merge := candidate.metadata()
			if err := c.store.Update(ctx, best.ID, updated, merge); err == nil {
				return
			} else {
				c.log.Warn("consolidation replace failed, falling back to add", "id", best.ID, "error", err.Error())
			}
		} else {
			c.fallbackAdds.Add(1)
			c.log.Warn("consolidation replace target unresolvable, falling back to add",
				"fallback_adds", c.fallbackAdds.Load())
		}
		c.add(ctx, candidate)

	default: // add_new and anything unrecognized
		c.add(ctx, candidate)
	}
}

// decide asks the consolidation judge what to do with the candidate.
func (c *Consolidator) decide(ctx context.Context, candidate Record, neighbors []SearchResult) consolidationDecision {
	views := make([]neighborView, 0, len(neighbors))
	for _, n := range neighbors {
		rec := n.Record()
		views = append(views, neighborView{
			ID:         n.ID,
			Text:       n.Text,
			Type:       rec.Type,
			Importance: rec.Importance,
			Confidence: rec.Confidence,
			Score:      n.Score,
		})
	}

	candidateJSON, _ := json.MarshalIndent(map[string]any{
		"text":       candidate.Text,
		"type":       candidate.Type,
		"importance": candidate.Importance,
		"confidence": candidate.Confidence,
		"tags":       candidate.Tags,
	}, "", "  ")
	neighborsJSON, _ := json.MarshalIndent(views, "", "  ")

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.judge.Invoke(callCtx, fmt.Sprintf(consolidationPrompt, string(candidateJSON), string(neighborsJSON)))
	if err != nil {
		c.log.Warn("consolidation judge call failed, defaulting to add_new", "error", err.Error())
		return consolidationDecision{Action: actionAddNew}
	}

	var decision consolidationDecision
	if err := ExtractJSON(reply, &decision); err != nil {
		c.log.Debug("consolidation reply unparseable, defaulting to add_new", "error", err.Error())
		return consolidationDecision{Action: actionAddNew}
	}
	return decision
}

// add stores the candidate, logging failures without surfacing them.
func (c *Consolidator) add(ctx context.Context, candidate Record) {
	if _, err := c.store.Add(ctx, candidate); err != nil {
		c.log.Warn("consolidation add failed", "error", err.Error())
	}
}

// bestNeighbor returns the retrieved neighbor with the highest similarity
// score.
func bestNeighbor(neighbors []SearchResult) (SearchResult, bool) {
	if len(neighbors) == 0 {
		return SearchResult{}, false
	}
	best := neighbors[0]
	for _, n := range neighbors[1:] {
		if n.Score > best.Score {
			best = n
		}
	}
	return best, true
}
