package memory

import (
	"context"

	"github.com/atomhq/atom-go-sdk/core"
	"github.com/atomhq/atom-go-sdk/logging"
	"github.com/atomhq/atom-go-sdk/session"
	"github.com/atomhq/atom-go-sdk/worker"
)

// Pipeline wires the memory judges onto the background worker and exposes
// the two hooks the conversational turn handler calls: BeforeModel (count
// the turn, maybe schedule the periodic judge, drain the one-shot
// injection) and AfterTurn (submit the write-judge/consolidation job).
//
// Nothing here blocks on model calls and no error escapes to the caller:
// memory is best-effort, conversation is not.
type Pipeline struct {
	worker       *worker.Worker
	writeJudge   *WriteJudge
	consolidator *Consolidator
	periodic     *PeriodicJudge
	sessions     *session.Registry
	log          logging.Logger
}

// NewPipeline assembles the pipeline from its parts.
func NewPipeline(w *worker.Worker, wj *WriteJudge, c *Consolidator, p *PeriodicJudge, sessions *session.Registry, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Default()
	}
	return &Pipeline{
		worker:       w,
		writeJudge:   wj,
		consolidator: c,
		periodic:     p,
		sessions:     sessions,
		log:          log,
	}
}

// BeforeModel runs before each model invocation. When the sequence ends
// with a user turn it counts it and, every Nth turn, schedules the periodic
// judge over the recent window. It then drains any pending judged context
// and merges it into the returned sequence; with nothing pending the
// sequence passes through unmodified, which is the common case.
func (p *Pipeline) BeforeModel(sessionID string, msgs []core.Message) []core.Message {
	if len(msgs) > 0 && msgs[len(msgs)-1].IsUser() {
		if recent, due := p.periodic.ObserveTurn(sessionID, msgs); due {
			window := append([]core.Message(nil), recent...)
			p.worker.Submit(func() {
				p.periodic.Run(context.Background(), sessionID, window)
			})
		}
	}

	text, ok := p.sessions.DrainInjection(sessionID)
	if !ok {
		return msgs
	}
	p.log.Debug("injecting judged context", "session", sessionID)
	return InjectContext(msgs, text)
}

// AfterTurn runs after each completed conversational turn. It extracts the
// last user/assistant exchange and submits the write-judge job; the verdict
// flows into consolidation inside the same job. Fire-and-forget.
func (p *Pipeline) AfterTurn(sessionID string, msgs []core.Message) {
	lastUser, okUser := core.LastUser(msgs)
	lastAI, okAI := core.LastAssistant(msgs)
	if !okUser || !okAI {
		return
	}

	userText, aiText := lastUser.Content, lastAI.Content
	p.worker.Submit(func() {
		ctx := context.Background()
		candidate, store := p.writeJudge.Evaluate(ctx, userText, aiText)
		if !store {
			return
		}
		p.consolidator.Consolidate(ctx, candidate)
	})
}

// SubmitCandidate pushes an externally supplied memory candidate (e.g. from
// the save_memory tool) through consolidation asynchronously.
func (p *Pipeline) SubmitCandidate(candidate Record) {
	p.worker.Submit(func() {
		p.consolidator.Consolidate(context.Background(), candidate)
	})
}
