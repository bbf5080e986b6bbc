package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/atomhq/atom-go-sdk/logging"
)

// writeJudgePrompt instructs the judge to classify a turn for long-term
// salience. The storage policy lives entirely in this contract; the reply is
// advisory and parsed defensively.
const writeJudgePrompt = `You are a long-term memory formation engine for an AI assistant.

You must decide whether this interaction contains something worth remembering
for the user's future interactions.

Save ONLY if it is:
- a long-term goal
- a personal preference
- an identity fact
- an ongoing project
- an emotionally meaningful concern

DO NOT save:
- questions
- commands
- temporary info
- jokes
- general chit chat

If storing, compress it into ONE short factual sentence.
Assign:
- type: project | goal | preference | skill | fact | concern
- importance: 1 to 5
- confidence: 0 to 1
- tags: list of short keywords

IF store=true, YOU MUST INCLUDE:
- text: ONE short factual sentence describing the memory

Reply ONLY in JSON.
If not worth saving, reply with:
{ "store": false }

User said:
%s

Assistant replied:
%s`

// writeDecision mirrors the judge's JSON reply. Pointer fields distinguish
// absent from zero so missing required fields reject cleanly.
type writeDecision struct {
	Store      bool     `json:"store"`
	Type       *string  `json:"type"`
	Importance *int     `json:"importance"`
	Confidence *float64 `json:"confidence"`
	Text       *string  `json:"text"`
	Tags       []string `json:"tags"`
}

// WriteJudge decides whether a conversational turn contains memory-worthy
// content and compresses it into a candidate record.
type WriteJudge struct {
	judge   Judge
	timeout time.Duration
	log     logging.Logger
}

// NewWriteJudge creates a WriteJudge. A zero timeout defaults to two
// minutes.
func NewWriteJudge(judge Judge, timeout time.Duration, log logging.Logger) *WriteJudge {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if log == nil {
		log = logging.Default()
	}
	return &WriteJudge{judge: judge, timeout: timeout, log: log}
}

// Evaluate classifies the last user/assistant exchange of a turn. It
// returns the candidate record and true when the judge decided to store.
// Any parse failure, missing required field, timeout or range violation
// results in silent rejection: no partial state, no retry.
func (w *WriteJudge) Evaluate(ctx context.Context, userText, assistantText string) (Record, bool) {
	if userText == "" || assistantText == "" {
		return Record{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	reply, err := w.judge.Invoke(ctx, fmt.Sprintf(writeJudgePrompt, userText, assistantText))
	if err != nil {
		w.log.Warn("write judge call failed", "error", err.Error())
		return Record{}, false
	}

	var decision writeDecision
	if err := ExtractJSON(reply, &decision); err != nil {
		w.log.Debug("write judge reply unparseable, rejecting", "error", err.Error())
		return Record{}, false
	}
	if !decision.Store {
		w.log.Debug("write judge rejected turn")
		return Record{}, false
	}
	if decision.Type == nil || decision.Importance == nil || decision.Confidence == nil || decision.Text == nil {
		w.log.Debug("write judge reply missing required fields, rejecting")
		return Record{}, false
	}

	rec := Record{
		Text:       *decision.Text,
		Type:       *decision.Type,
		Importance: *decision.Importance,
		Confidence: *decision.Confidence,
		Tags:       decision.Tags,
		Source:     SourceConversation,
	}
	if err := rec.Validate(); err != nil {
		w.log.Debug("write judge candidate invalid, rejecting", "reason", err.Error())
		return Record{}, false
	}
	return rec, true
}
