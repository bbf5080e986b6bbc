package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atomhq/atom-go-sdk/core"
	"github.com/atomhq/atom-go-sdk/logging"
	"github.com/atomhq/atom-go-sdk/session"
)

// noneToken is the literal the judge replies with when nothing is worth
// keeping in mind.
const noneToken = "NONE"

const periodicPrompt = `You are a memory judge engine.

You will receive:
1) recent conversation context
2) previously known long-term memories

From BOTH sources, produce the BEST, CLEAN, RELEVANT
memory context the assistant should keep in mind going forward.

If there is real useful context, return a short set of bullet points.
If nothing meaningful, reply with ONLY: NONE

=== Conversation Context ===
User:
%s

Assistant:
%s

=== Existing Long-Term Memories ===
%s`

// queryTailChars bounds the similarity query taken from the tail of recent
// user text.
const queryTailChars = 500

// PeriodicJudge synthesizes working context every Nth user turn, blending
// recent dialogue with retrieved memories, and hands the result to the
// session registry for one-shot injection.
type PeriodicJudge struct {
	judge    Judge
	store    *LongTermStore
	sessions *session.Registry
	interval int
	topK     int
	timeout  time.Duration
	log      logging.Logger
}

// NewPeriodicJudge creates a PeriodicJudge firing every interval user
// turns. interval defaults to 10, topK to 5, timeout to two minutes.
func NewPeriodicJudge(judge Judge, store *LongTermStore, sessions *session.Registry, interval int, log logging.Logger) *PeriodicJudge {
	if interval < 1 {
		interval = 10
	}
	if log == nil {
		log = logging.Default()
	}
	return &PeriodicJudge{
		judge:    judge,
		store:    store,
		sessions: sessions,
		interval: interval,
		topK:     5,
		timeout:  2 * time.Minute,
		log:      log,
	}
}

// Interval returns N, the user-turn period.
func (p *PeriodicJudge) Interval() int {
	return p.interval
}

// ObserveTurn counts a user turn for the session and reports whether the
// judge is due. Assistant turns must not be passed here; the caller applies
// the core.Message.IsUser predicate. Returns the recent-dialogue window
// (last 2N messages, a safety margin covering N exchanges) when due.
func (p *PeriodicJudge) ObserveTurn(sessionID string, msgs []core.Message) ([]core.Message, bool) {
	count := p.sessions.BumpTurn(sessionID)
	if count%p.interval != 0 {
		return nil, false
	}
	p.log.Debug("periodic judge due", "session", sessionID, "turn", count)
	return core.Tail(msgs, p.interval*2), true
}

// Run executes one periodic judgment for a session. Designed to run inside
// a background job: every failure path degrades to "no injection".
func (p *PeriodicJudge) Run(ctx context.Context, sessionID string, recent []core.Message) {
	var userText, aiText strings.Builder
	for _, m := range recent {
		if m.IsUser() {
			userText.WriteString(m.Content)
			userText.WriteString("\n")
		} else if !m.IsInjectedContext() {
			aiText.WriteString(m.Content)
			aiText.WriteString("\n")
		}
	}

	memoryText := noneToken
	if query := tailOf(strings.TrimSpace(userText.String()), queryTailChars); query != "" {
		results, err := p.store.Search(ctx, query, p.topK)
		if err != nil {
			p.log.Warn("periodic judge memory lookup failed", "error", err.Error())
		} else if len(results) > 0 {
			var b strings.Builder
			for i, r := range results {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(r.Text)
			}
			memoryText = b.String()
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.judge.Invoke(callCtx, fmt.Sprintf(periodicPrompt, userText.String(), aiText.String(), memoryText))
	if err != nil {
		p.log.Warn("periodic judge call failed", "error", err.Error())
		return
	}

	text := StripThink(reply)
	if text == "" || strings.EqualFold(strings.TrimSpace(text), noneToken) {
		p.log.Debug("periodic judge produced nothing useful", "session", sessionID)
		return
	}

	p.sessions.PutJudgedContext(sessionID, text)
	p.log.Info("judged context cached", "session", sessionID, "chars", len(text))
}

// tailOf returns the last n bytes of s.
func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
