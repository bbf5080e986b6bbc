package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomhq/atom-go-sdk/core"
	"github.com/atomhq/atom-go-sdk/logging"
	"github.com/atomhq/atom-go-sdk/session"
)

func newPeriodicFixture(judge Judge, interval int) (*PeriodicJudge, *session.Registry, *fakeBackend) {
	backend := newFakeBackend()
	store := NewLongTermStore(backend, logging.NoOpLogger{})
	sessions := session.NewRegistry()
	p := NewPeriodicJudge(judge, store, sessions, interval, logging.NoOpLogger{})
	return p, sessions, backend
}

func TestObserveTurnFiresEveryNthUserTurn(t *testing.T) {
	p, _, _ := newPeriodicFixture(&scriptedJudge{}, 3)

	msgs := []core.Message{core.NewUserMessage("hello")}
	for turn := 1; turn <= 9; turn++ {
		_, due := p.ObserveTurn("s", msgs)
		if turn%3 == 0 {
			assert.True(t, due, "turn %d should fire", turn)
		} else {
			assert.False(t, due, "turn %d should not fire", turn)
		}
	}
}

func TestObserveTurnIsPerSession(t *testing.T) {
	p, _, _ := newPeriodicFixture(&scriptedJudge{}, 2)
	msgs := []core.Message{core.NewUserMessage("hi")}

	_, due := p.ObserveTurn("a", msgs)
	assert.False(t, due)
	_, due = p.ObserveTurn("b", msgs)
	assert.False(t, due, "sessions count independently")
	_, due = p.ObserveTurn("a", msgs)
	assert.True(t, due)
}

func TestObserveTurnReturnsRecentWindow(t *testing.T) {
	p, _, _ := newPeriodicFixture(&scriptedJudge{}, 2)

	var msgs []core.Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, core.NewUserMessage("q"), core.NewAssistantMessage("a"))
	}

	p.ObserveTurn("s", msgs)
	recent, due := p.ObserveTurn("s", msgs)
	require.True(t, due)
	assert.Len(t, recent, 4, "window is the last 2N messages")
}

func TestRunStoresJudgedContext(t *testing.T) {
	judge := &scriptedJudge{replies: []string{"- user is planning a move to Berlin\n- user prefers concise answers"}}
	p, sessions, _ := newPeriodicFixture(judge, 10)

	recent := []core.Message{
		core.NewUserMessage("I'm moving to Berlin next spring"),
		core.NewAssistantMessage("Exciting! Let me know how I can help."),
	}
	p.Run(context.Background(), "s", recent)

	text, ok := sessions.DrainInjection("s")
	require.True(t, ok)
	assert.Contains(t, text, "Berlin")
}

func TestRunNoneReplyStoresNothing(t *testing.T) {
	for _, reply := range []string{"NONE", "none", "  NONE  ", "<think>nothing here</think>NONE", ""} {
		judge := &scriptedJudge{replies: []string{reply}}
		p, sessions, _ := newPeriodicFixture(judge, 10)

		p.Run(context.Background(), "s", []core.Message{
			core.NewUserMessage("hi"),
			core.NewAssistantMessage("hello"),
		})

		_, ok := sessions.DrainInjection("s")
		assert.False(t, ok, "reply %q must not inject", reply)
	}
}

func TestRunSkipsInjectedContextInWindow(t *testing.T) {
	judge := &scriptedJudge{replies: []string{"NONE"}}
	p, _, _ := newPeriodicFixture(judge, 10)

	recent := []core.Message{
		{Role: core.RoleSystem, Name: core.InjectedContextName, Content: "previously injected"},
		core.NewUserMessage("actual question"),
		core.NewAssistantMessage("actual answer"),
	}
	p.Run(context.Background(), "s", recent)

	require.Equal(t, 1, judge.callCount())
	assert.NotContains(t, judge.prompts[0], "previously injected",
		"stale injected context must not feed back into the judge")
}

func TestRunIncludesExistingMemories(t *testing.T) {
	judge := &scriptedJudge{replies: []string{"NONE"}}
	p, _, backend := newPeriodicFixture(judge, 10)

	store := NewLongTermStore(backend, logging.NoOpLogger{})
	_, err := store.Add(context.Background(), validRecord("works at a bakery"))
	require.NoError(t, err)

	p.Run(context.Background(), "s", []core.Message{
		core.NewUserMessage("what should I bake today?"),
		core.NewAssistantMessage("How about sourdough?"),
	})

	require.Equal(t, 1, judge.callCount())
	assert.Contains(t, judge.prompts[0], "works at a bakery")
}

func TestTailOf(t *testing.T) {
	assert.Equal(t, "short", tailOf("short", 500))
	long := strings.Repeat("x", 600)
	assert.Len(t, tailOf(long, 500), 500)
}
