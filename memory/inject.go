package memory

import "github.com/atomhq/atom-go-sdk/core"

// InjectContext merges judged context into a message sequence.
//
// The text is wrapped as a named system message, any previously injected
// context message is stripped first (at most one exists at a time), and the
// new one lands immediately after the first system message, or at the front
// if the sequence has none. The input slice is not mutated.
func InjectContext(msgs []core.Message, text string) []core.Message {
	injected := core.Message{
		Role:    core.RoleSystem,
		Name:    core.InjectedContextName,
		Content: "Relevant judged context:\n" + text,
	}

	out := make([]core.Message, 0, len(msgs)+1)
	inserted := false
	for _, m := range msgs {
		if m.IsInjectedContext() {
			continue
		}
		out = append(out, m)
		if !inserted && m.IsSystem() {
			out = append(out, injected)
			inserted = true
		}
	}
	if !inserted {
		out = append([]core.Message{injected}, out...)
	}
	return out
}

// StripInjectedContext removes any injected context message from the
// sequence. The input slice is not mutated.
func StripInjectedContext(msgs []core.Message) []core.Message {
	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsInjectedContext() {
			continue
		}
		out = append(out, m)
	}
	return out
}
