package core

// Message roles as they appear in conversational state. Upstream agent
// frameworks are not consistent about the user role tag ("user" vs "human"),
// so role checks go through the predicates below instead of raw comparisons.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleHuman     = "human"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// InjectedContextName marks the system message carrying judged memory
// context. At most one message with this name exists in a sequence at a time.
const InjectedContextName = "memory_context"

// Message is a single entry in a conversational sequence.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// Name optionally tags special messages (e.g. injected memory context).
	Name string `json:"name,omitempty"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// IsUser reports whether the message is a user turn. Both "user" and "human"
// role tags count; the periodic trigger depends on this predicate, so it is
// deliberately permissive about upstream naming.
func (m Message) IsUser() bool {
	return m.Role == RoleUser || m.Role == RoleHuman
}

// IsAssistant reports whether the message is an assistant turn.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// IsSystem reports whether the message is a system message.
func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

// IsInjectedContext reports whether this message is a previously injected
// memory context message.
func (m Message) IsInjectedContext() bool {
	return m.IsSystem() && m.Name == InjectedContextName
}

// LastUser returns the most recent user message in the sequence.
func LastUser(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsUser() {
			return msgs[i], true
		}
	}
	return Message{}, false
}

// LastAssistant returns the most recent assistant message in the sequence.
func LastAssistant(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() {
			return msgs[i], true
		}
	}
	return Message{}, false
}

// Tail returns the last n messages (or all of them if fewer exist).
func Tail(msgs []Message, n int) []Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
