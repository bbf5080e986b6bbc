// Package session tracks per-session memory state shared between the
// conversational turn handler and background judge jobs.
//
// The state is deliberately tiny: a user-turn counter driving the periodic
// judge, and a one-shot judged-context slot. Both are guarded by a single
// registry mutex; the background worker writes the slot, the turn handler
// drains it, and neither side may assume any other exclusion.
package session

import "sync"

// state holds the per-session entry. judgedContext is valid only while
// hasJudged is set; absence is the default state.
type state struct {
	turns         int
	judgedContext string
	hasJudged     bool
}

// Registry is a process-wide map of session id to memory state.
// Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*state
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*state)}
}

// get returns the entry for a session, creating it lazily.
// Caller must hold r.mu.
func (r *Registry) get(sessionID string) *state {
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &state{}
		r.sessions[sessionID] = s
	}
	return s
}

// BumpTurn increments the user-turn counter for a session and returns the
// new count. Only user turns may be counted; the caller owns that predicate.
func (r *Registry) BumpTurn(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(sessionID)
	s.turns++
	return s.turns
}

// TurnCount returns the current user-turn count for a session.
func (r *Registry) TurnCount(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s.turns
	}
	return 0
}

// PutJudgedContext stores judged context for a session, overwriting any
// pending value (last-write-wins; pending contexts are not queued).
// Empty text is ignored.
func (r *Registry) PutJudgedContext(sessionID, text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(sessionID)
	s.judgedContext = text
	s.hasJudged = true
}

// DrainInjection removes and returns the pending judged context for a
// session. Each stored value is observed by at most one call; a second call
// before a new PutJudgedContext reports absence.
func (r *Registry) DrainInjection(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || !s.hasJudged {
		return "", false
	}
	text := s.judgedContext
	s.judgedContext = ""
	s.hasJudged = false
	return text, true
}

// Reset clears all state for a session.
func (r *Registry) Reset(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}
